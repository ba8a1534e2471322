package api

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

// Без настроенного кеша инвалидация не делает ни одного запроса:
// обработчик с пустыми зависимостями не должен паниковать.
func TestDropCachedTokens_NoCache(t *testing.T) {
	h := &Handler{}
	h.dropCachedTokens(context.Background(), uuid.New())
}
