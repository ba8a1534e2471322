// Package sweeper обслуживает жизненный цикл access-токенов.
//
// Sweeper периодически (по cron-расписанию):
//   - отзывает токены, истёкшие с учётом льготного периода;
//   - удаляет отозванные токены старше окна хранения;
//   - публикует события token.expired в шину аудита.
//
// Несколько реплик сосуществуют безопасно: лидер выбирается
// через Postgres advisory lock в cmd/gatekeeper-sweeper.
package sweeper
