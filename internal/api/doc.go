// Package api содержит HTTP-слой сервиса: обработчики, маршруты,
// middleware-цепочки и формат ответов.
//
// Структура пакета:
//   - handler.go — Handler и его зависимости
//   - routes.go — регистрация маршрутов
//   - middleware.go — логирование, recovery, аутентификация, проверка scope
//   - response.go — единый формат JSON-ответов
//   - dto.go — тела запросов и ответов, валидация
//   - auth_handler.go — выдача токенов (OAuth2 client credentials)
//   - profile_handler.go — операции с собственным профилем
//   - user_handler.go — администрирование пользователей и токенов
//   - health_handler.go — проверка живости и доступности БД
package api
