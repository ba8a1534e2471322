// Package cli реализует инструмент командной строки Gatekeeper.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Gatekeeper API.
// Работает через HTTP, не импортирует внутренние пакеты сервиса.
// CLI используется для получения токенов, просмотра профиля
// и администрирования пользователей.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Gatekeeper API. Инкапсулирует все HTTP-запросы,
// bearer-авторизацию, парсинг ответов (DataResponse, ListResponse,
// ErrorResponse) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080", token)
//	users, err := client.ListUsers()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: gatekeeper user list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - login: получение токена по логину и паролю
//   - profile: show, update, change-password
//   - user: list, create, show, update, set-admin, tokens
//   - token: revoke
//   - audit: list
//
// Каждая группа создаётся через фабричную функцию (NewUserCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
