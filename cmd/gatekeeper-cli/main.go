// Gatekeeper CLI — инструмент командной строки для получения токенов
// и администрирования пользователей через HTTP API.
//
// Использование:
//
//	gatekeeper [--api-url URL] [--token TOKEN] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	login    Получение access-токена
//	profile  Работа с собственным профилем
//	user     Администрирование пользователей
//	token    Управление access-токенами
//	audit    Просмотр журнала аудита
//
// Токен берётся из --token либо из переменной окружения GATEKEEPER_TOKEN.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Gatekeeper/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var token string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "gatekeeper",
		Short:         "Gatekeeper CLI — identity and access token tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Access token (defaults to GATEKEEPER_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client {
		t := token
		if t == "" {
			t = os.Getenv("GATEKEEPER_TOKEN")
		}
		return cli.NewClient(apiURL, t)
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewLoginCmd(clientFn, outputFn),
		cli.NewProfileCmd(clientFn, outputFn),
		cli.NewUserCmd(clientFn, outputFn),
		cli.NewTokenCmd(clientFn, outputFn),
		cli.NewAuditCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
