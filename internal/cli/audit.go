package cli

import (
	"github.com/spf13/cobra"
)

// NewAuditCmd создаёт группу команд для просмотра журнала аудита.
func NewAuditCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log (admin)",
	}

	cmd.AddCommand(
		newAuditListCmd(clientFn, outputFn),
	)

	return cmd
}

func newAuditListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			events, err := client.ListAuditEvents(limit)
			if err != nil {
				return err
			}

			headers := []string{"TIME", "TYPE", "ACTOR", "SUBJECT"}
			rows := make([][]string, len(events))
			for i, e := range events {
				rows[i] = []string{e.CreatedAt, e.Type, e.Actor, e.Subject}
			}

			out.Print(headers, rows, events)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of events")

	return cmd
}
