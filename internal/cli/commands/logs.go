package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func NewLogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logs",
		Short:   "Cron log commands",
		Aliases: []string{"log"},
	}

	cmd.AddCommand(newLogsListCommand())
	cmd.AddCommand(newLogsClearCommand())

	return cmd
}

func newLogsListCommand() *cobra.Command {
	var (
		limit  int
		status string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List cron logs, newest first",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			logs, err := newClient().ListCronLogs(ctx)
			if err != nil {
				return fmt.Errorf("failed to list cron logs: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "TIME\tTYPE\tSTATUS\tMESSAGE")

			shown := 0
			for _, l := range logs {
				if status != "" && string(l.Status) != status {
					continue
				}
				if limit > 0 && shown >= limit {
					break
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					l.Timestamp.Local().Format(time.RFC3339),
					l.Type,
					l.Status,
					l.Message,
				)
				shown++
			}

			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries (0 for all)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (success/error)")
	return cmd
}

func newLogsClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cron log entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if err := newClient().ClearCronLogs(ctx); err != nil {
				return fmt.Errorf("failed to clear cron logs: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Cron logs cleared")
			return nil
		},
	}
	return cmd
}
