package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewCronCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Job processor commands",
	}

	cmd.AddCommand(newCronRunCommand())
	return cmd
}

func newCronRunCommand() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the job processor once now",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("CRON_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("cron secret is required (--secret or CRON_SECRET)")
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			run, err := newClient().RunCron(ctx, secret)
			if err != nil {
				return fmt.Errorf("failed to run cron: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed: %d, errors: %d\n", run.Processed, run.Errors)
			for _, d := range run.Details {
				fmt.Fprintf(out, "  %s\n", d)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Cron secret")
	return cmd
}
