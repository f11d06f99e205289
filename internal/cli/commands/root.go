package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/hadithconsole/internal/api/client"
)

// NewRootCommand assembles the hadithctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "hadithctl",
		Short: "hadithctl - Hadith Console admin CLI",
		Long: `hadithctl manages push notifications, daily hadiths and cron logs
through the Hadith Console admin API.

Set HADITH_API_URL to the console address and HADITH_API_TOKEN to a session
token obtained with "hadithctl login".`,
		SilenceUsage: true,
	}

	root.AddCommand(NewLoginCommand())
	root.AddCommand(NewNotificationCommand())
	root.AddCommand(NewHadithCommand())
	root.AddCommand(NewLogsCommand())
	root.AddCommand(NewCronCommand())

	return root
}

// newClient is replaced in tests.
var newClient = client.NewClient

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 90*time.Second)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
