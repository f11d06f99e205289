package commands

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hadithconsole/internal/content"
	"github.com/hadithconsole/internal/models"
)

func NewNotificationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notification",
		Short:   "Push notification management commands",
		Aliases: []string{"notifications", "n"},
	}

	cmd.AddCommand(newNotificationListCommand())
	cmd.AddCommand(newNotificationSendCommand())
	cmd.AddCommand(newNotificationScheduleCommand())
	cmd.AddCommand(newNotificationRecurringCommand())
	cmd.AddCommand(newNotificationToggleCommand())
	cmd.AddCommand(newNotificationDeleteCommand())

	return cmd
}

func newNotificationListCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List notifications",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			notifications, err := newClient().ListNotifications(ctx)
			if err != nil {
				return fmt.Errorf("failed to list notifications: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tTITLE\tWHEN\tACTIVE\tLAST SENT")

			for _, n := range notifications {
				if kind != "" && string(n.Type) != kind {
					continue
				}
				lastSent := n.LastSentAt
				if lastSent == nil {
					lastSent = n.SentAt
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
					n.ID,
					n.Type,
					n.Title,
					describeSchedule(n),
					n.Active,
					formatTime(lastSent),
				)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "type", "", "Filter by type (immediate/scheduled/recurring)")
	return cmd
}

func newNotificationSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [title] [body]",
		Short: "Send a notification to every device now",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return createNotification(cmd, content.NotificationInput{
				Title: args[0],
				Body:  args[1],
				Type:  models.NotificationImmediate,
			})
		},
	}
	return cmd
}

func newNotificationScheduleCommand() *cobra.Command {
	var date, at string

	cmd := &cobra.Command{
		Use:   "schedule [title] [body]",
		Short: "Schedule a one-time notification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return createNotification(cmd, content.NotificationInput{
				Title:         args[0],
				Body:          args[1],
				Type:          models.NotificationScheduled,
				ScheduledDate: date,
				ScheduledTime: at,
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date in the console time zone (YYYY-MM-DD)")
	cmd.Flags().StringVar(&at, "at", "", "Time of day (HH:MM)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newNotificationRecurringCommand() *cobra.Command {
	var (
		days []string
		at   string
	)

	cmd := &cobra.Command{
		Use:   "recurring [title] [body]",
		Short: "Create a weekly recurring notification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekdays, err := parseWeekdays(days)
			if err != nil {
				return err
			}
			return createNotification(cmd, content.NotificationInput{
				Title:         args[0],
				Body:          args[1],
				Type:          models.NotificationRecurring,
				RecurringDays: weekdays,
				RecurringTime: at,
			})
		},
	}

	cmd.Flags().StringSliceVar(&days, "days", nil, "Weekdays, by name (sun,mon,...) or number (0=Sunday)")
	cmd.Flags().StringVar(&at, "at", "", "Time of day (HH:MM)")
	_ = cmd.MarkFlagRequired("days")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newNotificationToggleCommand() *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:   "toggle [notification_id]",
		Short: "Activate or deactivate a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			n, err := newClient().UpdateNotification(ctx, content.NotificationPatch{ID: args[0], Active: &active})
			if err != nil {
				return fmt.Errorf("failed to update notification: %w", err)
			}

			state := "deactivated"
			if n.Active {
				state = "activated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Notification %s %s\n", n.ID, state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&active, "active", true, "Set to false to deactivate")
	return cmd
}

func newNotificationDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete [notification_id]",
		Short:   "Delete a notification",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if err := newClient().DeleteNotification(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete notification: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Notification %s deleted\n", args[0])
			return nil
		},
	}
	return cmd
}

func createNotification(cmd *cobra.Command, in content.NotificationInput) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	created, err := newClient().CreateNotification(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Notification %s created\n", created.ID)
	if created.FCMError != "" {
		fmt.Fprintf(out, "Warning: %s\n", created.FCMError)
	}
	if created.StorageError != "" {
		fmt.Fprintf(out, "Warning: %s\n", created.StorageError)
	}
	return nil
}

var weekdayNames = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

func parseWeekdays(values []string) ([]int, error) {
	days := make([]int, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if n, err := strconv.Atoi(v); err == nil {
			if n < 0 || n > 6 {
				return nil, fmt.Errorf("weekday %d out of range 0-6", n)
			}
			days = append(days, n)
			continue
		}
		idx := -1
		for i, name := range weekdayNames {
			if strings.HasPrefix(v, name) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("unknown weekday %q", v)
		}
		days = append(days, idx)
	}
	return days, nil
}

func describeSchedule(n models.Notification) string {
	switch n.Type {
	case models.NotificationScheduled:
		return n.ScheduledDate + " " + n.ScheduledTime
	case models.NotificationRecurring:
		names := make([]string, 0, len(n.RecurringDays))
		for _, d := range n.RecurringDays {
			if d >= 0 && d < len(weekdayNames) {
				names = append(names, weekdayNames[d])
			}
		}
		return strings.Join(names, ",") + " " + n.RecurringTime
	default:
		return "-"
	}
}
