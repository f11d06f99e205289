package commands

import (
	"fmt"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/hadithconsole/internal/content"
)

func NewHadithCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hadith",
		Short:   "Daily hadith management commands",
		Aliases: []string{"hadiths", "h"},
	}

	cmd.AddCommand(newHadithListCommand())
	cmd.AddCommand(newHadithAddCommand())
	cmd.AddCommand(newHadithDeleteCommand())

	return cmd
}

func newHadithListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List hadiths",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			hadiths, err := newClient().ListHadiths(ctx)
			if err != nil {
				return fmt.Errorf("failed to list hadiths: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tNARRATOR\tTEXT\tSENT")

			for _, h := range hadiths {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					h.ID,
					h.Date,
					h.Narrator,
					truncate(h.Text, 40),
					formatTime(h.SentAt),
				)
			}

			return w.Flush()
		},
	}
	return cmd
}

func newHadithAddCommand() *cobra.Command {
	var in content.HadithInput

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a hadith for a given day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Text = args[0]

			ctx, cancel := requestContext(cmd)
			defer cancel()

			h, err := newClient().CreateHadith(ctx, in)
			if err != nil {
				return fmt.Errorf("failed to add hadith: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Hadith %s added for %s\n", h.ID, h.Date)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Date, "date", "", "Display date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Narrator, "narrator", "", "Narrator")
	cmd.Flags().StringVar(&in.Source, "source", "", "Source collection")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newHadithDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete [hadith_id]",
		Short:   "Delete a hadith",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if err := newClient().DeleteHadith(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete hadith: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Hadith %s deleted\n", args[0])
			return nil
		},
	}
	return cmd
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}
