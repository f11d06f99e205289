package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewLoginCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("password is required (--password or ADMIN_PASSWORD)")
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			token, err := newClient().Login(ctx, password)
			if err != nil {
				return fmt.Errorf("failed to log in: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "export HADITH_API_TOKEN=%s\n", token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Admin password")
	return cmd
}
