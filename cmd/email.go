package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/config"
)

var emailCmd = &cobra.Command{
	Use:   "email <lead-id>",
	Short: "Generate a personalised outreach email for a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, config.ModeEmail)
		if err != nil {
			return err
		}
		defer env.Close()

		email, err := env.Emails.GenerateForLead(ctx, args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("output")
		if format == "text" {
			fmt.Fprintf(os.Stdout, "Oggetto: %s\n\n%s\n", email.Subject, email.Body)
			return nil
		}
		return writeStructured(os.Stdout, format, email)
	},
}

func init() {
	emailCmd.Flags().StringP("output", "o", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(emailCmd)
}
