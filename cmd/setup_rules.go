package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
)

var setupRulesCmd = &cobra.Command{
	Use:   "setup-rules",
	Short: "Create the default SecureNet assignment rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(cfg, log)
		if err != nil {
			return err
		}
		defer app.close()

		created, err := app.services.Rule.SetupDefaultRules(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s.\n", english.Plural(created, "rule entry", "rule entries"))
		return nil
	},
}
