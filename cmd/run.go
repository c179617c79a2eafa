package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Set up default rules, reconcile every user and apply the changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(cfg, log)
		if err != nil {
			return err
		}
		defer app.close()

		ctx := cmd.Context()
		created, err := app.services.Rule.SetupDefaultRules(ctx)
		if err != nil {
			return err
		}
		log.Info("Default rules ready", zap.Int("created", created))

		run, err := app.services.Membership.Run(ctx, runDryRun)
		if err != nil {
			return err
		}

		printRunSummary(cmd.OutOrStdout(), created, run)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the plan without applying it")
}
