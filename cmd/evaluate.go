package cmd

import (
	"github.com/spf13/cobra"
)

var evaluateUserID string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Show the reconciliation plan, or the evaluation of one user",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(cfg, log)
		if err != nil {
			return err
		}
		defer app.close()

		ctx := cmd.Context()
		if evaluateUserID != "" {
			evaluation, err := app.services.Membership.EvaluateUser(ctx, evaluateUserID)
			if err != nil {
				return err
			}
			printUserEvaluation(cmd.OutOrStdout(), evaluation)
			return nil
		}

		plan, err := app.services.Membership.Reconcile(ctx)
		if err != nil {
			return err
		}
		printPlan(cmd.OutOrStdout(), plan)
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateUserID, "user", "", "evaluate a single user by ID")
}
