package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/securenet/dyngroups/audit"
)

var (
	auditUserID string
	auditSince  time.Duration
	auditLimit  int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List applied membership changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(cfg, log)
		if err != nil {
			return err
		}
		defer app.close()

		query := audit.AuditQuery{UserID: auditUserID, Limit: auditLimit}
		if auditSince > 0 {
			query.From = time.Now().Add(-auditSince)
		}
		entries, err := app.services.Audit.QueryLogs(cmd.Context(), query)
		if err != nil {
			return err
		}
		printAuditEntries(cmd.OutOrStdout(), entries, time.Now())
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditUserID, "user", "", "only show changes of this user ID")
	auditCmd.Flags().DurationVar(&auditSince, "since", 0, "only show changes newer than this, e.g. 24h")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 100, "maximum number of entries")
}
