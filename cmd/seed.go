package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/securenet/dyngroups/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the SecureNet demo groups and users",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(cfg, log)
		if err != nil {
			return err
		}
		defer app.close()

		result, err := service.SeedDirectory(cmd.Context(), app.services.Users, app.services.Groups, time.Now(), log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d groups and %d users.\n", result.Groups, result.Users)
		return nil
	},
}
