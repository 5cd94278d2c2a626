// wardenctl is the operator CLI for the staged rollout: it advances and
// rolls back project phases, inspects eligibility, and prints the fleet
// report. It talks to the database directly with the same controller the
// server uses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/warden-lab/warden/dao/query"
	"github.com/warden-lab/warden/pkg/config"
	"github.com/warden-lab/warden/pkg/rollout"
)

var (
	db         *gorm.DB
	controller *rollout.Controller
)

func main() {
	root := &cobra.Command{
		Use:          "wardenctl",
		Short:        "Operate the warden namespace-isolation rollout",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cfg := config.GetConfig()
			db = query.GetDB()
			controller = rollout.NewController(db, rollout.Config{
				MinShadowDays:   cfg.Rollout.MinShadowDays,
				MinTransactions: cfg.Rollout.MinTransactions,
			}, nil)
		},
	}

	root.AddCommand(
		newMigrateCmd(),
		newActivateEnforcingCmd(),
		newCheckViolationsCmd(),
		newStatusCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
