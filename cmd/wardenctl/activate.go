package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warden-lab/warden/dao/model"
)

func newActivateEnforcingCmd() *cobra.Command {
	var (
		projectID string
		dryRun    bool
		rollback  bool
	)

	cmd := &cobra.Command{
		Use:   "activate-enforcing",
		Short: "Flip a project from shadow to enforcing, or roll it back",
		Long: `Activate enforcement for a project that has passed its shadow window.
The eligibility gate (minimum shadow duration, minimum transaction
volume, zero violations) is checked inside the transition; --dry-run
reports the verdict without changing anything. --rollback is the
emergency path and returns the project to pending unconditionally.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rollback {
				if err := controller.Rollback(cmd.Context(), projectID); err != nil {
					return err
				}
				fmt.Printf("project %s rolled back to pending\n", projectID)
				return nil
			}

			if dryRun {
				eligibility, err := controller.CheckEligibility(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				if eligibility.Eligible {
					fmt.Printf("project %s is eligible for enforcing\n", projectID)
					return nil
				}
				return fmt.Errorf("project %s is not eligible: %s",
					projectID, strings.Join(eligibility.Reasons, "; "))
			}

			if err := controller.Transition(cmd.Context(), projectID, model.PhaseEnforcing); err != nil {
				return err
			}
			fmt.Printf("project %s is now enforcing\n", projectID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "project ID (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "check eligibility without transitioning")
	cmd.Flags().BoolVar(&rollback, "rollback", false, "return the project to pending immediately")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
