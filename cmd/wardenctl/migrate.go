package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warden-lab/warden/dao/model"
)

func newMigrateCmd() *cobra.Command {
	var (
		phase string
		batch []string
	)

	cmd := &cobra.Command{
		Use:   "migrate [projectID]",
		Short: "Advance one project, or a batch, to the given phase",
		Long: `Advance a project through the rollout state machine. Only the next
forward phase is accepted; skipping ahead is rejected. With --batch the
listed projects transition together: one invalid member rejects the
whole batch and no phases change. The pending target is the rollback
edge and is always permitted, from any phase.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := model.Phase(phase)
			if !target.Valid() {
				return fmt.Errorf("unknown phase %q, expected one of pending, shadow, enforcing, complete", phase)
			}

			apply := func(projectID string) error {
				if target == model.PhasePending {
					return controller.Rollback(cmd.Context(), projectID)
				}
				return controller.Transition(cmd.Context(), projectID, target)
			}

			switch {
			case len(batch) > 0 && len(args) > 0:
				return fmt.Errorf("give either a project argument or --batch, not both")
			case len(batch) > 0:
				if target == model.PhasePending {
					for _, id := range batch {
						if err := apply(id); err != nil {
							return err
						}
					}
				} else if err := controller.TransitionBatch(cmd.Context(), batch, target); err != nil {
					return err
				}
				fmt.Printf("%d projects transitioned to %s\n", len(batch), target)
			case len(args) == 1:
				if err := apply(args[0]); err != nil {
					return err
				}
				fmt.Printf("project %s transitioned to %s\n", args[0], target)
			default:
				return fmt.Errorf("a project argument or --batch is required")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&phase, "phase", "", "target phase (required)")
	cmd.Flags().StringSliceVar(&batch, "batch", nil, "comma-separated project IDs to transition together")
	_ = cmd.MarkFlagRequired("phase")
	return cmd
}
