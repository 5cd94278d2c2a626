package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warden-lab/warden/dao/model"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status [projectID...]",
		Aliases: []string{"report"},
		Short:   "Print the rollout report for the fleet or named projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := controller.Report(cmd.Context(), args...)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROJECT\tPHASE\tSINCE\tTRANSACTIONS\tVIOLATIONS\tELIGIBLE\tREASONS")
			for _, s := range summaries {
				eligible := "-"
				if s.Phase == model.PhaseShadow {
					eligible = fmt.Sprintf("%t", s.Eligible)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					s.ProjectID, s.Phase, s.PhaseEnteredAt.Format("2006-01-02"),
					s.Transactions, s.Violations, eligible, strings.Join(s.Reasons, "; "))
			}
			return w.Flush()
		},
	}
	return cmd
}
