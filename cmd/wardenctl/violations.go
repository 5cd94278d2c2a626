package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/warden-lab/warden/dao/model"
)

func newCheckViolationsCmd() *cobra.Command {
	var (
		projectID        string
		checkEligibility bool
		limit            int
	)

	cmd := &cobra.Command{
		Use:   "check-violations",
		Short: "List would-be denials recorded for a project in shadow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var logs []model.AuditLog
			err := db.WithContext(cmd.Context()).
				Where("caller_project_id = ? AND would_be_denied = ?", projectID, true).
				Order("logged_at DESC").
				Limit(limit).
				Find(&logs).Error
			if err != nil {
				return err
			}

			if len(logs) == 0 {
				fmt.Printf("project %s has no recorded violations\n", projectID)
			} else {
				fmt.Printf("project %s: %d most recent violations\n", projectID, len(logs))
				for _, l := range logs {
					fmt.Printf("  %s  %-8s %-12s owner=%s identity=%s\n",
						l.LoggedAt.Format(time.RFC3339), l.Operation,
						l.CollectionName, l.RowOwnerProjectID, l.ActingIdentity)
				}
			}

			if checkEligibility {
				eligibility, err := controller.CheckEligibility(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				if eligibility.Eligible {
					fmt.Println("eligibility: ready for enforcing")
					return nil
				}
				return fmt.Errorf("eligibility: not ready: %s", strings.Join(eligibility.Reasons, "; "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "project ID (required)")
	cmd.Flags().BoolVar(&checkEligibility, "check-eligibility", false, "also evaluate the enforcing gate")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum violations to list")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
