package alert

import (
	"context"

	"github.com/warden-lab/warden/dao/model"
)

// AlertInterface notifies operators about rollout events that deserve human
// attention: emergency rollbacks, violations observed for a shadow project,
// and projects becoming eligible for enforcing.
type AlertInterface interface {
	RollbackAlert(ctx context.Context, projectID string, from model.Phase) error
	ViolationAlert(ctx context.Context, projectID string, count int64) error
	EligibleAlert(ctx context.Context, projectID string) error
}

// alertHandlerInterface is the transport behind the alert manager; SMTP is
// the only implementation today.
type alertHandlerInterface interface {
	SendMessage(ctx context.Context, receiver, subject, body string) error
}
