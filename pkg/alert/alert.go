package alert

import (
	"context"
	"fmt"
	"sync"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/pkg/config"
	"github.com/warden-lab/warden/pkg/logutils"
)

type alertMgr struct {
	handler alertHandlerInterface
	notify  string
}

var (
	once    sync.Once
	alerter *alertMgr
)

func GetAlertMgr() AlertInterface {
	once.Do(func() {
		alerter = &alertMgr{
			handler: newSMTPAlerter(),
			notify:  config.GetConfig().SMTP.Notify,
		}
	})
	return alerter
}

func (a *alertMgr) send(ctx context.Context, subject, body string) error {
	if a.notify == "" {
		logutils.Log.Warnf("no alert receiver configured, dropping alert: %s", subject)
		return nil
	}
	return a.handler.SendMessage(ctx, a.notify, subject, body)
}

func (a *alertMgr) RollbackAlert(ctx context.Context, projectID string, from model.Phase) error {
	subject := fmt.Sprintf("[warden] project %s rolled back to pending", projectID)
	body := fmt.Sprintf("Project %s was rolled back from phase %s to pending. "+
		"Enforcement is now disabled for this project; investigate before re-advancing.", projectID, from)
	return a.send(ctx, subject, body)
}

func (a *alertMgr) ViolationAlert(ctx context.Context, projectID string, count int64) error {
	subject := fmt.Sprintf("[warden] %d shadow violations for project %s", count, projectID)
	body := fmt.Sprintf("Project %s has %d would-be denials in its shadow window. "+
		"The project cannot advance to enforcing until the count returns to zero.", projectID, count)
	return a.send(ctx, subject, body)
}

func (a *alertMgr) EligibleAlert(ctx context.Context, projectID string) error {
	subject := fmt.Sprintf("[warden] project %s is eligible for enforcing", projectID)
	body := fmt.Sprintf("Project %s has passed all shadow gate criteria and can be "+
		"advanced to enforcing with wardenctl activate-enforcing --project %s.", projectID, projectID)
	return a.send(ctx, subject, body)
}
