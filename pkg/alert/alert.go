// Package alert turns domain events into email notifications. Delivery is
// best-effort: failures are logged and dropped, never surfaced to the
// operation that produced the event.
package alert

import (
	"context"
	"fmt"
	"sync"

	"github.com/build-lab/girder/pkg/event"
	"github.com/build-lab/girder/pkg/logutils"
)

type alertMgr struct {
	sender senderInterface
}

var (
	once    sync.Once
	alerter *alertMgr
)

// GetAlertMgr returns the process-wide event sink backed by SMTP.
func GetAlertMgr() event.Sink {
	once.Do(func() {
		alerter = &alertMgr{sender: newSMTPSender()}
	})
	return alerter
}

// NewWithSender builds a sink over a custom delivery channel.
func NewWithSender(sender senderInterface) event.Sink {
	return &alertMgr{sender: sender}
}

func (a *alertMgr) Publish(ctx context.Context, ev event.Event) {
	subject, body := render(ev)
	for i := range ev.Recipients {
		r := &ev.Recipients[i]
		if r.Email == "" {
			logutils.Log.Warnf("event %s: recipient %s has no email address", ev.Kind, r.Name)
			continue
		}
		if err := a.sender.SendMessageTo(ctx, r, subject, body); err != nil {
			logutils.Log.Errorf("event %s: failed to notify %s: %v", ev.Kind, r.Email, err)
		}
	}
}

//nolint:gocyclo // one case per event kind
func render(ev event.Event) (subject, body string) {
	p := ev.Payload
	switch ev.Kind {
	case event.ProjectCreated:
		subject = fmt.Sprintf("Project created: %v", p["projectName"])
		body = fmt.Sprintf("Project %v has been created with a budget of %.2f.", p["projectName"], p["budget"])
	case event.ProjectStatusChanged:
		subject = fmt.Sprintf("Project status changed: %v", p["projectName"])
		body = fmt.Sprintf("Project %v moved from %v to %v.", p["projectName"], p["from"], p["to"])
	case event.ProjectApproved:
		subject = fmt.Sprintf("Project approved: %v", p["projectName"])
		body = fmt.Sprintf("All approval levels signed off. Project %v is now in progress.", p["projectName"])
	case event.ProjectDeleted:
		subject = fmt.Sprintf("Project deleted: %v", p["projectName"])
		body = fmt.Sprintf("Project %v has been deleted.", p["projectName"])
	case event.ApprovalRequested:
		subject = fmt.Sprintf("Approval requested: %v", p["projectName"])
		body = fmt.Sprintf("You are assigned as %v approver for project %v (budget %.2f).",
			p["approvalLevel"], p["projectName"], p["budget"])
	case event.ApprovalDecided:
		subject = fmt.Sprintf("Approval %v: %v", p["decision"], p["projectName"])
		body = fmt.Sprintf("An approval for project %v was recorded as %v. %v",
			p["projectName"], p["decision"], p["comments"])
	case event.BudgetExceeded:
		subject = fmt.Sprintf("Budget alert: %v", p["projectName"])
		body = fmt.Sprintf("Project %v is over budget by %.2f (%.1f%%).",
			p["projectName"], p["overBudgetAmount"], p["overBudgetPercentage"])
	case event.TaskAssigned:
		subject = fmt.Sprintf("Task assigned: %v", p["taskName"])
		body = fmt.Sprintf("You have been assigned task %v on project %v.", p["taskName"], p["projectName"])
	case event.TaskApprovalRequested:
		subject = fmt.Sprintf("Task approval requested: %v", p["taskName"])
		body = fmt.Sprintf("%v requested approval for task %v.", p["requestedBy"], p["taskName"])
	case event.TaskApprovalResponded:
		subject = fmt.Sprintf("Task approval %v: %v", p["status"], p["taskName"])
		body = fmt.Sprintf("Your approval request for task %v was %v. %v", p["taskName"], p["status"], p["comments"])
	case event.TaskDeadlineApproaching:
		subject = fmt.Sprintf("Task deadline approaching: %v", p["taskName"])
		body = fmt.Sprintf("Task %v is due at %v.", p["taskName"], p["dueDate"])
	default:
		subject = string(ev.Kind)
		body = fmt.Sprintf("%v", p)
	}
	return subject, body
}
