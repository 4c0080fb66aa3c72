// Package event defines the domain events emitted by the business engines
// and the sink they are published to. Engines never talk to the mail layer
// directly: they publish events and move on, so a notification failure can
// never fail the triggering operation.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	ProjectCreated          Kind = "project.created"
	ProjectStatusChanged    Kind = "project.status_changed"
	ProjectApproved         Kind = "project.approved"
	ProjectDeleted          Kind = "project.deleted"
	ApprovalRequested       Kind = "approval.requested"
	ApprovalDecided         Kind = "approval.decided"
	BudgetExceeded          Kind = "project.budget_exceeded"
	TaskAssigned            Kind = "task.assigned"
	TaskApprovalRequested   Kind = "task.approval_requested"
	TaskApprovalResponded   Kind = "task.approval_responded"
	TaskDeadlineApproaching Kind = "task.deadline_approaching"
)

// Event is a single domain event. Recipients carry the resolved email
// addresses so the sink does not need to query the database again.
type Event struct {
	ID         string
	Kind       Kind
	OccurredAt time.Time
	Recipients []Recipient
	// Payload holds kind-specific template data, e.g. project name,
	// decision, overBudgetAmount.
	Payload map[string]any
}

type Recipient struct {
	Name  string
	Email string
}

// Sink consumes events. Publish has no error return: delivery is
// best-effort and implementations own their log-and-drop policy.
type Sink interface {
	Publish(ctx context.Context, ev Event)
}

// New builds an event with a fresh ID and timestamp.
func New(kind Kind, recipients []Recipient, payload map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		OccurredAt: time.Now(),
		Recipients: recipients,
		Payload:    payload,
	}
}

// Discard is a Sink that drops every event. Useful as a default.
type Discard struct{}

func (Discard) Publish(_ context.Context, _ Event) {}

// Recorder is a Sink that remembers events, for tests.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) {
	r.Events = append(r.Events, ev)
}

// ByKind returns the recorded events of the given kind.
func (r *Recorder) ByKind(kind Kind) []Event {
	var out []Event
	for _, ev := range r.Events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
