package alert

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/build-lab/girder/pkg/event"
)

type captureSender struct {
	to       []string
	subjects []string
	bodies   []string
	err      error
}

func (s *captureSender) SendMessageTo(_ context.Context, recipient *event.Recipient, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.to = append(s.to, recipient.Email)
	s.subjects = append(s.subjects, subject)
	s.bodies = append(s.bodies, body)
	return nil
}

func TestPublishSendsToEveryRecipient(t *testing.T) {
	sender := &captureSender{}
	sink := NewWithSender(sender)

	sink.Publish(context.Background(), event.New(event.BudgetExceeded,
		[]event.Recipient{
			{Name: "manager", Email: "manager@example.com"},
			{Name: "client", Email: "client@example.com"},
		},
		map[string]any{
			"projectName":          "depot",
			"overBudgetAmount":     25_000.0,
			"overBudgetPercentage": 25.0,
		}))

	require.Len(t, sender.to, 2)
	assert.Equal(t, []string{"manager@example.com", "client@example.com"}, sender.to)
	assert.Equal(t, "Budget alert: depot", sender.subjects[0])
	assert.Contains(t, sender.bodies[0], "over budget by 25000.00")
	assert.Contains(t, sender.bodies[0], "25.0%")
}

func TestPublishSkipsRecipientsWithoutEmail(t *testing.T) {
	sender := &captureSender{}
	sink := NewWithSender(sender)

	sink.Publish(context.Background(), event.New(event.ProjectDeleted,
		[]event.Recipient{
			{Name: "ghost"},
			{Name: "client", Email: "client@example.com"},
		},
		map[string]any{"projectName": "depot"}))

	assert.Equal(t, []string{"client@example.com"}, sender.to)
}

func TestPublishSwallowsSendFailures(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	sink := NewWithSender(sender)

	// Must not panic or surface the error anywhere.
	sink.Publish(context.Background(), event.New(event.ProjectApproved,
		[]event.Recipient{{Name: "client", Email: "client@example.com"}},
		map[string]any{"projectName": "depot"}))
	assert.Empty(t, sender.to)
}

func TestRenderApprovalRequested(t *testing.T) {
	subject, body := render(event.New(event.ApprovalRequested, nil, map[string]any{
		"projectName":   "stadium",
		"budget":        1_500_000.0,
		"approvalLevel": "Senior Director",
	}))
	assert.Equal(t, "Approval requested: stadium", subject)
	assert.Contains(t, body, "Senior Director")
	assert.Contains(t, body, "1500000.00")
}
