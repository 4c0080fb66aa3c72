package alert

import (
	"context"

	"github.com/build-lab/girder/pkg/event"
)

// senderInterface is what a concrete delivery channel must provide. The
// SMTP sender implements it; a chat webhook sender would too.
type senderInterface interface {
	SendMessageTo(ctx context.Context, recipient *event.Recipient, subject, body string) error
}
