package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	mailtpl "github.com/oksasatya/go-user-identity/pkg/mailer/templates"
)

// EventMailer turns queued user events into emails.
type EventMailer struct {
	Sender Sender
	Brand  mailtpl.Branding
	Logger *logrus.Logger
}

// Handle processes one message body. requeue is true only for delivery
// failures; malformed or unrenderable messages are dropped.
func (m *EventMailer) Handle(ctx context.Context, body []byte) (requeue bool, err error) {
	var evt entity.UserEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return false, fmt.Errorf("decode user event: %w", err)
	}

	job, ok := JobForEvent(evt, m.Brand)
	if !ok {
		if m.Logger != nil {
			m.Logger.WithFields(logrus.Fields{"type": evt.Type, "user_id": evt.UserID}).Debug("no email for event")
		}
		return false, nil
	}

	subject, text, html, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return false, fmt.Errorf("render %s: %w", job.Template, err)
	}
	if err := m.Sender.Send(ctx, job.To, subject, text, html); err != nil {
		return true, fmt.Errorf("send %s: %w", job.Template, err)
	}
	if m.Logger != nil {
		m.Logger.WithFields(logrus.Fields{"template": job.Template, "user_id": evt.UserID}).Info("email sent")
	}
	return false, nil
}
