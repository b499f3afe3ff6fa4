package mailer

import (
	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	mailtpl "github.com/oksasatya/go-user-identity/pkg/mailer/templates"
)

// EmailJob is one rendered-on-demand email derived from a user event.
type EmailJob struct {
	To       string         `json:"to"`
	Template string         `json:"template"` // "welcome", "profile_updated", "account_removed"
	Data     map[string]any `json:"data,omitempty"`
}

var eventTemplates = map[entity.UserEventType]string{
	entity.EventUserRegistered: mailtpl.Welcome,
	entity.EventUserUpdated:    mailtpl.ProfileUpdated,
	entity.EventUserRemoved:    mailtpl.AccountRemoved,
}

// JobForEvent maps a user event to an email. Events without a template
// (rollbacks) and events without an address yield ok=false.
func JobForEvent(evt entity.UserEvent, brand mailtpl.Branding) (EmailJob, bool) {
	name, ok := eventTemplates[evt.Type]
	if !ok || evt.Email == "" {
		return EmailJob{}, false
	}
	data := mailtpl.NewEmailData(brand, name, evt.Name, evt.Email,
		mailtpl.WithTime(evt.OccurredAt),
		mailtpl.WithRegisterType(string(evt.RegisterType)),
	)
	return EmailJob{To: evt.Email, Template: name, Data: mailtpl.ToMap(data)}, true
}
