package entity

import (
	"time"
)

// RegisterType tells how a user authenticates.
type RegisterType string

const (
	RegisterTypeDefault  RegisterType = "default"
	RegisterTypeFacebook RegisterType = "facebook"
	RegisterTypeGoogle   RegisterType = "google"
)

// FederatedTypes lists the external identity providers accepted at registration.
var FederatedTypes = []RegisterType{RegisterTypeFacebook, RegisterTypeGoogle}

// IsDefault reports whether t is the password-based type. An unset type counts as default.
func (t RegisterType) IsDefault() bool {
	return t == "" || t == RegisterTypeDefault
}

// IsFederated reports whether t is one of the known external providers.
func (t RegisterType) IsFederated() bool {
	for _, f := range FederatedTypes {
		if t == f {
			return true
		}
	}
	return false
}

// IsKnown reports whether t is default or federated.
func (t RegisterType) IsKnown() bool {
	return t.IsDefault() || t.IsFederated()
}

// User is the aggregate root for the user domain.
// Password holds the cipher output, never clear text, and is empty for
// federated accounts. Register, ExternalID and BirthDate are optional.
type User struct {
	ID           string
	Name         string
	Email        string
	Password     string
	Register     string
	RegisterType RegisterType
	ExternalID   string
	BirthDate    *time.Time
	AvatarURL    string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsNew reports whether the user has not been persisted yet.
func (u *User) IsNew() bool { return u.ID == "" }
