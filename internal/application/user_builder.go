package application

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	"github.com/oksasatya/go-user-identity/internal/domain/errs"
	repo "github.com/oksasatya/go-user-identity/internal/domain/repository"
)

// PasswordCipher is the reversible transform applied to stored passwords.
type PasswordCipher interface {
	Encrypt(plain string) (string, error)
	Decrypt(encrypted string) (string, error)
	Check(candidate, encrypted string) bool
}

// UserBuilder accumulates proposed user fields and validates them on Build.
// Setters never fail and return the builder so calls can be chained.
// A builder with an id set describes an update of that user.
type UserBuilder struct {
	repo   repo.UserRepository
	cipher PasswordCipher

	id                string
	name              string
	email             string
	password          string
	passwordEncrypted bool
	register          string
	birthDate         *time.Time
	registerType      entity.RegisterType
	externalID        string
	active            bool
	activeSet         bool
}

func NewUserBuilder(r repo.UserRepository, c PasswordCipher) *UserBuilder {
	return &UserBuilder{repo: r, cipher: c}
}

func (b *UserBuilder) SetID(id string) *UserBuilder {
	b.id = id
	return b
}

func (b *UserBuilder) SetName(name string) *UserBuilder {
	b.name = name
	return b
}

func (b *UserBuilder) SetEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// SetPassword sets a clear-text password; Build encrypts it.
func (b *UserBuilder) SetPassword(password string) *UserBuilder {
	b.password = password
	b.passwordEncrypted = false
	return b
}

// SetEncryptedPassword re-supplies a stored ciphertext that Build keeps as is.
func (b *UserBuilder) SetEncryptedPassword(encrypted string) *UserBuilder {
	b.password = encrypted
	b.passwordEncrypted = true
	return b
}

func (b *UserBuilder) SetRegister(register string) *UserBuilder {
	b.register = register
	return b
}

func (b *UserBuilder) SetBirthDate(birthDate *time.Time) *UserBuilder {
	b.birthDate = birthDate
	return b
}

func (b *UserBuilder) SetRegisterType(t entity.RegisterType) *UserBuilder {
	b.registerType = t
	return b
}

func (b *UserBuilder) SetExternalID(externalID string) *UserBuilder {
	b.externalID = externalID
	return b
}

func (b *UserBuilder) SetActive(active bool) *UserBuilder {
	b.active = active
	b.activeSet = true
	return b
}

// Build validates the pending state and assembles a persistence-ready user.
// Checks run in a fixed order: register type, password, external id, email
// uniqueness, register uniqueness.
func (b *UserBuilder) Build(ctx context.Context) (*entity.User, error) {
	if !b.registerType.IsKnown() {
		return nil, errs.ErrInvalidRegisterType
	}
	isDefault := b.registerType.IsDefault()

	if isDefault && b.password == "" {
		return nil, errs.ErrInvalidPassword
	}
	if b.registerType.IsFederated() && b.externalID == "" {
		return nil, errs.ErrInvalidExternalID
	}

	if b.email != "" {
		if err := b.ensureUnique(ctx, b.repo.GetByEmail, b.email, errs.ErrDuplicatedEmail); err != nil {
			return nil, err
		}
	}
	if b.register != "" {
		if err := b.ensureUnique(ctx, b.repo.GetByRegister, b.register, errs.ErrDuplicatedRegister); err != nil {
			return nil, err
		}
	}

	var password string
	if isDefault {
		password = b.password
		if !b.passwordEncrypted {
			enc, err := b.cipher.Encrypt(b.password)
			if err != nil {
				return nil, err
			}
			password = enc
		}
	}

	registerType := b.registerType
	if registerType == "" {
		registerType = entity.RegisterTypeDefault
	}
	active := true
	if b.activeSet {
		active = b.active
	}

	return &entity.User{
		ID:           b.id,
		Name:         b.name,
		Email:        b.email,
		Password:     password,
		Register:     b.register,
		RegisterType: registerType,
		ExternalID:   b.externalID,
		BirthDate:    b.birthDate,
		Active:       active,
	}, nil
}

// ensureUnique fails with dup when lookup finds a user other than the one being built.
func (b *UserBuilder) ensureUnique(ctx context.Context, lookup func(context.Context, string) (*entity.User, error), value string, dup error) error {
	existing, err := lookup(ctx, value)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if b.id == "" || existing.ID != b.id {
		return dup
	}
	return nil
}
