package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	"github.com/oksasatya/go-user-identity/internal/domain/errs"
	repo "github.com/oksasatya/go-user-identity/internal/domain/repository"
)

// LoginInput is one login attempt. Type selects the verification path:
// the default type checks Password, federated types check ExternalID.
type LoginInput struct {
	Email      string
	Password   string
	Type       entity.RegisterType
	ExternalID string
}

// AuthService decides whether a login attempt matches a stored user.
// Every failure returns errs.ErrInvalidCredentials so callers cannot tell an
// unknown email from a wrong secret.
type AuthService struct {
	Repo   repo.UserRepository
	Cipher PasswordCipher
	Logger *logrus.Logger

	dummy string
}

func NewAuthService(r repo.UserRepository, c PasswordCipher, logger *logrus.Logger) *AuthService {
	s := &AuthService{Repo: r, Cipher: c, Logger: logger}
	// compared against when the email is unknown so both failure paths decrypt once
	if d, err := c.Encrypt("not-a-real-password"); err == nil {
		s.dummy = d
	}
	return s
}

// Authenticate returns the stored user when the credentials match.
func (s *AuthService) Authenticate(ctx context.Context, in LoginInput) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, in.Email)
	if err != nil || u == nil {
		if err != nil && !errors.Is(err, errs.ErrNotFound) && s.Logger != nil {
			s.Logger.WithError(err).Warn("login lookup failed")
		}
		s.Cipher.Check(in.Password, s.dummy)
		return nil, errs.ErrInvalidCredentials
	}

	switch {
	case in.Type.IsDefault():
		if !s.Cipher.Check(in.Password, u.Password) {
			return nil, errs.ErrInvalidCredentials
		}
	case in.Type.IsFederated():
		if in.ExternalID == "" || u.ExternalID != in.ExternalID {
			return nil, errs.ErrInvalidCredentials
		}
	default:
		return nil, errs.ErrInvalidCredentials
	}
	return u, nil
}
