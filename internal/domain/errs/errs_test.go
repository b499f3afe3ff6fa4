package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same sentinel", ErrDuplicatedEmail, ErrDuplicatedEmail, true},
		{"kind sentinel matches specific", ErrDuplicatedEmail, ErrValidation, true},
		{"different reason same kind", ErrDuplicatedEmail, ErrDuplicatedRegister, false},
		{"different kind", ErrInvalidCredentials, ErrValidation, false},
		{"wrapped", fmt.Errorf("create user: %w", ErrDuplicatedRegister), ErrDuplicatedRegister, true},
		{"plain error", errors.New("boom"), ErrValidation, false},
		{"not found kind", ErrUserNotFound, ErrNotFound, true},
		{"api kind", ErrRollbackExpired, ErrAPI, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindAuth, KindOf(ErrInvalidCredentials))
	assert.Equal(t, KindValidation, KindOf(fmt.Errorf("wrap: %w", ErrInvalidPassword)))
	assert.Equal(t, Kind(""), KindOf(errors.New("other")))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "rollback expired", ErrRollbackExpired.Error())
	assert.Equal(t, "ValidationError", ErrValidation.Error())
}
