// AngelaMos | 2026
// errors_test.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := DuplicateError("email")

	require.ErrorIs(t, err, ErrDuplicateKey)
	require.Equal(t, http.StatusBadRequest, err.Status)
	require.Equal(t, "DUPLICATE", err.Code)
	require.Equal(t, "email already exists", err.Message)

	wrapped := fmt.Errorf("handler: %w", err)
	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	require.Equal(t, "DUPLICATE", appErr.Code)
	require.True(t, IsAppError(wrapped))
	require.False(t, IsAppError(errors.New("plain")))
}

func TestTokenErrorsLookIdentical(t *testing.T) {
	expired := TokenExpiredError()
	invalid := TokenInvalidError()

	// Clients must not learn why a token was rejected.
	require.Equal(t, expired.Code, invalid.Code)
	require.Equal(t, expired.Message, invalid.Message)
	require.Equal(t, expired.Status, invalid.Status)

	require.ErrorIs(t, expired, ErrTokenExpired)
	require.ErrorIs(t, invalid, ErrTokenInvalid)
}

func TestFormatValidationError(t *testing.T) {
	type form struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
		OTP      string `validate:"required,len=6,numeric"`
	}

	v := validator.New(validator.WithRequiredStructEnabled())

	err := v.Struct(form{Email: "nope", Password: "short", OTP: "12ab56"})
	msg := FormatValidationError(err)

	require.Contains(t, msg, "email must be a valid email address")
	require.Contains(t, msg, "password must be at least 8 characters")

	require.Equal(t, "invalid request", FormatValidationError(errors.New("x")))
}
