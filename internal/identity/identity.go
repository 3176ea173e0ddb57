package identity

import (
	"context"
	"errors"
	"fmt"
)

// Identity is the stable external user produced by a verified token.
type Identity struct {
	// Subject is the provider's stable unique id for the user.
	Subject string
	Name    string
	Email   string
}

// Verifier validates an opaque identity token and resolves it to an Identity.
// Implementations must be side-effect-free: verification never touches canvas
// state and a failure only affects the session that presented the token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Auth error kinds.
var (
	// ErrInvalidToken means the token failed verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingConfig means the verifier is not configured (no audience/secret).
	ErrMissingConfig = errors.New("verifier not configured")
)

// AuthError wraps a verification failure with its kind.
type AuthError struct {
	Kind error
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Err.Error())
}

func (e *AuthError) Unwrap() error { return e.Kind }

func invalidToken(err error) *AuthError {
	return &AuthError{Kind: ErrInvalidToken, Err: err}
}
