// Package gateway wraps the remote session service endpoints in a
// credentialed HTTP client, normalizing success and failure shapes for the
// session manager.
package gateway

import (
	"context"
	"time"

	"github.com/renatrack/renatrack-client/users"
)

// AuthResult is the normalized payload of every operation that establishes
// or validates a session. ExpiresAt is nil when the server declared no
// expiry and none could be derived from the session token.
type AuthResult struct {
	User      *users.User
	Profile   *users.Profile
	ExpiresAt *time.Time
}

// API is the session-service surface the state machine drives.
//
// Failure contract: invalid credentials surface as
// errors.ErrInvalidCredentials, a definitive 401/403 on an established
// session as errors.ErrSessionInvalid, other non-success responses as
// errors.ErrServerError. The server-supplied message, when present, is
// carried in the wrap.
type API interface {
	Me(ctx context.Context) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*AuthResult, error)
	Register(ctx context.Context, email, password, fullName string) (*AuthResult, error)
	Refresh(ctx context.Context) (*time.Time, error)
	Logout(ctx context.Context) error
	AcceptTerms(ctx context.Context) error
	CSRFToken(ctx context.Context) (string, error)
}
