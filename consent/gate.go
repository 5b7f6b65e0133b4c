// Package consent implements the blocking terms-acknowledgment gate. A user
// whose record carries hasAcceptedTerms == false cannot proceed past the
// gate: the only exits are a successful acceptance or a forced logout.
package consent

import (
	"context"

	"github.com/pkg/errors"

	"github.com/renatrack/renatrack-client/session"
)

// Gate drives the consent surface off the session state machine's
// ShowConsentModal flag. The host renders a blocking modal while Visible
// and routes the user's choice to Accept or Cancel.
type Gate struct {
	mgr *session.Manager
}

func NewGate(mgr *session.Manager) (*Gate, error) {
	if mgr == nil {
		return nil, errors.New("[consent.NewGate] session manager is required")
	}
	return &Gate{mgr: mgr}, nil
}

// Visible reports whether the gate must be shown.
func (g *Gate) Visible() bool {
	return g.mgr.Snapshot().ShowConsentModal
}

// Accept records the acknowledgment. On failure the gate stays visible and
// the error is returned for inline display.
func (g *Gate) Accept(ctx context.Context) error {
	if err := g.mgr.AcceptTerms(ctx); err != nil {
		return errors.Wrap(err, "[Gate.Accept] acceptTerms")
	}
	return nil
}

// Cancel rejects the notice. A user who will not accept terms cannot retain
// a session, so cancellation forces a logout unconditionally.
func (g *Gate) Cancel(ctx context.Context) {
	g.mgr.Logout(ctx)
}
