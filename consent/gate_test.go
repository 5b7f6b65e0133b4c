package consent_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/renatrack/renatrack-client/consent"
	"github.com/renatrack/renatrack-client/csrf"
	"github.com/renatrack/renatrack-client/gateway"
	"github.com/renatrack/renatrack-client/gateway/gatewayfakes"
	"github.com/renatrack/renatrack-client/session"
	"github.com/renatrack/renatrack-client/users"
)

type gateConfig struct{}

func (gateConfig) GetRenewalInterval() time.Duration { return time.Hour }
func (gateConfig) GetActivityDebounce() time.Duration { return time.Second }
func (gateConfig) GetWatchdogInterval() time.Duration { return time.Hour }
func (gateConfig) GetFallbackSessionTTL() time.Duration { return 720 * time.Hour }

type testFixture struct {
	gw   *gatewayfakes.FakeGateway
	mgr  *session.Manager
	gate *consent.Gate
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	gw := gatewayfakes.NewFakeGateway()
	mgr, err := session.New(session.Deps{API: gw, CSRF: csrf.NewStore()}, gateConfig{})
	require.NoError(t, err)
	t.Cleanup(mgr.Close)

	gate, err := consent.NewGate(mgr)
	require.NoError(t, err)

	return &testFixture{gw: gw, mgr: mgr, gate: gate}
}

// loginPendingConsent signs in a user who has not accepted the terms.
func (f *testFixture) loginPendingConsent(t *testing.T) {
	t.Helper()
	expiry := time.Now().Add(time.Hour)
	f.gw.LoginResult = &gateway.AuthResult{
		User:      &users.User{ID: "user-1", Email: "jane.doe@example.com"},
		ExpiresAt: &expiry,
	}
	require.NoError(t, f.mgr.Login(context.Background(), "jane.doe@example.com", "password123"))
}

func TestNewGate_RequiresManager(t *testing.T) {
	_, err := consent.NewGate(nil)
	require.Error(t, err)
}

func TestGate_VisibleWhilePending(t *testing.T) {
	f := setupTestFixture(t)
	require.False(t, f.gate.Visible())

	f.loginPendingConsent(t)
	require.True(t, f.gate.Visible())
}

func TestGate_AcceptDismisses(t *testing.T) {
	f := setupTestFixture(t)
	f.loginPendingConsent(t)

	require.NoError(t, f.gate.Accept(context.Background()))
	require.False(t, f.gate.Visible())
	require.True(t, f.mgr.Snapshot().IsAuthenticated)
}

func TestGate_AcceptFailureKeepsGateVisible(t *testing.T) {
	f := setupTestFixture(t)
	f.loginPendingConsent(t)
	f.gw.AcceptTermsErr = errors.New("service unavailable")

	err := f.gate.Accept(context.Background())
	require.Error(t, err)
	require.True(t, f.gate.Visible(), "the gate must not be dismissable by a failed acceptance")
}

func TestGate_CancelForcesLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.loginPendingConsent(t)

	f.gate.Cancel(context.Background())

	require.False(t, f.gate.Visible())
	require.False(t, f.mgr.Snapshot().IsAuthenticated, "declining the terms cannot leave a session behind")
	require.Equal(t, 1, f.gw.Calls()["logout"])
}
