// Package session holds the client-side authentication session lifecycle:
// a state machine over the remote session service, an expiry watchdog, and
// the throttled keep-alive refresh driven by user activity.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/renatrack/renatrack-client/csrf"
	"github.com/renatrack/renatrack-client/events"
	"github.com/renatrack/renatrack-client/gateway"
	"github.com/renatrack/renatrack-client/internal/config"
	apperrors "github.com/renatrack/renatrack-client/internal/errors"
	"github.com/renatrack/renatrack-client/users"
)

// State is the observable session aggregate.
//
// Invariants: IsAuthenticated implies User != nil; ShowConsentModal implies
// User != nil with HasAcceptedTerms == false; SessionExpiresAt never moves
// backwards while authenticated.
type State struct {
	IsAuthenticated         bool
	IsLoading               bool
	User                    *users.User
	Profile                 *users.Profile
	SessionExpiresAt        *time.Time
	ShowSessionExpiredModal bool
	ShowConsentModal        bool
}

// HintStore persists the "might be logged in" marker consulted before the
// silent startup validation. The marker is a hint, not an authority: its
// absence does not imply unauthenticated.
type HintStore interface {
	SetLoginHint(loggedIn bool) error
	LoginHint() bool
}

// Deps holds the manager's collaborators. API and CSRF are required; Hints
// and Bus are optional.
type Deps struct {
	API   gateway.API
	CSRF  *csrf.Store
	Hints HintStore
	Bus   *events.Bus
}

// Manager is the session state machine. All state transitions funnel
// through it; async continuations carry a generation captured at dispatch
// and are discarded when the state has moved on underneath them.
type Manager struct {
	deps    Deps
	cfg     config.SessionConfig
	log     zerolog.Logger
	nowTime func() time.Time

	mu           sync.Mutex
	state        State
	generation   uint64
	refresh      *rate.Limiter
	watchdogStop chan struct{}
	subs         map[int]func(State)
	nextSub      int

	unsubscribeBus func()
}

// Option defines a function type to modify the Manager instance.
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithLogger sets the manager logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// New initializes the session manager with required dependencies.
func New(deps Deps, cfg config.SessionConfig, options ...Option) (*Manager, error) {
	if deps.API == nil {
		return nil, errors.New("[session.New] API gateway is required")
	}
	if deps.CSRF == nil {
		return nil, errors.New("[session.New] CSRF store is required")
	}
	if cfg == nil {
		return nil, errors.New("[session.New] session config is required")
	}

	m := &Manager{
		deps:    deps,
		cfg:     cfg,
		log:     zerolog.Nop(),
		nowTime: time.Now,
		subs:    make(map[int]func(State)),
		refresh: rate.NewLimiter(rate.Every(cfg.GetRenewalInterval()), 1),
	}

	for _, opt := range options {
		opt(m)
	}

	if deps.Bus != nil {
		m.unsubscribeBus = deps.Bus.SubscribeSessionExpired(m.sessionInvalidated)
	}

	return m, nil
}

// Close stops the watchdog and detaches the manager from the event bus.
func (m *Manager) Close() {
	if m.unsubscribeBus != nil {
		m.unsubscribeBus()
	}
	m.mu.Lock()
	m.disarmWatchdogLocked()
	m.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers a state observer. The current state is delivered
// immediately; subsequent transitions are delivered after they commit. The
// returned function unsubscribes.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	st := m.snapshotLocked()
	m.mu.Unlock()

	fn(st)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// ValidateOnStartup runs the conditional silent validation: the remote call
// is only attempted when the persisted login hint says a session might
// exist, so anonymous users never pay for a doomed validation.
func (m *Manager) ValidateOnStartup(ctx context.Context) bool {
	if m.deps.Hints != nil && !m.deps.Hints.LoginHint() {
		return false
	}
	return m.ValidateSession(ctx)
}

// ValidateSession asks the service who the current credentials belong to.
// It fails closed: any error, including a network failure, lands in the
// unauthenticated defaults. It never returns an error.
func (m *Manager) ValidateSession(ctx context.Context) bool {
	gen := m.beginLoading()

	result, err := m.deps.API.Me(ctx)
	if err != nil || result == nil || result.User == nil {
		if err != nil {
			m.log.Debug().Err(err).Msg("session validation failed")
		}
		m.failClosed(gen)
		return false
	}

	m.applyAuth(gen, result, authApply{persistHint: true})
	return true
}

// Login authenticates with email and password. Rejections propagate to the
// caller carrying the server message; errors.Is against
// ErrInvalidCredentials distinguishes bad credentials from other failures.
// State is not mutated on failure.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	gen := m.beginLoading()

	result, err := m.deps.API.Login(ctx, email, password)
	if err != nil {
		m.clearLoading(gen)
		return errors.Wrap(err, "[Manager.Login] login")
	}
	if result == nil || result.User == nil {
		m.clearLoading(gen)
		return errors.Wrap(apperrors.ErrMalformedResponse, "[Manager.Login] empty login result")
	}

	m.applyAuth(gen, result, authApply{resetThrottle: true, persistHint: true})
	return nil
}

// LoginWithGoogle authenticates with a verified Google ID token. Same
// contract as Login.
func (m *Manager) LoginWithGoogle(ctx context.Context, idToken string) error {
	gen := m.beginLoading()

	result, err := m.deps.API.LoginWithGoogle(ctx, idToken)
	if err != nil {
		m.clearLoading(gen)
		return errors.Wrap(err, "[Manager.LoginWithGoogle] loginWithGoogle")
	}
	if result == nil || result.User == nil {
		m.clearLoading(gen)
		return errors.Wrap(apperrors.ErrMalformedResponse, "[Manager.LoginWithGoogle] empty login result")
	}

	m.applyAuth(gen, result, authApply{resetThrottle: true, persistHint: true})
	return nil
}

// Register creates the account and then opens a session with the same
// credentials. When the second step fails the registration still stands:
// the registration response's user and profile are used as a fallback and a
// warning is logged. New registrations always start at the consent gate.
func (m *Manager) Register(ctx context.Context, email, password, fullName string) error {
	gen := m.beginLoading()

	registered, err := m.deps.API.Register(ctx, email, password, fullName)
	if err != nil {
		m.clearLoading(gen)
		return errors.Wrap(err, "[Manager.Register] register")
	}
	if registered == nil || registered.User == nil {
		m.clearLoading(gen)
		return errors.Wrap(apperrors.ErrMalformedResponse, "[Manager.Register] empty registration result")
	}

	result, err := m.deps.API.Login(ctx, email, password)
	if err != nil || result == nil || result.User == nil {
		m.log.Warn().Err(err).Msg("post-registration login failed, using registration response")
		result = registered
	}

	m.applyAuth(gen, result, authApply{forceConsent: true, resetThrottle: true, persistHint: true})
	return nil
}

// Logout ends the session. The remote call is best-effort; local state, the
// CSRF token, and the login hint are cleared unconditionally. Idempotent.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.deps.API.Logout(ctx); err != nil {
		m.log.Debug().Err(err).Msg("remote logout failed")
	}
	m.reset()
}

// ExtendSession performs a throttled server-side refresh: at most one
// attempt proceeds per renewal interval, extra calls are no-ops. Failures
// are never surfaced to the caller. A definitive auth rejection flips the
// expired modal immediately instead of waiting for the watchdog; anything
// else is logged and left for the next cycle.
func (m *Manager) ExtendSession(ctx context.Context) {
	m.mu.Lock()
	if !m.state.IsAuthenticated || m.state.ShowSessionExpiredModal {
		m.mu.Unlock()
		return
	}
	if !m.refresh.Allow() {
		m.mu.Unlock()
		return
	}
	gen := m.generation
	m.mu.Unlock()

	expiresAt, err := m.deps.API.Refresh(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrSessionInvalid) {
			m.expire(gen)
			return
		}
		m.log.Warn().Err(err).Msg("session refresh failed")
		return
	}

	m.applyRefresh(gen, expiresAt)
}

// AcceptTerms records the consent acknowledgment. Failure propagates to the
// caller: accepting terms is a legal action that must not silently fail.
func (m *Manager) AcceptTerms(ctx context.Context) error {
	m.mu.Lock()
	if !m.state.IsAuthenticated || m.state.User == nil {
		m.mu.Unlock()
		return errors.Wrap(apperrors.ErrUnauthenticated, "[Manager.AcceptTerms] no active session")
	}
	gen := m.generation
	m.mu.Unlock()

	if err := m.deps.API.AcceptTerms(ctx); err != nil {
		return errors.Wrap(err, "[Manager.AcceptTerms] acceptTerms")
	}

	now := m.nowTime()
	m.mu.Lock()
	if gen != m.generation || m.state.User == nil {
		m.mu.Unlock()
		return nil
	}
	m.state.User.HasAcceptedTerms = true
	m.state.User.TermsAcceptedAt = &now
	m.state.ShowConsentModal = false
	m.mu.Unlock()
	m.notify()
	return nil
}

// DismissSessionModal acknowledges the expired-session modal and resets to
// the unauthenticated defaults. No remote logout is issued: the remote
// session is already presumed invalid.
func (m *Manager) DismissSessionModal() {
	m.reset()
}

// UpdateProfile shallow-merges a partial profile update into the current
// profile. No-op while unauthenticated.
func (m *Manager) UpdateProfile(patch users.ProfilePatch) {
	m.mu.Lock()
	if !m.state.IsAuthenticated {
		m.mu.Unlock()
		return
	}
	base := users.Profile{}
	if m.state.Profile != nil {
		base = *m.state.Profile
	}
	merged := base.Merged(patch)
	m.state.Profile = &merged
	m.mu.Unlock()
	m.notify()
}

// CheckExpiry is the watchdog tick body: it compares the tracked expiry
// against the clock and triggers the expired transition when passed. The
// built-in ticker calls it on the configured interval; hosts driving their
// own loop can call it directly. Idempotent after expiry.
func (m *Manager) CheckExpiry() {
	m.mu.Lock()
	if !m.state.IsAuthenticated || m.state.ShowSessionExpiredModal || m.state.SessionExpiresAt == nil {
		m.mu.Unlock()
		return
	}
	expired := !m.nowTime().Before(*m.state.SessionExpiresAt)
	gen := m.generation
	m.mu.Unlock()

	if expired {
		m.expire(gen)
	}
}

// --- internals ---

type authApply struct {
	forceConsent  bool
	resetThrottle bool
	persistHint   bool
}

func (m *Manager) beginLoading() uint64 {
	m.mu.Lock()
	m.state.IsLoading = true
	gen := m.generation
	m.mu.Unlock()
	m.notify()
	return gen
}

func (m *Manager) clearLoading(gen uint64) {
	m.mu.Lock()
	if gen == m.generation {
		m.state.IsLoading = false
	}
	m.mu.Unlock()
	m.notify()
}

// failClosed resets in-memory state after a failed validation. The login
// hint and CSRF token are left alone: only logout and expiry dismissal
// clear those.
func (m *Manager) failClosed(gen uint64) {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.state = State{}
	m.generation++
	m.disarmWatchdogLocked()
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) applyAuth(gen uint64, result *gateway.AuthResult, opts authApply) {
	now := m.nowTime()
	expiresAt := result.ExpiresAt
	if expiresAt == nil {
		fallback := now.Add(m.cfg.GetFallbackSessionTTL())
		expiresAt = &fallback
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.generation++ // supersede continuations dispatched before this auth
	newGen := m.generation

	user := *result.User
	expiry := *expiresAt
	m.state = State{
		IsAuthenticated:  true,
		User:             &user,
		Profile:          copyProfile(result.Profile),
		SessionExpiresAt: &expiry,
		ShowConsentModal: opts.forceConsent || !user.HasAcceptedTerms,
	}
	if opts.resetThrottle {
		m.resetThrottleLocked()
	}
	m.armWatchdogLocked()
	m.mu.Unlock()
	m.notify()

	if opts.persistHint && m.deps.Hints != nil {
		if err := m.deps.Hints.SetLoginHint(true); err != nil {
			m.log.Warn().Err(err).Msg("persisting login hint failed")
		}
	}

	go m.fetchCSRF(newGen)
}

func (m *Manager) applyRefresh(gen uint64, expiresAt *time.Time) {
	m.mu.Lock()
	if gen != m.generation || !m.state.IsAuthenticated {
		m.mu.Unlock()
		return
	}
	changed := false
	if expiresAt != nil {
		cur := m.state.SessionExpiresAt
		if cur == nil || expiresAt.After(*cur) { // expiry never regresses
			expiry := *expiresAt
			m.state.SessionExpiresAt = &expiry
			changed = true
		}
	}
	m.mu.Unlock()
	if changed {
		m.notify()
	}
}

// expire flips the expired-modal substate exactly once. The user record is
// kept so the modal can address the user; DismissSessionModal clears it.
func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || !m.state.IsAuthenticated || m.state.ShowSessionExpiredModal {
		m.mu.Unlock()
		return
	}
	m.state.ShowSessionExpiredModal = true
	m.mu.Unlock()
	m.notify()
}

// sessionInvalidated is the event-driven expiry path: some other API caller
// received a definitive auth failure.
func (m *Manager) sessionInvalidated() {
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()
	m.expire(gen)
}

func (m *Manager) reset() {
	m.mu.Lock()
	m.state = State{}
	m.generation++
	m.disarmWatchdogLocked()
	m.mu.Unlock()

	m.deps.CSRF.Clear()
	if m.deps.Hints != nil {
		if err := m.deps.Hints.SetLoginHint(false); err != nil {
			m.log.Warn().Err(err).Msg("clearing login hint failed")
		}
	}
	m.notify()
}

// fetchCSRF refreshes the anti-forgery token after an auth success. Best
// effort: failure is logged, never surfaced. The generation check discards
// the token when the session moved on while the fetch was in flight.
func (m *Manager) fetchCSRF(gen uint64) {
	token, err := m.deps.API.CSRFToken(context.Background())
	if err != nil {
		m.log.Warn().Err(err).Msg("csrf token fetch failed")
		return
	}

	m.mu.Lock()
	relevant := gen == m.generation && m.state.IsAuthenticated
	m.mu.Unlock()
	if relevant {
		m.deps.CSRF.Set(token)
	}
}

func (m *Manager) resetThrottleLocked() {
	m.refresh = rate.NewLimiter(rate.Every(m.cfg.GetRenewalInterval()), 1)
	m.refresh.Allow() // drain so a fresh session is not immediately re-refreshed
}

func (m *Manager) armWatchdogLocked() {
	if m.watchdogStop != nil {
		return
	}
	stop := make(chan struct{})
	m.watchdogStop = stop
	interval := m.cfg.GetWatchdogInterval()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.CheckExpiry()
			}
		}
	}()
}

func (m *Manager) disarmWatchdogLocked() {
	if m.watchdogStop == nil {
		return
	}
	close(m.watchdogStop)
	m.watchdogStop = nil
}

func (m *Manager) snapshotLocked() State {
	st := m.state
	if st.User != nil {
		user := *st.User
		st.User = &user
	}
	if st.Profile != nil {
		profile := *st.Profile
		st.Profile = &profile
	}
	if st.SessionExpiresAt != nil {
		expiry := *st.SessionExpiresAt
		st.SessionExpiresAt = &expiry
	}
	return st
}

func (m *Manager) notify() {
	m.mu.Lock()
	st := m.snapshotLocked()
	fns := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func copyProfile(p *users.Profile) *users.Profile {
	if p == nil {
		return nil
	}
	profile := *p
	return &profile
}
