package gatewayfakes

import (
	"context"
	"sync"
	"time"

	"github.com/renatrack/renatrack-client/gateway"
)

var _ gateway.API = (*FakeGateway)(nil)

// FakeGateway is an in-memory stand-in for the session service. Result
// fields configure the canned responses; the optional *Fn hooks take
// precedence when set, which lets tests block or sequence individual calls.
type FakeGateway struct {
	lock sync.Mutex

	MeResult       *gateway.AuthResult
	MeErr          error
	LoginResult    *gateway.AuthResult
	LoginErr       error
	GoogleResult   *gateway.AuthResult
	GoogleErr      error
	RegisterResult *gateway.AuthResult
	RegisterErr    error
	RefreshExpiry  *time.Time
	RefreshErr     error
	LogoutErr      error
	AcceptTermsErr error
	CSRFTokenValue string
	CSRFErr        error

	MeFn          func(ctx context.Context) (*gateway.AuthResult, error)
	LoginFn       func(ctx context.Context, email, password string) (*gateway.AuthResult, error)
	RefreshFn     func(ctx context.Context) (*time.Time, error)
	AcceptTermsFn func(ctx context.Context) error

	MeCalls          int
	LoginCalls       int
	GoogleCalls      int
	RegisterCalls    int
	RefreshCalls     int
	LogoutCalls      int
	AcceptTermsCalls int
	CSRFCalls        int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (f *FakeGateway) Me(ctx context.Context) (*gateway.AuthResult, error) {
	f.lock.Lock()
	f.MeCalls++
	fn, result, err := f.MeFn, f.MeResult, f.MeErr
	f.lock.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return result, err
}

func (f *FakeGateway) Login(ctx context.Context, email, password string) (*gateway.AuthResult, error) {
	f.lock.Lock()
	f.LoginCalls++
	fn, result, err := f.LoginFn, f.LoginResult, f.LoginErr
	f.lock.Unlock()

	if fn != nil {
		return fn(ctx, email, password)
	}
	return result, err
}

func (f *FakeGateway) LoginWithGoogle(ctx context.Context, idToken string) (*gateway.AuthResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.GoogleCalls++
	return f.GoogleResult, f.GoogleErr
}

func (f *FakeGateway) Register(ctx context.Context, email, password, fullName string) (*gateway.AuthResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RegisterCalls++
	return f.RegisterResult, f.RegisterErr
}

func (f *FakeGateway) Refresh(ctx context.Context) (*time.Time, error) {
	f.lock.Lock()
	f.RefreshCalls++
	fn, expiry, err := f.RefreshFn, f.RefreshExpiry, f.RefreshErr
	f.lock.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return expiry, err
}

func (f *FakeGateway) Logout(ctx context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.LogoutCalls++
	return f.LogoutErr
}

func (f *FakeGateway) AcceptTerms(ctx context.Context) error {
	f.lock.Lock()
	f.AcceptTermsCalls++
	fn, err := f.AcceptTermsFn, f.AcceptTermsErr
	f.lock.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return err
}

func (f *FakeGateway) CSRFToken(ctx context.Context) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.CSRFCalls++
	return f.CSRFTokenValue, f.CSRFErr
}

// Calls returns a snapshot of all call counters, keyed by operation name.
func (f *FakeGateway) Calls() map[string]int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return map[string]int{
		"me":          f.MeCalls,
		"login":       f.LoginCalls,
		"google":      f.GoogleCalls,
		"register":    f.RegisterCalls,
		"refresh":     f.RefreshCalls,
		"logout":      f.LogoutCalls,
		"acceptTerms": f.AcceptTermsCalls,
		"csrf":        f.CSRFCalls,
	}
}
