// Package activity turns raw user-input signals into throttled session
// keep-alive requests. A debounce window collapses bursts of signals into a
// single quiet-period callback; the rate limit on the refresh itself lives
// in the session manager, so the two layers stay independently testable.
package activity

import (
	"context"
	"sync"
	"time"

	"github.com/renatrack/renatrack-client/session"
)

// SignalKind is one of the fixed input-signal categories the monitor
// observes.
type SignalKind string

const (
	SignalPointerMove SignalKind = "pointer_move"
	SignalKeyPress    SignalKind = "key_press"
	SignalClick       SignalKind = "click"
	SignalScroll      SignalKind = "scroll"
	SignalTouchStart  SignalKind = "touch_start"
)

// Kinds lists every signal category a host should forward.
func Kinds() []SignalKind {
	return []SignalKind{SignalPointerMove, SignalKeyPress, SignalClick, SignalScroll, SignalTouchStart}
}

// Monitor debounces input signals. Each Signal resets the window; when the
// window elapses with no further signals, onQuiet fires once. The monitor
// only reacts while armed, and disarming cancels any pending window.
type Monitor struct {
	mu      sync.Mutex
	window  time.Duration
	onQuiet func()
	timer   *time.Timer
	armed   bool
}

// NewMonitor creates a monitor with the given debounce window. The monitor
// starts disarmed.
func NewMonitor(window time.Duration, onQuiet func()) *Monitor {
	return &Monitor{
		window:  window,
		onQuiet: onQuiet,
	}
}

// Arm starts reacting to signals.
func (m *Monitor) Arm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = true
}

// Disarm stops reacting to signals and cancels any pending debounce window,
// so no refresh is issued for an anonymous session.
func (m *Monitor) Disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = false
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Armed reports whether the monitor currently reacts to signals.
func (m *Monitor) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

// Signal records a user-input event, resetting the debounce window.
func (m *Monitor) Signal(kind SignalKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.armed {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.window, m.fire)
}

func (m *Monitor) fire() {
	m.mu.Lock()
	if !m.armed {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.mu.Unlock()
	m.onQuiet()
}

// ForManager wires a monitor to a session manager: quiet periods request a
// throttled session extension, and the monitor arms and disarms as the
// authenticated state comes and goes. The returned release function
// detaches from the manager and disarms the monitor.
func ForManager(mgr *session.Manager, window time.Duration) (*Monitor, func()) {
	monitor := NewMonitor(window, func() {
		mgr.ExtendSession(context.Background())
	})

	unsubscribe := mgr.Subscribe(func(st session.State) {
		if st.IsAuthenticated && !st.ShowSessionExpiredModal {
			monitor.Arm()
		} else {
			monitor.Disarm()
		}
	})

	return monitor, func() {
		unsubscribe()
		monitor.Disarm()
	}
}
