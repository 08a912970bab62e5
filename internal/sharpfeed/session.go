package sharpfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionState tracks the auth lifecycle of the sharp feed session.
type SessionState string

const (
	StateUnauthenticated SessionState = "UNAUTHENTICATED"
	StateAuthenticating  SessionState = "AUTHENTICATING"
	StateAuthenticated   SessionState = "AUTHENTICATED"
	StateExpired         SessionState = "EXPIRED"
	StateInvalidated     SessionState = "INVALIDATED"
)

// Session is the credential set installed by a completed handshake.
type Session struct {
	Token      string
	Key        string
	ServiceURL string
	IssuedAt   time.Time
}

// Authenticator performs the raw handshake calls. Implemented by Client.
type Authenticator interface {
	// Login obtains the short-lived temporary credential (step one).
	Login(ctx context.Context) (Session, error)
	// Register exchanges the temporary credential for a session token.
	// Must be called within the register window of Login.
	Register(ctx context.Context, s Session) error
	// Probe checks whether an installed session is still accepted.
	Probe(ctx context.Context, s Session) error
}

// SessionManager owns the sharp feed session. The two-step handshake has
// a short validity window on the first step, so the manager serializes
// handshakes internally; it is owned by the sharp fetch path only and
// never shared across feed clients.
type SessionManager struct {
	mu   sync.Mutex
	auth Authenticator

	state          SessionState
	session        Session
	lastActivity   time.Time
	renewThreshold time.Duration
	registerWindow time.Duration

	now    func() time.Time
	logger *zap.Logger
}

// SessionConfig holds session manager configuration.
type SessionConfig struct {
	Authenticator  Authenticator
	RenewThreshold time.Duration // probe the session after this much idle time
	RegisterWindow time.Duration // validity window of the step-one credential
	Logger         *zap.Logger
}

// NewSessionManager creates an unauthenticated session manager.
func NewSessionManager(cfg SessionConfig) *SessionManager {
	return &SessionManager{
		auth:           cfg.Authenticator,
		state:          StateUnauthenticated,
		renewThreshold: cfg.RenewThreshold,
		registerWindow: cfg.RegisterWindow,
		now:            time.Now,
		logger:         cfg.Logger,
	}
}

// EnsureSession guarantees a usable session: a no-op when the current one
// is fresh and valid, a probe when it has been idle past the renewal
// threshold, and a full re-handshake when missing, invalidated or stale.
func (m *SessionManager) EnsureSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateAuthenticated {
		idle := m.now().Sub(m.lastActivity)
		if idle <= m.renewThreshold {
			return nil
		}

		// Idle past the renewal threshold: probe before assuming expiry.
		err := m.auth.Probe(ctx, m.session)
		if err == nil {
			m.lastActivity = m.now()
			return nil
		}

		m.logger.Info("sharp-session-stale",
			zap.Duration("idle", idle),
			zap.Error(err))
		m.state = StateExpired
	}

	return m.handshakeLocked(ctx)
}

// handshakeLocked runs the two-step handshake. If the second step misses
// the first step's validity window the whole handshake restarts from
// Login; a half-done handshake is never resumed.
func (m *SessionManager) handshakeLocked(ctx context.Context) error {
	const maxAttempts = 2

	m.state = StateAuthenticating

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		s, err := m.auth.Login(ctx)
		if err != nil {
			lastErr = fmt.Errorf("login: %w", err)
			continue
		}

		if m.now().Sub(s.IssuedAt) > m.registerWindow {
			lastErr = fmt.Errorf("register window of %s elapsed before exchange", m.registerWindow)
			SessionHandshakeRestartsTotal.Inc()
			continue
		}

		err = m.auth.Register(ctx, s)
		if err != nil {
			lastErr = fmt.Errorf("register: %w", err)
			SessionHandshakeRestartsTotal.Inc()
			continue
		}

		m.session = s
		m.state = StateAuthenticated
		m.lastActivity = m.now()
		SessionHandshakesTotal.Inc()
		m.logger.Info("sharp-session-established",
			zap.String("service-url", s.ServiceURL),
			zap.Int("attempt", attempt))
		return nil
	}

	m.state = StateUnauthenticated
	return fmt.Errorf("session handshake failed after %d attempts: %w", maxAttempts, lastErr)
}

// ReportError marks the session invalidated on a negative response code,
// forcing the next EnsureSession to re-authenticate.
func (m *SessionManager) ReportError(code int) {
	if code >= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateInvalidated
	SessionInvalidationsTotal.Inc()
	m.logger.Warn("sharp-session-invalidated", zap.Int("code", code))
}

// Touch records successful downstream activity so the idle clock resets.
func (m *SessionManager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticated {
		m.lastActivity = m.now()
	}
}

// Current returns the installed session. Valid only while AUTHENTICATED.
func (m *SessionManager) Current() (Session, SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, m.state
}
