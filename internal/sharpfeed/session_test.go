package sharpfeed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAuth scripts the handshake calls for session manager tests.
type fakeAuth struct {
	logins      int
	registers   int
	probes      int
	loginErr    error
	registerErr error
	probeErr    error
	// issueStale makes Login return a credential already older than the
	// register window, as if the network swallowed the first step.
	issueStale bool
	clock      *time.Time
	window     time.Duration
}

func (f *fakeAuth) Login(ctx context.Context) (Session, error) {
	f.logins++
	if f.loginErr != nil {
		return Session{}, f.loginErr
	}

	issued := *f.clock
	if f.issueStale {
		issued = issued.Add(-f.window - time.Second)
		f.issueStale = false // next attempt succeeds
	}

	return Session{Token: "tok", Key: "key", ServiceURL: "https://svc", IssuedAt: issued}, nil
}

func (f *fakeAuth) Register(ctx context.Context, s Session) error {
	f.registers++
	return f.registerErr
}

func (f *fakeAuth) Probe(ctx context.Context, s Session) error {
	f.probes++
	return f.probeErr
}

func newTestManager(t *testing.T) (*SessionManager, *fakeAuth, *time.Time) {
	t.Helper()

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := &fakeAuth{clock: &clock, window: time.Minute}

	m := NewSessionManager(SessionConfig{
		Authenticator:  auth,
		RenewThreshold: 4 * time.Minute,
		RegisterWindow: time.Minute,
		Logger:         zap.NewNop(),
	})
	m.now = func() time.Time { return clock }

	return m, auth, &clock
}

func TestEnsureSessionPerformsHandshake(t *testing.T) {
	m, auth, _ := newTestManager(t)

	err := m.EnsureSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, auth.logins)
	assert.Equal(t, 1, auth.registers)

	_, state := m.Current()
	assert.Equal(t, StateAuthenticated, state)
}

func TestEnsureSessionIsNoOpWhenFresh(t *testing.T) {
	m, auth, _ := newTestManager(t)

	require.NoError(t, m.EnsureSession(context.Background()))
	require.NoError(t, m.EnsureSession(context.Background()))

	assert.Equal(t, 1, auth.logins, "second call must not re-authenticate")
	assert.Equal(t, 0, auth.probes)
}

func TestEnsureSessionProbesAfterIdleThreshold(t *testing.T) {
	m, auth, clock := newTestManager(t)

	require.NoError(t, m.EnsureSession(context.Background()))

	*clock = clock.Add(5 * time.Minute)
	require.NoError(t, m.EnsureSession(context.Background()))

	assert.Equal(t, 1, auth.probes, "idle session is probed, not re-authenticated")
	assert.Equal(t, 1, auth.logins)
}

func TestEnsureSessionReauthsWhenProbeFails(t *testing.T) {
	m, auth, clock := newTestManager(t)

	require.NoError(t, m.EnsureSession(context.Background()))

	auth.probeErr = &FeedError{Code: codeSessionInvalid}
	*clock = clock.Add(5 * time.Minute)
	require.NoError(t, m.EnsureSession(context.Background()))

	assert.Equal(t, 2, auth.logins, "failed probe forces a fresh handshake")
}

func TestReportErrorForcesReauth(t *testing.T) {
	m, auth, _ := newTestManager(t)

	require.NoError(t, m.EnsureSession(context.Background()))

	m.ReportError(codeSessionInvalid)
	_, state := m.Current()
	assert.Equal(t, StateInvalidated, state)

	require.NoError(t, m.EnsureSession(context.Background()))
	assert.Equal(t, 2, auth.logins)
}

func TestReportErrorIgnoresNonNegativeCodes(t *testing.T) {
	m, _, _ := newTestManager(t)

	require.NoError(t, m.EnsureSession(context.Background()))

	m.ReportError(0)
	_, state := m.Current()
	assert.Equal(t, StateAuthenticated, state)
}

func TestHandshakeRestartsWhenRegisterWindowElapsed(t *testing.T) {
	m, auth, _ := newTestManager(t)
	auth.issueStale = true

	err := m.EnsureSession(context.Background())
	require.NoError(t, err)

	// First attempt's credential was stale; the manager must restart from
	// Login rather than register a dead credential.
	assert.Equal(t, 2, auth.logins)
	assert.Equal(t, 1, auth.registers)
}

func TestHandshakeFailsAfterMaxAttempts(t *testing.T) {
	m, auth, _ := newTestManager(t)
	auth.registerErr = errors.New("boom")

	err := m.EnsureSession(context.Background())
	require.Error(t, err)

	assert.Equal(t, 2, auth.logins)
	_, state := m.Current()
	assert.Equal(t, StateUnauthenticated, state)
}

func TestFeedErrorClassification(t *testing.T) {
	err := error(&FeedError{Code: codeSessionInvalid, Message: "token expired"})
	assert.True(t, errors.Is(err, ErrSessionInvalid))

	err = &FeedError{Code: codeRateLimited}
	assert.True(t, errors.Is(err, ErrRateLimited))

	err = &FeedError{Code: -99, Message: "some fault"}
	assert.False(t, errors.Is(err, ErrSessionInvalid))
}
