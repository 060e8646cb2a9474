// Package registration keeps the push provider's registration token fresh:
// it obtains notification permission from the host platform, requests a
// token, and mirrors it to the backend's token endpoint.
package registration

import (
	"context"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/plante-app/plante-notify/apperr"
	"github.com/plante-app/plante-notify/backend"
	"github.com/plante-app/plante-notify/fields"
)

// PermissionState is the platform's notification permission state.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionDefault PermissionState = "default"
)

// Prompter is the host platform's permission surface. Request blocks until
// the user answers the prompt; there is deliberately no timeout on it.
type Prompter interface {
	State(ctx context.Context) (PermissionState, error)
	Request(ctx context.Context) (PermissionState, error)
}

// TokenSource issues registration tokens from the push provider.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Verifier checks whether a previously issued token is still accepted by
// the provider. The provider rotates tokens silently, so staleness is only
// detectable on the next attempt.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

var errTokenFetch = apperr.New("token_fetch_failed", http.StatusBadGateway, "could not obtain a registration token from the push provider")

// Manager caches the last-known permission state and token for the session
// so repeated calls avoid redundant prompts. Reset drops the cache on
// logout.
type Manager struct {
	Prompter Prompter
	Source   TokenSource
	Verifier Verifier
	Bridge   *PageBridge
	Backend  *backend.Client
	Logger   *logrus.Logger
	Clock    fields.Clock

	mu    sync.Mutex
	state PermissionState
	token *fields.RegistrationToken
}

func NewManager(prompter Prompter, source TokenSource, client *backend.Client, logger *logrus.Logger) *Manager {
	return &Manager{
		Prompter: prompter,
		Source:   source,
		Backend:  client,
		Logger:   logger,
		Clock:    fields.SystemClock,
	}
}

// EnsureRegistered returns a registration token for the user, prompting for
// permission if the platform still reports it undetermined.
//
// Token registration with the backend is reported but not fatal: when the
// backend is unreachable the token is still returned alongside the
// apperr.ErrBackendUnavailable error, so a reminder submission can be
// attempted at least once.
func (m *Manager) EnsureRegistered(ctx context.Context, userID string) (*fields.RegistrationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == PermissionDenied {
		// Denied is remembered for the session; no network call is made.
		return nil, apperr.ErrPermissionDenied
	}

	if m.token != nil && m.state == PermissionGranted {
		if m.Verifier == nil {
			return m.token, nil
		}
		if err := m.Verifier.Verify(ctx, m.token.Value); err == nil {
			return m.token, nil
		}
		// The provider rotated the token under us. Drop the cached value
		// and fetch a fresh one.
		m.Logger.WithField("user_id", userID).Info("cached registration token rejected by provider, refreshing")
		m.token = nil
	}

	state, err := m.Prompter.State(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "could not read notification permission")
	}
	switch state {
	case PermissionDenied:
		m.state = PermissionDenied
		return nil, apperr.ErrPermissionDenied
	case PermissionDefault:
		state, err = m.Prompter.Request(ctx)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.ErrInternal, "permission prompt failed")
		}
		if state != PermissionGranted {
			m.state = PermissionDenied
			return nil, apperr.ErrPermissionDenied
		}
	}
	m.state = PermissionGranted

	// Fetch failures are surfaced as-is and never retried here: the user
	// re-triggers the action explicitly.
	value, err := m.Source.Token(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, errTokenFetch, "")
	}
	token := &fields.RegistrationToken{Value: value, UserID: userID, IssuedAt: m.Clock.Now()}
	m.token = token

	if err := m.Backend.RegisterToken(ctx, *token); err != nil {
		m.Logger.WithFields(logrus.Fields{
			"user_id": userID,
			"code":    apperr.Code(err),
		}).Error("could not register token with the backend")
		return token, err
	}
	return token, nil
}

// Token returns the cached token for the session, or nil when the user is
// not registered.
func (m *Manager) Token() *fields.RegistrationToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Reset invalidates the session cache. Called on logout.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = ""
	m.token = nil
}
