// Package session owns the authenticated-or-not state of every browser
// session. Only this package writes the backend session; every
// data-fetching component reads it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookshelf/internal/catalog"
	"bookshelf/internal/logger"
	"bookshelf/internal/models"
	"bookshelf/internal/supabase"
)

// Gateway is the slice of the backend client the manager needs.
type Gateway interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string) (*supabase.SignUpResult, error)
	SignOut(ctx context.Context, accessToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error)
}

// Listener is notified whenever a session appears, is refreshed, or goes
// away. A nil session means signed out.
type Listener func(sess *models.Session)

const csrfTokenLifetime = 24 * time.Hour

type entry struct {
	sess    *models.Session
	view    *catalog.ViewState
	csrf    map[string]time.Time
	expires time.Time

	// Non-nil while a token refresh is in flight; closed when it settles.
	// Refresh tokens are single-use, so concurrent validations must wait
	// for the one refresh instead of racing their own.
	refreshing chan struct{}
}

// Manager maps browser cookie ids to backend sessions, together with the
// per-session browsing state that must reset on login and vanish on
// logout.
type Manager struct {
	mu        sync.Mutex
	gw        Gateway
	duration  time.Duration
	sessions  map[string]*entry
	listeners map[int]Listener
	nextID    int
}

func NewManager(gw Gateway, duration time.Duration) *Manager {
	return &Manager{
		gw:        gw,
		duration:  duration,
		sessions:  make(map[string]*entry),
		listeners: make(map[int]Listener),
	}
}

// OnChange registers a listener for session transitions and returns its
// unsubscribe function.
func (m *Manager) OnChange(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) notify(sess *models.Session) {
	m.mu.Lock()
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}

// Login authenticates against the backend and, on success, creates a fresh
// browser session with browsing state reset to page 1, no filter. The
// returned id goes into the session cookie.
func (m *Manager) Login(ctx context.Context, email, password string) (string, *models.Session, error) {
	sess, err := m.gw.SignIn(ctx, email, password)
	if err != nil {
		logger.Info("login failed", "email", email, "error", err)
		return "", nil, err
	}

	id := uuid.New().String()

	m.mu.Lock()
	m.sessions[id] = &entry{
		sess:    sess,
		view:    catalog.NewViewState(),
		csrf:    make(map[string]time.Time),
		expires: time.Now().Add(m.duration),
	}
	m.mu.Unlock()

	logger.Info("user logged in", "user_id", sess.User.ID, "session_id", id)
	m.notify(sess)

	return id, sess, nil
}

// Signup registers a new account. It never authenticates: even a fully
// confirmed signup leaves the caller on the login form. pending reports
// whether a confirmation email is still outstanding.
func (m *Manager) Signup(ctx context.Context, email, password string) (bool, error) {
	result, err := m.gw.SignUp(ctx, email, password)
	if err != nil {
		logger.Info("signup failed", "email", email, "error", err)
		return false, err
	}

	logger.Info("user signed up", "email", email, "pending", result.Pending)
	return result.Pending, nil
}

// Logout revokes the backend session and drops all per-session state. If
// the backend refuses the sign-out the session is kept; the user stays
// authenticated and can retry.
func (m *Manager) Logout(ctx context.Context, id string) error {
	m.mu.Lock()
	ent, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	if err := m.gw.SignOut(ctx, ent.sess.AccessToken); err != nil {
		logger.Warn("logout failed", "session_id", id, "error", err)
		return fmt.Errorf("failed to sign out: %w", err)
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	logger.Info("user logged out", "session_id", id)
	m.notify(nil)
	return nil
}

// Validate resolves a cookie id to a live backend session, refreshing an
// expired access token on the way. Returns nil when the id is unknown,
// the browser session aged out, or the refresh was rejected. At most one
// refresh runs per session; concurrent validations wait for its result.
func (m *Manager) Validate(ctx context.Context, id string) *models.Session {
	m.mu.Lock()
	for {
		ent, ok := m.sessions[id]
		if ok && time.Now().After(ent.expires) {
			delete(m.sessions, id)
			ok = false
		}
		if !ok {
			m.mu.Unlock()
			return nil
		}

		sess := ent.sess
		if !sess.Expired() {
			m.mu.Unlock()
			return sess
		}

		if ent.refreshing != nil {
			done := ent.refreshing
			m.mu.Unlock()
			<-done
			m.mu.Lock()
			continue
		}

		done := make(chan struct{})
		ent.refreshing = done
		refreshToken := sess.RefreshToken
		m.mu.Unlock()

		refreshed, err := m.gw.RefreshSession(ctx, refreshToken)

		m.mu.Lock()
		ent.refreshing = nil
		close(done)
		if err != nil {
			delete(m.sessions, id)
			m.mu.Unlock()
			logger.Warn("session refresh failed", "session_id", id, "error", err)
			m.notify(nil)
			return nil
		}
		ent.sess = refreshed
		m.mu.Unlock()

		logger.Debug("session refreshed", "user_id", refreshed.User.ID)
		m.notify(refreshed)
		return refreshed
	}
}

// View returns the browsing state for a session, or nil when signed out.
func (m *Manager) View(id string) *catalog.ViewState {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent, ok := m.sessions[id]
	if !ok {
		return nil
	}
	return ent.view
}

// IssueCSRF creates a one-time CSRF token bound to the session.
func (m *Manager) IssueCSRF(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent, ok := m.sessions[id]
	if !ok {
		return "", fmt.Errorf("no active session")
	}

	now := time.Now()
	for token, expires := range ent.csrf {
		if now.After(expires) {
			delete(ent.csrf, token)
		}
	}

	token := uuid.New().String()
	ent.csrf[token] = now.Add(csrfTokenLifetime)
	return token, nil
}

// ValidateCSRF checks and consumes a CSRF token.
func (m *Manager) ValidateCSRF(id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("no active session")
	}

	expires, ok := ent.csrf[token]
	if !ok {
		return fmt.Errorf("unknown CSRF token")
	}
	delete(ent.csrf, token)

	if time.Now().After(expires) {
		return fmt.Errorf("expired CSRF token")
	}
	return nil
}
