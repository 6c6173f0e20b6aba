package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/starford/ansuz/internal/apperr"
)

// Route constants for the admin area. The unauthorized handler remembers
// admin routes (other than the login route itself) so a successful login can
// return the user where they were.
const (
	AdminPrefix = "/admin"
	LoginRoute  = "/admin/login"
)

// Manager holds the in-memory session state mirrored into a durable Store.
// The state machine is anonymous <-> authenticated, transitioning on login
// success, logout, or receipt of a 401 from any admin-scoped call.
type Manager struct {
	mu         sync.Mutex
	store      Store
	cred       *Credential
	returnPath string
	onChange   []func(authenticated bool)
}

// NewManager creates a Manager and restores any previously stored
// credential. A corrupt or absent stored credential leaves the session
// anonymous; it is not an error.
func NewManager(store Store) *Manager {
	m := &Manager{store: store}
	if c, err := store.Load(); err == nil {
		m.cred = c
	}
	return m
}

// Current returns a copy of the credential and whether one is held.
func (m *Manager) Current() (Credential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return Credential{}, false
	}
	return *m.cred, true
}

// Token returns the bearer token, or "" when anonymous.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return ""
	}
	return m.cred.Token
}

// Establish stores an accepted login credential and transitions to
// authenticated.
func (m *Manager) Establish(c Credential) error {
	m.mu.Lock()
	if err := m.store.Save(&c); err != nil {
		m.mu.Unlock()
		return err
	}
	was := m.cred != nil
	m.cred = &c
	subs := m.subscribers()
	m.mu.Unlock()

	if !was {
		notify(subs, true)
	}
	return nil
}

// Logout clears the durable credential and transitions to anonymous.
func (m *Manager) Logout() error {
	m.mu.Lock()
	if err := m.store.Clear(); err != nil {
		m.mu.Unlock()
		return err
	}
	was := m.cred != nil
	m.cred = nil
	m.returnPath = ""
	subs := m.subscribers()
	m.mu.Unlock()

	if was {
		notify(subs, false)
	}
	return nil
}

// HandleUnauthorized is the centralized 401 side effect: it clears the
// stored credential, remembers route as the post-login return path when it
// is admin-scoped and not the login route itself, and notifies subscribers
// of the transition to anonymous. Repeat calls with no credential held are
// no-ops beyond remembering the route.
func (m *Manager) HandleUnauthorized(route string) {
	m.mu.Lock()
	_ = m.store.Clear()
	if strings.HasPrefix(route, AdminPrefix) && route != LoginRoute {
		m.returnPath = route
	}
	was := m.cred != nil
	m.cred = nil
	subs := m.subscribers()
	m.mu.Unlock()

	if was {
		notify(subs, false)
	}
}

// ConsumeReturnPath returns the remembered admin route and forgets it.
// Returns LoginRoute's natural successor ("" meaning none) when nothing was
// remembered.
func (m *Manager) ConsumeReturnPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.returnPath
	m.returnPath = ""
	return p
}

// Reload re-reads the durable store, picking up changes made by another
// process. Used by the credential-file watcher.
func (m *Manager) Reload() {
	c, err := m.store.Load()

	m.mu.Lock()
	was := m.cred != nil
	switch {
	case err == nil:
		m.cred = c
	case errors.Is(err, apperr.ErrNoCredential):
		m.cred = nil
	default:
		// Unreadable store: keep the in-memory state.
		m.mu.Unlock()
		return
	}
	now := m.cred != nil
	subs := m.subscribers()
	m.mu.Unlock()

	if was != now {
		notify(subs, now)
	}
}

// OnChange registers fn to be called after each session transition with the
// new authenticated state. Callbacks run outside the manager lock.
func (m *Manager) OnChange(fn func(authenticated bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

func (m *Manager) subscribers() []func(bool) {
	subs := make([]func(bool), len(m.onChange))
	copy(subs, m.onChange)
	return subs
}

func notify(subs []func(bool), authenticated bool) {
	for _, fn := range subs {
		fn(authenticated)
	}
}
