// Package testutil provides shared test helpers, chiefly a scripted fake of
// the upstream content API.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/content"
)

// Upstream is a fake content API server. Responses are driven by a
// path-keyed data table; individual paths can be given a forced status or an
// artificial delay, and every request is counted so tests can assert on
// network-call de-duplication.
type Upstream struct {
	Server *httptest.Server

	mu     sync.Mutex
	token  string
	user   content.User
	data   map[string]any
	status map[string]int
	delay  map[string]time.Duration
	hits   map[string]int
	team   []content.TeamMember
}

// NewUpstream starts a fake upstream that is shut down with the test.
// The accepted admin credential is editor/hunter2, issuing token.
func NewUpstream(t *testing.T, token string) *Upstream {
	t.Helper()

	u := &Upstream{
		token:  token,
		user:   content.User{ID: 1, Username: "editor", Role: "admin"},
		data:   make(map[string]any),
		status: make(map[string]int),
		delay:  make(map[string]time.Duration),
		hits:   make(map[string]int),
	}

	r := chi.NewRouter()
	r.Post("/api/auth/login", u.handleLogin)
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(u.requireToken)
		r.Get("/contact", u.handleData)
		r.Post("/team", u.handleCreateTeam)
		r.Put("/team/{id}", u.handleUpdateTeam)
		r.Delete("/team/{id}", u.handleDeleteTeam)
		r.NotFound(u.handleData)
	})
	r.Post("/api/contact", u.handleContact)
	r.Get("/api/team", u.handleTeamList)
	r.Get("/api/team/{slug}", u.handleTeamDetail)
	r.NotFound(u.handleData)

	u.Server = httptest.NewServer(r)
	t.Cleanup(u.Server.Close)
	return u
}

// URL returns the fake upstream's base URL.
func (u *Upstream) URL() string { return u.Server.URL }

// SetData scripts the envelope data served for a GET of path. The key may
// include a query string, which takes precedence over a bare path.
func (u *Upstream) SetData(path string, v any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.data[path] = v
}

// SetStatus forces a status code for path; 0 removes the override.
func (u *Upstream) SetStatus(path string, code int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if code == 0 {
		delete(u.status, path)
		return
	}
	u.status[path] = code
}

// SetDelay makes requests to path sleep before responding.
func (u *Upstream) SetDelay(path string, d time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.delay[path] = d
}

// Hits returns how many requests path has received.
func (u *Upstream) Hits(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

// SetTeam seeds the mutable team table.
func (u *Upstream) SetTeam(team []content.TeamMember) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.team = append([]content.TeamMember(nil), team...)
}

// Team returns a copy of the mutable team table.
func (u *Upstream) Team() []content.TeamMember {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]content.TeamMember(nil), u.team...)
}

// intercept applies hit counting, scripted delay, and forced status.
// It reports whether the request was already answered.
func (u *Upstream) intercept(w http.ResponseWriter, r *http.Request) bool {
	key := r.URL.Path
	u.mu.Lock()
	u.hits[key]++
	d := u.delay[key]
	code, forced := u.status[key]
	u.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	if forced {
		writeEnvelopeError(w, code, "scripted failure")
		return true
	}
	return false
}

func (u *Upstream) handleData(w http.ResponseWriter, r *http.Request) {
	if u.intercept(w, r) {
		return
	}
	u.mu.Lock()
	v, ok := u.data[r.URL.RequestURI()]
	if !ok {
		v, ok = u.data[r.URL.Path]
	}
	u.mu.Unlock()
	if !ok {
		writeEnvelopeError(w, http.StatusNotFound, "no such resource")
		return
	}
	writeEnvelope(w, http.StatusOK, v)
}

func (u *Upstream) handleLogin(w http.ResponseWriter, r *http.Request) {
	if u.intercept(w, r) {
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	u.mu.Lock()
	token, user := u.token, u.user
	u.mu.Unlock()
	if req.Username != "editor" || req.Password != "hunter2" {
		writeEnvelopeError(w, http.StatusUnauthorized, "bad credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

func (u *Upstream) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		token := u.token
		u.mu.Unlock()
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			// Rejected requests still count as hits so tests can assert no
			// retry reuses a stale token.
			u.mu.Lock()
			u.hits[r.URL.Path]++
			u.mu.Unlock()
			writeEnvelopeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (u *Upstream) handleContact(w http.ResponseWriter, r *http.Request) {
	if u.intercept(w, r) {
		return
	}
	var sub content.ContactSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	sub.ID = 1
	writeEnvelope(w, http.StatusCreated, sub)
}

func (u *Upstream) handleTeamList(w http.ResponseWriter, r *http.Request) {
	if u.intercept(w, r) {
		return
	}
	writeEnvelope(w, http.StatusOK, u.Team())
}

func (u *Upstream) handleTeamDetail(w http.ResponseWriter, r *http.Request) {
	if u.intercept(w, r) {
		return
	}
	slug := chi.URLParam(r, "slug")
	for _, tm := range u.Team() {
		if tm.Slug == slug {
			writeEnvelope(w, http.StatusOK, tm)
			return
		}
	}
	writeEnvelopeError(w, http.StatusNotFound, "no such member")
}

func (u *Upstream) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	if u.intercept(w, r) {
		return
	}
	var tm content.TeamMember
	if err := json.NewDecoder(r.Body).Decode(&tm); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	u.mu.Lock()
	tm.ID = int64(len(u.team) + 1)
	u.team = append(u.team, tm)
	u.mu.Unlock()
	writeEnvelope(w, http.StatusCreated, tm)
}

func (u *Upstream) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	if u.intercept(w, r) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var tm content.TeamMember
	if err := json.NewDecoder(r.Body).Decode(&tm); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for i := range u.team {
		if u.team[i].ID == id {
			tm.ID = id
			u.team[i] = tm
			writeEnvelope(w, http.StatusOK, tm)
			return
		}
	}
	writeEnvelopeError(w, http.StatusNotFound, "no such member")
}

func (u *Upstream) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	if u.intercept(w, r) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for i := range u.team {
		if u.team[i].ID == id {
			u.team = append(u.team[:i], u.team[i+1:]...)
			writeEnvelope(w, http.StatusOK, map[string]any{"deleted": id})
			return
		}
	}
	writeEnvelopeError(w, http.StatusNotFound, "no such member")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeEnvelopeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}
