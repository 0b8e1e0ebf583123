// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tenantx/internal/platform/config"
	"github.com/taibuivan/tenantx/internal/task"
)

// # Fixtures

func signedToken(t *testing.T, org, role, jti string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "org": org, "role": role, "jti": jti}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// backend is a fake TenantX API that accepts exactly one access token at a time.
type backend struct {
	t      *testing.T
	server *httptest.Server

	mu            sync.Mutex
	valid         string
	refreshStatus int
	calls         []string
}

func newBackend(t *testing.T) *backend {
	b := &backend{t: t, refreshStatus: http.StatusOK}
	login := signedToken(t, "o1", "ORG_ADMIN", "login")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		b.setValid(login)
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": login, "refreshToken": "r1"})
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		status := b.refreshStatus
		b.mu.Unlock()
		if status != http.StatusOK {
			writeJSON(w, status, map[string]string{"error": "Refresh token revoked"})
			return
		}
		fresh := signedToken(t, "o1", "ORG_ADMIN", "refreshed")
		b.setValid(fresh)
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": fresh, "refreshToken": "r2"})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /auth/me", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "u1", "email": "ada@tenantx.dev", "name": "Ada", "loginMethod": "password"})
	}))
	mux.HandleFunc("GET /organizations", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]string{{"id": "o1", "name": "Acme"}, {"id": "o2", "name": "Globex"}})
	}))
	mux.HandleFunc("POST /organizations/switch", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		scoped := signedToken(t, "o2", "MANAGER", "switched")
		b.setValid(scoped)
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": scoped, "refreshToken": "r3", "role": "MANAGER"})
	}))
	mux.HandleFunc("GET /organizations/{id}/members", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]string{{"userId": "u1", "email": "ada@tenantx.dev", "role": "MANAGER@" + r.PathValue("id")}})
	}))
	mux.HandleFunc("DELETE /projects/{id}", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /tasks", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]string{
			{"id": "t1", "title": "Write docs", "status": "IN_PROGRESS", "projectId": r.URL.Query().Get("projectId")},
		})
	}))
	mux.HandleFunc("PATCH /tasks/{id}/status", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]string{"id": r.PathValue("id"), "title": "Write docs", "status": body["status"], "projectId": "p1"})
	}))

	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, r.Method+" "+r.URL.Path)
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		valid := b.valid
		b.mu.Unlock()
		if valid == "" || r.Header.Get("Authorization") != "Bearer "+valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expired"})
			return
		}
		next(w, r)
	}
}

func (b *backend) setValid(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.valid = token
}

// expire invalidates the current access token, as the backend would after its TTL.
func (b *backend) expire() { b.setValid("expired") }

func (b *backend) called(call string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (b *backend) count(call string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c == call {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// scripted answers prompts from fixed values.
type scripted struct {
	inputs  map[string]string
	choice  string
	confirm bool
	asked   []string
}

func (s *scripted) Input(title string, _ bool) (string, error) {
	s.asked = append(s.asked, title)
	value, ok := s.inputs[title]
	if !ok {
		return "", errors.New("unexpected prompt " + title)
	}
	return value, nil
}

func (s *scripted) Select(title string, choices []Choice) (string, error) {
	s.asked = append(s.asked, title)
	for _, choice := range choices {
		if choice.Value == s.choice {
			return choice.Value, nil
		}
	}
	return "", errors.New("choice not offered")
}

func (s *scripted) Confirm(title string) (bool, error) {
	s.asked = append(s.asked, title)
	return s.confirm, nil
}

// harness runs console invocations against one backend and session file.
type harness struct {
	t        *testing.T
	backend  *backend
	file     string
	prompter Prompter
}

func newHarness(t *testing.T) *harness {
	return &harness{t: t, backend: newBackend(t), file: filepath.Join(t.TempDir(), "session.yaml")}
}

func (h *harness) run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	env := Environment{
		Out: &out,
		Err: &errOut,
		LoadConfig: func() (*config.Config, error) {
			return &config.Config{
				APIURL:         h.backend.server.URL,
				HTTPTimeout:    5 * time.Second,
				LogFormat:      "text",
				SessionStore:   config.StoreFile,
				SessionFile:    h.file,
				SessionProfile: "default",
				VerifyInterval: time.Minute,
			}, nil
		},
		Prompter: h.prompter,
	}
	code = Execute(context.Background(), env, args)
	return code, out.String(), errOut.String()
}

func (h *harness) login() {
	code, _, stderr := h.run("login", "--email", "ada@tenantx.dev", "--password", "secret1")
	require.Equal(h.t, 0, code, stderr)
}

// # Tests

/*
TestConsole_SessionLifecycle verifies that a session persisted by login is
reused by later invocations and removed by logout.
*/
func TestConsole_SessionLifecycle(t *testing.T) {
	h := newHarness(t)

	// 1. Login persists the session
	code, stdout, _ := h.run("login", "--email", "ada@tenantx.dev", "--password", "secret1")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Signed in as ada@tenantx.dev")

	// 2. A new invocation hydrates it and verifies the identity
	code, stdout, stderr := h.run("whoami", "--json")
	require.Equal(t, 0, code, stderr)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &snapshot))
	identity := snapshot["identity"].(map[string]any)
	assert.Equal(t, "ada@tenantx.dev", identity["email"])
	assert.Equal(t, "ORG_ADMIN", identity["role"])
	assert.Equal(t, true, snapshot["isAuthenticated"])

	// 3. Explicit refresh rotates the pair
	code, _, stderr = h.run("refresh")
	require.Equal(t, 0, code, stderr)
	assert.True(t, h.backend.called("POST /auth/refresh"))

	// 4. Logout clears it
	code, _, _ = h.run("logout")
	require.Equal(t, 0, code)
	assert.True(t, h.backend.called("POST /auth/logout"))

	// 5. Tenant commands now refuse to run
	code, _, stderr = h.run("task", "list", "p1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, ErrNotSignedIn.Error())
}

func TestConsole_LoginRejected(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("login", "--email", "ada@tenantx.dev", "--password", "wrong-one")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Invalid credentials")

	code, _, _ = h.run("whoami")
	assert.Equal(t, 1, code)
}

/*
TestConsole_Prompts verifies that missing input is prompted for when a
prompter is available, and reported as a missing flag otherwise.
*/
func TestConsole_Prompts(t *testing.T) {
	h := newHarness(t)

	// 1. No prompter
	code, _, stderr := h.run("login")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "missing --email")

	// 2. Scripted answers
	prompter := &scripted{inputs: map[string]string{"Email": "ada@tenantx.dev", "Password": "secret1"}}
	h.prompter = prompter

	code, _, stderr = h.run("login")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, []string{"Email", "Password"}, prompter.asked)
}

/*
TestConsole_OrganizationSwitch verifies that switching stores the scoped
tokens and the selection, and that member listing follows the selection.
*/
func TestConsole_OrganizationSwitch(t *testing.T) {
	h := newHarness(t)
	h.login()

	// 1. Switch by id; the name comes from the list
	code, stdout, stderr := h.run("org", "switch", "o2")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Switched to Globex as MANAGER")

	// 2. The list marks the selection
	code, stdout, _ = h.run("org", "list", "--json")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"Globex"`)

	code, stdout, _ = h.run("whoami", "--json")
	require.Equal(t, 0, code)
	var snapshot map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &snapshot))
	assert.Equal(t, map[string]any{"id": "o2", "name": "Globex"}, snapshot["selectedOrganization"])
	assert.Equal(t, "MANAGER", snapshot["identity"].(map[string]any)["role"])

	// 3. Members default to the selected organization
	code, stdout, _ = h.run("org", "members", "--json")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "MANAGER@o2")
}

func TestConsole_OrganizationPick(t *testing.T) {
	h := newHarness(t)
	h.login()

	// Without a terminal the command explains the alternative.
	code, _, stderr := h.run("org", "pick")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "org switch")

	h.prompter = &scripted{choice: "o2"}
	code, stdout, stderr := h.run("org", "pick")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Switched to Globex")
}

/*
TestConsole_Tasks verifies task listing and status changes, including the
accepted spellings of a status.
*/
func TestConsole_Tasks(t *testing.T) {
	h := newHarness(t)
	h.login()

	code, stdout, stderr := h.run("task", "list", "p1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Write docs")
	assert.Contains(t, stdout, "In Progress")

	code, stdout, _ = h.run("task", "list", "p1", "--status", "todo")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "(none)")

	code, stdout, stderr = h.run("task", "status", "t1", "completed", "--json")
	require.Equal(t, 0, code, stderr)
	var updated task.Task
	require.NoError(t, json.Unmarshal([]byte(stdout), &updated))
	assert.Equal(t, task.StatusCompleted, updated.Status)

	// Unknown statuses are rejected before any request is made.
	code, _, stderr = h.run("task", "status", "t2", "archived")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "status")
	assert.False(t, h.backend.called("PATCH /tasks/t2/status"))
}

/*
TestConsole_SilentRefresh verifies that an expired access token is replaced
without the user noticing.
*/
func TestConsole_SilentRefresh(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.expire()

	code, stdout, stderr := h.run("task", "list", "p1", "--json")

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "t1")
	assert.NotContains(t, stderr, SessionExpiredNotice)
	assert.True(t, h.backend.called("POST /auth/refresh"))
}

/*
TestConsole_WhoamiWithExpiredToken verifies that whoami succeeds in one
verification when the stored access token has expired.
*/
func TestConsole_WhoamiWithExpiredToken(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.expire()

	code, stdout, stderr := h.run("whoami", "--json")

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "ada@tenantx.dev")
	assert.True(t, h.backend.called("POST /auth/refresh"))
	assert.Equal(t, 2, h.backend.count("GET /auth/me"))
}

/*
TestConsole_SessionExpired verifies that a rejected refresh ends the session
and tells the user to sign in again.
*/
func TestConsole_SessionExpired(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.expire()
	h.backend.mu.Lock()
	h.backend.refreshStatus = http.StatusUnauthorized
	h.backend.mu.Unlock()

	code, _, stderr := h.run("task", "list", "p1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, SessionExpiredNotice)

	// The ended session is not restored by the next invocation.
	code, _, stderr = h.run("project", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, ErrNotSignedIn.Error())
}

/*
TestConsole_Confirmation verifies that destructive commands need --yes or an
explicit confirmation.
*/
func TestConsole_Confirmation(t *testing.T) {
	h := newHarness(t)
	h.login()

	// 1. Non-interactive without --yes
	code, _, stderr := h.run("project", "delete", "p1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--yes")

	// 2. Declined
	h.prompter = &scripted{confirm: false}
	code, _, stderr = h.run("project", "delete", "p1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "cancelled")
	assert.False(t, h.backend.called("DELETE /projects/p1"))

	// 3. Skipped with --yes
	code, stdout, _ := h.run("project", "delete", "p1", "--yes")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Deleted project p1")
	assert.True(t, h.backend.called("DELETE /projects/p1"))
}

func TestParseStatus(t *testing.T) {
	for input, want := range map[string]task.Status{
		"in-progress":  task.StatusInProgress,
		"in_progress":  task.StatusInProgress,
		"COMPLETED":    task.StatusCompleted,
		" todo ":       task.StatusTodo,
		"discontinued": task.StatusDiscontinued,
	} {
		assert.Equal(t, want, parseStatus(input), input)
	}
	assert.False(t, parseStatus("archived").Valid())
}
