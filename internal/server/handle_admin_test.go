package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/playperu/geogamer/internal/geogamer"
)

func (e *testEnv) login(t *testing.T) []*http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/admin/login", AdminLoginRequest{Email: testAdminEmail, Password: testAdminPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return w.Result().Cookies()
}

func TestAdminLoginGoodCredentials(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/admin/login", AdminLoginRequest{Email: " Admin@Example.com ", Password: testAdminPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[AdminMeResponse](t, w)
	if resp.Email != testAdminEmail {
		t.Errorf("email = %q", resp.Email)
	}

	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == adminCookieName && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("expected admin_session cookie")
	}
}

func TestAdminLoginBadCredentials(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name string
		req  AdminLoginRequest
		want int
	}{
		{"wrong password", AdminLoginRequest{Email: testAdminEmail, Password: "nope"}, http.StatusUnauthorized},
		{"unknown email", AdminLoginRequest{Email: "who@example.com", Password: testAdminPassword}, http.StatusUnauthorized},
		{"missing password", AdminLoginRequest{Email: testAdminEmail}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := e.do(t, http.MethodPost, "/api/admin/login", tt.req); w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAdminMeAndLogout(t *testing.T) {
	e := newTestEnv(t)

	if w := e.do(t, http.MethodGet, "/api/admin/me", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("me without cookie: expected 401, got %d", w.Code)
	}

	cookies := e.login(t)
	w := e.do(t, http.MethodGet, "/api/admin/me", nil, cookies...)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}
	if got := decode[AdminMeResponse](t, w).Email; got != testAdminEmail {
		t.Errorf("email = %q", got)
	}

	if w := e.do(t, http.MethodPost, "/api/admin/logout", nil, cookies...); w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/admin/me", nil, cookies...); w.Code != http.StatusUnauthorized {
		t.Errorf("me after logout: expected 401, got %d", w.Code)
	}
}

func TestAdminSessionExpires(t *testing.T) {
	e := newTestEnv(t)
	cookies := e.login(t)

	e.admin.now = func() time.Time { return time.Now().Add(adminSessionTTL + time.Minute) }
	if w := e.do(t, http.MethodGet, "/api/admin/me", nil, cookies...); w.Code != http.StatusUnauthorized {
		t.Errorf("expired session: expected 401, got %d", w.Code)
	}
}

func TestEnsureAdminResetsPassword(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	created, err := e.admin.EnsureAdmin(ctx, testAdminEmail, "new-secret")
	if err != nil || created {
		t.Fatalf("EnsureAdmin = %v, %v", created, err)
	}
	w := e.do(t, http.MethodPost, "/api/admin/login", AdminLoginRequest{Email: testAdminEmail, Password: testAdminPassword})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("old password: expected 401, got %d", w.Code)
	}
	w = e.do(t, http.MethodPost, "/api/admin/login", AdminLoginRequest{Email: testAdminEmail, Password: "new-secret"})
	if w.Code != http.StatusOK {
		t.Errorf("new password: expected 200, got %d", w.Code)
	}
}

func TestAdminLevelsRequireAuth(t *testing.T) {
	e := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/levels"},
		{http.MethodGet, "/api/admin/levels/1"},
		{http.MethodPut, "/api/admin/levels/1"},
		{http.MethodDelete, "/api/admin/levels/1"},
	} {
		if w := e.do(t, tc.method, tc.path, nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestAdminLevelCRUD(t *testing.T) {
	e := newTestEnv(t)
	cookies := e.login(t)

	w := e.do(t, http.MethodGet, "/api/admin/levels", nil, cookies...)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	if got := decode[[]geogamer.Level](t, w); len(got) != 4 || len(got[0].Rounds) != 3 {
		t.Fatalf("list = %d levels", len(got))
	}

	level := geogamer.Level{
		ID:         99,
		Name:       "Level 5",
		Difficulty: "Insane",
		Rounds: []geogamer.Round{{
			ID:               "portal2",
			CorrectName:      "Portal 2",
			AlternativeNames: []string{"portal 2"},
			Screenshot:       "portal2.jpg",
			Map:              "portal2.jpg",
			Target:           geogamer.Point{X: 10, Y: 20},
		}},
	}
	w = e.do(t, http.MethodPut, "/api/admin/levels/5", level, cookies...)
	if w.Code != http.StatusOK {
		t.Fatalf("put: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[geogamer.Level](t, w); got.ID != 5 {
		t.Errorf("stored id = %d, want path id 5", got.ID)
	}

	w = e.do(t, http.MethodGet, "/api/admin/levels/5", nil, cookies...)
	if got := decode[geogamer.Level](t, w); got.Rounds[0].CorrectName != "Portal 2" {
		t.Errorf("get = %+v", got)
	}

	// The new level is playable, and level 4 now leads to it.
	if w := e.do(t, http.MethodGet, "/api/levels/5", nil); w.Code != http.StatusOK {
		t.Errorf("public get: expected 200, got %d", w.Code)
	}
	if last, _ := e.levels.LastLevelID(context.Background()); last != 5 {
		t.Errorf("last level = %d", last)
	}

	w = e.do(t, http.MethodDelete, "/api/admin/levels/5", nil, cookies...)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/api/admin/levels/5", nil, cookies...); w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/admin/levels/5", nil, cookies...); w.Code != http.StatusNotFound {
		t.Errorf("get deleted: expected 404, got %d", w.Code)
	}
}

func TestAdminPutLevelInvalid(t *testing.T) {
	e := newTestEnv(t)
	cookies := e.login(t)

	tests := []struct {
		name  string
		path  string
		level geogamer.Level
	}{
		{"bad id", "/api/admin/levels/0", geogamer.Level{Name: "x"}},
		{"missing name", "/api/admin/levels/6", geogamer.Level{}},
		{"target out of range", "/api/admin/levels/6", geogamer.Level{Name: "x", Rounds: []geogamer.Round{{
			ID: "a", CorrectName: "A", AlternativeNames: []string{"a"}, Target: geogamer.Point{X: -1, Y: 5},
		}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := e.do(t, http.MethodPut, tt.path, tt.level, cookies...); w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}
