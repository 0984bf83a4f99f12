package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adesaini/sweetshop-client/internal/api"
	"github.com/adesaini/sweetshop-client/internal/catalog"
	"github.com/adesaini/sweetshop-client/internal/model"
	"github.com/adesaini/sweetshop-client/internal/session"
	"github.com/adesaini/sweetshop-client/internal/view"
)

// fakeBackend is a minimal sweetshop API for handler tests.
func fakeBackend(t *testing.T, role model.Role) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(model.Session{
			Username: "asha", Email: "a@b.c", Role: role, Token: "tok123",
		})
	})
	mux.HandleFunc("/api/sweets", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode([]model.Sweet{
			{ID: 1, Name: "Ladoo", Category: "Indian", Price: 5, Quantity: 0},
			{ID: 2, Name: "Barfi", Category: "Indian", Price: 10, Quantity: 20},
		})
	})
	mux.HandleFunc("/api/sweets/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode([]model.Sweet{
			{ID: 2, Name: "Barfi", Category: "Indian", Price: 10, Quantity: 20},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestStack(t *testing.T, role model.Role) (*Server, *session.Store) {
	t.Helper()
	backend := fakeBackend(t, role)

	var store *session.Store
	client := api.New(backend.URL, 5*time.Second, api.TokenFunc(func() string { return store.Token() }), nil)
	store = session.New(client, t.TempDir(), nil)

	cat := catalog.New(client, nil)
	ctrl := view.New(client, cat, nil)

	srv, err := NewServer(store, cat, ctrl, nil)
	require.NoError(t, err)
	return srv, store
}

func doGet(srv *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Engine().ServeHTTP(w, req)
	return w
}

func doPost(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Engine().ServeHTTP(w, req)
	return w
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	srv, _ := newTestStack(t, model.RoleUser)

	for _, path := range []string{"/dashboard", "/sweets"} {
		w := doGet(srv, path)
		require.Equal(t, http.StatusFound, w.Code, path)
		require.Equal(t, "/login", w.Header().Get("Location"), path)
	}
}

func TestLoginPageIsPublic(t *testing.T) {
	srv, _ := newTestStack(t, model.RoleUser)
	w := doGet(srv, "/login")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Sign in")
}

func TestLoginFlowThenSweetsPage(t *testing.T) {
	srv, _ := newTestStack(t, model.RoleUser)

	w := doPost(srv, "/login", url.Values{"email": {"a@b.c"}, "password": {"secret"}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = doGet(srv, "/sweets")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "Ladoo")
	require.Contains(t, body, "Barfi")
	// non-admins see purchase controls only, disabled at zero stock
	require.NotContains(t, body, "Restock")
	require.Contains(t, body, "Out of Stock")
}

func TestAdminSeesManagementControls(t *testing.T) {
	srv, _ := newTestStack(t, model.RoleAdmin)

	doPost(srv, "/login", url.Values{"email": {"a@b.c"}, "password": {"secret"}})
	w := doGet(srv, "/sweets")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "Restock")
	require.Contains(t, body, "Delete")
	require.NotContains(t, body, ">Purchase<")
}

func TestLogoutRedirectsAndGuardKicksIn(t *testing.T) {
	srv, store := newTestStack(t, model.RoleUser)

	_, err := store.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	w := doPost(srv, "/logout", nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	w = doGet(srv, "/sweets")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))
}

func TestSortAndViewActionsRedirectBack(t *testing.T) {
	srv, store := newTestStack(t, model.RoleUser)
	_, err := store.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	w := doPost(srv, "/sort/price", nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/sweets", w.Header().Get("Location"))

	w = doPost(srv, "/view/list", nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/sweets", w.Header().Get("Location"))
}

func TestSearchNarrowsTheRenderedList(t *testing.T) {
	srv, store := newTestStack(t, model.RoleUser)
	_, err := store.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	w := doPost(srv, "/search", url.Values{"name": {"barfi"}})
	require.Equal(t, http.StatusFound, w.Code)

	w = doGet(srv, "/sweets")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "Barfi")
	require.NotContains(t, body, "Ladoo")
}

func TestFailedLoginKeepsFormAndEmail(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))
	t.Cleanup(backend.Close)

	var store *session.Store
	client := api.New(backend.URL, 5*time.Second, api.TokenFunc(func() string { return store.Token() }), nil)
	store = session.New(client, t.TempDir(), nil)
	cat := catalog.New(client, nil)
	ctrl := view.New(client, cat, nil)
	srv, err := NewServer(store, cat, ctrl, nil)
	require.NoError(t, err)

	w := doPost(srv, "/login", url.Values{"email": {"a@b.c"}, "password": {"bad"}})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "Invalid credentials")
	require.Contains(t, body, `value="a@b.c"`, "entered email must be kept")
}
