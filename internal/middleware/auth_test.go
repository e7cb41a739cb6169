package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/8Gelos8/tournament-manager-online/internal/db"
	"github.com/8Gelos8/tournament-manager-online/internal/store"
	users "github.com/8Gelos8/tournament-manager-online/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserStore(t *testing.T) *store.UserStore {
	t.Helper()
	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, "file://../../migrations"))
	return store.NewUserStore(database)
}

func newAuthRouter(t *testing.T) http.Handler {
	sessionManager := scs.New()
	userStore := setupUserStore(t)

	r := chi.NewRouter()
	r.Use(sessionManager.LoadAndSave)
	r.Post("/login/{id}", func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Put(r.Context(), SessionUserIDKey, chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(RequireAPIAuth(sessionManager, userStore)).Get("/api/me", func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetUserIDFromContext(r.Context())
		name := ""
		if user := GetAuthenticatedUser(r.Context()); user != nil {
			name = user.Username
		}
		w.Write([]byte(id.String() + " " + name))
	})
	r.With(RequireAuth(sessionManager, userStore)).Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestRequireAPIAuth(t *testing.T) {
	router := newAuthRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	login := httptest.NewRecorder()
	router.ServeHTTP(login, httptest.NewRequest(http.MethodPost, "/login/"+users.GuestID.String(), nil))
	require.Equal(t, http.StatusNoContent, login.Code)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, users.GuestID.String()+" Guest User", rec.Body.String())
}

func TestRequireAPIAuthDropsMalformedSession(t *testing.T) {
	router := newAuthRouter(t)

	login := httptest.NewRecorder()
	router.ServeHTTP(login, httptest.NewRequest(http.MethodPost, "/login/garbage", nil))
	require.Equal(t, http.StatusNoContent, login.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
