package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydoc/relaydoc/internal/controlplane/api/middleware"
	"github.com/relaydoc/relaydoc/internal/controlplane/auth"
)

func newJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.Config{Secret: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)
	return svc
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	svc := newJWTService(t)
	handler := middleware.JWTAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthAcceptsValidBearerToken(t *testing.T) {
	svc := newJWTService(t)
	pair, err := svc.GenerateTokenPair("client-1", []string{"doc-a"})
	require.NoError(t, err)

	var sawClaims *auth.Claims
	handler := middleware.JWTAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawClaims = middleware.GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sawClaims)
	assert.Equal(t, "client-1", sawClaims.ClientID)
}

func TestRequireDocScopeRejectsOutOfScopeDoc(t *testing.T) {
	svc := newJWTService(t)
	pair, err := svc.GenerateTokenPair("client-1", []string{"doc-a"})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.With(middleware.JWTAuth(svc), middleware.RequireDocScope()).Get("/docs/{docID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/docs/doc-b", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/docs/doc-a", nil)
	req2.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusOK, rec2.Code)
}
