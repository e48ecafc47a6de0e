package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pustaka/internal/common"
)

const testSecret = "pustaka-test-secret"

func signToken(t *testing.T, now time.Time, mutate func(*jwt.Builder)) string {
	t.Helper()
	builder := jwt.NewBuilder().
		Subject("11111111-2222-3333-4444-555555555555").
		Issuer("pustaka").
		Audience([]string{"pustaka-api"}).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(15 * time.Minute))
	if mutate != nil {
		mutate(builder)
	}
	token, err := builder.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)
	return string(signed)
}

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Secret:    testSecret,
		Issuer:    "pustaka",
		Audience:  "pustaka-api",
		ClockSkew: 30 * time.Second,
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)
	return svc
}

func TestParseAccessTokenReturnsIdentity(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)

	raw := signToken(t, now, func(b *jwt.Builder) {
		b.Claim(rolesClaim, []string{"admin", "author"})
	})

	identity, err := svc.ParseAccessToken(raw)
	require.NoError(t, err)
	require.Equal(t, "11111111-2222-3333-4444-555555555555", identity.UserID)
	require.Equal(t, []string{"admin", "author"}, identity.Roles)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)

	token, err := jwt.NewBuilder().
		Subject("user").
		Issuer("pustaka").
		Audience([]string{"pustaka-api"}).
		IssuedAt(now).
		Expiration(now.Add(time.Minute)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte("other-secret")))
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(string(signed))
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)

	raw := signToken(t, now.Add(-time.Hour), nil)
	_, err := svc.ParseAccessToken(raw)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)

	raw := signToken(t, now, func(b *jwt.Builder) {
		b.Issuer("someone-else")
	})
	_, err := svc.ParseAccessToken(raw)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsMissingSubject(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)

	raw := signToken(t, now, func(b *jwt.Builder) {
		b.Subject("")
	})
	_, err := svc.ParseAccessToken(raw)
	require.Error(t, err)
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	now := time.Now()
	mw := Middleware{Service: newTestService(t, now)}

	var gotUser string
	var isAdmin bool
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = common.UserID(r.Context())
		isAdmin = common.HasRole(r.Context(), "admin")
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, now, func(b *jwt.Builder) {
		b.Claim(rolesClaim, []string{"admin"})
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "11111111-2222-3333-4444-555555555555", gotUser)
	require.True(t, isAdmin)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	mw := Middleware{Service: newTestService(t, time.Now())}

	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	now := time.Now()
	mw := Middleware{Service: newTestService(t, now)}

	handler := mw.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, now, func(b *jwt.Builder) {
		b.Claim(rolesClaim, []string{"reader"})
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthenticateIsOptional(t *testing.T) {
	mw := Middleware{Service: newTestService(t, time.Now())}

	var sawUser bool
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawUser = common.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, sawUser)
}
