package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/vodapp/backend/internal/repo/postgres"
	redrepo "github.com/ivankudzin/vodapp/backend/internal/repo/redis"
	authsvc "github.com/ivankudzin/vodapp/backend/internal/services/auth"
)

type userStoreStub struct{}

func (userStoreStub) FindCredentialsByEmail(context.Context, string) (model.User, string, error) {
	return model.User{}, "", pgrepo.ErrUserNotFound
}

func newAuthServiceForMiddlewareTest(t *testing.T) *authsvc.Service {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redrepo.NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	jwtManager := authsvc.NewJWTManager("middleware-test-secret", 15*time.Minute)
	return authsvc.NewService(jwtManager, redrepo.NewSessionRepo(client), userStoreStub{}, time.Hour)
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	svc := newAuthServiceForMiddlewareTest(t)
	called := false
	handler := AuthMiddleware(svc, nil)(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/videos/42/progress", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Fatal("next handler must not run without a token")
	}
}

func TestAuthMiddlewareRejectsForgedToken(t *testing.T) {
	svc := newAuthServiceForMiddlewareTest(t)
	called := false
	handler := AuthMiddleware(svc, nil)(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/videos/42/progress", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Fatal("next handler must not run with a forged token")
	}
}

func TestOptionalAuthPassesAnonymousThrough(t *testing.T) {
	svc := newAuthServiceForMiddlewareTest(t)

	var sawIdentity bool
	handler := OptionalAuthMiddleware(svc, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawIdentity = authsvc.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/videos/42/entitlement", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if sawIdentity {
		t.Fatal("anonymous request must not carry an identity")
	}
}

func TestOptionalAuthTreatsBadTokenAsAnonymous(t *testing.T) {
	svc := newAuthServiceForMiddlewareTest(t)

	var sawIdentity bool
	handler := OptionalAuthMiddleware(svc, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawIdentity = authsvc.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/videos/42/entitlement", nil)
	req.Header.Set("Authorization", "Bearer expired-or-garbage")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if sawIdentity {
		t.Fatal("invalid token must downgrade to anonymous, not attach an identity")
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc123", "abc123", true},
		{"bearer abc123", "abc123", true},
		{"Bearer ", "", false},
		{"Basic abc123", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		token, ok := extractBearerToken(tc.header)
		if ok != tc.ok || token != tc.token {
			t.Fatalf("header %q: got (%q, %v) want (%q, %v)", tc.header, token, ok, tc.token, tc.ok)
		}
	}
}
