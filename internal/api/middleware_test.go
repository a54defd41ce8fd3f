package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func runMiddleware(t *testing.T, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/reports", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	AdminAuthMiddleware(testSecret)(next).ServeHTTP(rec, req)
	return rec, called
}

func TestAdminAuthMiddlewareMissingHeader(t *testing.T) {
	rec, called := runMiddleware(t, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Fatal("handler must not run without credentials")
	}
}

func TestAdminAuthMiddlewareMalformedHeader(t *testing.T) {
	rec, called := runMiddleware(t, "Token abc")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Fatal("handler must not run with a malformed header")
	}
}

func TestAdminAuthMiddlewareWrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "admin-1", "role": "admin"})
	signed, err := token.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	rec, called := runMiddleware(t, "Bearer "+signed)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Fatal("handler must not run with a forged token")
	}
}

func TestAdminAuthMiddlewareNonAdminForbidden(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec, called := runMiddleware(t, "Bearer "+signed)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-admin token, got %d", rec.Code)
	}
	if called {
		t.Fatal("handler must not run without the admin role")
	}
}

func TestAdminAuthMiddlewareExpiredToken(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":  "admin-1",
		"role": "admin",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	rec, called := runMiddleware(t, "Bearer "+signed)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an expired token, got %d", rec.Code)
	}
	if called {
		t.Fatal("handler must not run with an expired token")
	}
}

func TestAdminAuthMiddlewareTopLevelRole(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":  "admin-1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, called := runMiddleware(t, "Bearer "+signed)
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("expected the request to pass through, got %d", rec.Code)
	}
}

func TestAdminAuthMiddlewareAppMetadataRole(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":          "admin-2",
		"app_metadata": map[string]interface{}{"role": "admin"},
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	rec, called := runMiddleware(t, "Bearer "+signed)
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("expected the nested role claim to authorize, got %d", rec.Code)
	}
}
