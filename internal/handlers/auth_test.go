package handlers

import (
	"net/http"
	"testing"

	"github.com/Amitabh1998/sre-ai/internal/api"
	"github.com/Amitabh1998/sre-ai/internal/middleware"
	"github.com/Amitabh1998/sre-ai/internal/testhelpers"
)

func newTestAuth(t *testing.T) *middleware.JWTAuthMiddleware {
	t.Helper()
	hash, err := middleware.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return middleware.NewJWTAuthMiddleware(&middleware.JWTAuthConfig{
		Enabled:           true,
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		JWTSecret:         "test-secret",
		JWTExpiryHours:    1,
		SkipPaths:         []string{"/health", "/auth/login"},
	})
}

func TestLoginIssuesToken(t *testing.T) {
	auth := newTestAuth(t)
	mux := newTestMux(NewAuthHandler(auth))

	var resp api.LoginResponse
	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/auth/login", nil).
		WithJSONBody(map[string]string{"username": "admin", "password": "correct-horse"}).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.ExpiresAt == 0 {
		t.Error("expected an expiry timestamp")
	}

	claims, err := auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token failed validation: %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("expected username 'admin' in claims, got %q", claims.Username)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	mux := newTestMux(NewAuthHandler(newTestAuth(t)))

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "nope"},
		{"wrong username", "root", "correct-horse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testhelpers.NewHTTPTestContext(t, http.MethodPost, "/auth/login", nil).
				WithJSONBody(map[string]string{"username": tt.username, "password": tt.password}).
				Execute(mux).
				AssertStatus(http.StatusUnauthorized)
		})
	}
}

func TestAuthMiddlewareProtectsAPIRoutes(t *testing.T) {
	store, org := setupTestStore(t)
	auth := newTestAuth(t)

	router := &Router{
		Auth: auth,
		Handlers: []RouteRegistrar{
			NewAuthHandler(auth),
			NewIncidentHandler(store, &fakeDispatcher{}, nil, org.ID),
		},
	}
	handler := router.Build()

	// No token
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/incidents", nil).
		Execute(handler).
		AssertStatus(http.StatusUnauthorized).
		AssertHeader("WWW-Authenticate", `Bearer realm="API"`)

	// Health is always open
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/health", nil).
		Execute(handler).
		AssertStatus(http.StatusOK)

	// With a valid token
	token, _, err := auth.GenerateToken("admin")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/incidents", nil).
		WithBearerToken(token).
		Execute(handler).
		AssertStatus(http.StatusOK)
}
