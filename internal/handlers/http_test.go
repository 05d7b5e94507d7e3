package handlers

import (
	"net/http"
	"testing"

	"github.com/Amitabh1998/sre-ai/internal/middleware"
	"github.com/Amitabh1998/sre-ai/internal/testhelpers"
)

func TestHealthEndpoint(t *testing.T) {
	var resp map[string]string
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/health", nil).
		ExecuteFunc(handleHealth).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
}

func TestRouterBuildSetsRequestID(t *testing.T) {
	store, org := setupTestStore(t)
	router := &Router{
		CORS: middleware.NewCORSMiddleware(),
		Handlers: []RouteRegistrar{
			NewDashboardHandler(store, org.ID),
			nil,
		},
	}

	ctx := testhelpers.NewHTTPTestContext(t, http.MethodGet, "/health", nil).
		Execute(router.Build()).
		AssertStatus(http.StatusOK)

	if ctx.Recorder.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected an X-Request-ID header on every response")
	}
}

func TestRouterBuildUnknownRoute(t *testing.T) {
	router := &Router{}
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/nope", nil).
		Execute(router.Build()).
		AssertStatus(http.StatusNotFound)
}
