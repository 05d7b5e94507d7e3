package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Amitabh1998/sre-ai/internal/middleware"
)

// RouteRegistrar is implemented by handlers that attach routes to a mux
type RouteRegistrar interface {
	SetupRoutes(mux *http.ServeMux)
}

// Router assembles the full HTTP surface: handler routes, the websocket
// feed, and the middleware chain (request ID → CORS → JWT auth).
type Router struct {
	Auth      *middleware.JWTAuthMiddleware
	CORS      *middleware.CORSMiddleware
	Handlers  []RouteRegistrar
	WSHandler http.HandlerFunc
}

// Build returns the assembled handler
func (rt *Router) Build() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)

	for _, h := range rt.Handlers {
		if h != nil {
			h.SetupRoutes(mux)
		}
	}
	if rt.WSHandler != nil {
		mux.HandleFunc("GET /ws/activities", rt.WSHandler)
	}

	var handler http.Handler = mux
	if rt.Auth != nil {
		handler = rt.Auth.Wrap(handler)
	}
	if rt.CORS != nil {
		handler = rt.CORS.Wrap(handler)
	}
	return middleware.RequestIDMiddleware(handler)
}

// handleHealth returns a simple health check response
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]string{
		"status":  "ok",
		"version": "1.0.0",
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding health response: %v", err)
	}
}
