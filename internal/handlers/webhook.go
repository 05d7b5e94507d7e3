package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/Amitabh1998/sre-ai/internal/alerts"
	"github.com/Amitabh1998/sre-ai/internal/api"
	"github.com/Amitabh1998/sre-ai/internal/database"
	"github.com/Amitabh1998/sre-ai/internal/middleware"
)

const maxWebhookBody = 1 << 20

// WebhookHandler is the alert ingestion front door: monitoring providers
// POST here and an incident comes out the other side.
type WebhookHandler struct {
	frontDoor *alerts.FrontDoor
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(frontDoor *alerts.FrontDoor) *WebhookHandler {
	return &WebhookHandler{frontDoor: frontDoor}
}

// SetupRoutes sets up webhook routes
func (h *WebhookHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook/alerts/{orgSlug}", h.handleAlert)
}

func (h *WebhookHandler) handleAlert(w http.ResponseWriter, r *http.Request) {
	orgSlug := r.PathValue("orgSlug")
	providerHint := r.URL.Query().Get("provider")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		api.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	result, err := h.frontDoor.Ingest(orgSlug, body, providerHint)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			api.RespondError(w, http.StatusNotFound, "Organization not found")
		case errors.Is(err, alerts.ErrInvalidPayload):
			api.RespondError(w, http.StatusBadRequest, "Request body is not valid JSON")
		default:
			log.Printf("Webhook ingestion failed for org %s (request %s): %v",
				orgSlug, middleware.GetRequestID(r.Context()), err)
			api.RespondError(w, http.StatusInternalServerError, "Failed to process alert")
		}
		return
	}

	api.RespondJSON(w, http.StatusOK, map[string]string{
		"status":        "received",
		"incident_uuid": result.IncidentUUID,
		"provider":      result.Provider,
	})
}
