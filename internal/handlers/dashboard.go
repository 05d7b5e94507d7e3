package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/Amitabh1998/sre-ai/internal/api"
	"github.com/Amitabh1998/sre-ai/internal/database"
)

// DashboardHandler serves aggregate metrics and the AI activity feed
type DashboardHandler struct {
	store *database.Store
	orgID uint
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(store *database.Store, orgID uint) *DashboardHandler {
	return &DashboardHandler{store: store, orgID: orgID}
}

// SetupRoutes sets up dashboard routes
func (h *DashboardHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dashboard/metrics", h.handleMetrics)
	mux.HandleFunc("GET /api/dashboard/activities", h.handleActivities)
}

func (h *DashboardHandler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountIncidentsByStatus(h.orgID)
	if err != nil {
		log.Printf("Failed to count incidents: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load dashboard metrics")
		return
	}
	api.RespondJSON(w, http.StatusOK, api.ToDashboardMetrics(counts))
}

func (h *DashboardHandler) handleActivities(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	activities, err := h.store.ListAIActivities(h.orgID, limit)
	if err != nil {
		log.Printf("Failed to list AI activities: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load activities")
		return
	}
	api.RespondJSON(w, http.StatusOK, api.ToAIActivityResponses(activities))
}
