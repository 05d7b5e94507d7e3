package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/Amitabh1998/sre-ai/internal/api"
	"github.com/Amitabh1998/sre-ai/internal/database"
	"github.com/Amitabh1998/sre-ai/internal/investigation"
	"github.com/Amitabh1998/sre-ai/internal/middleware"
	"github.com/Amitabh1998/sre-ai/internal/notify"
)

// InvestigationDispatcher launches background investigations
type InvestigationDispatcher interface {
	Submit(incidentUUID string) error
}

// IncidentHandler handles incident CRUD and investigation triggering.
// The dashboard is single-tenant: every request operates on the default
// organization resolved at startup. Webhooks remain slug-addressed.
type IncidentHandler struct {
	store      *database.Store
	dispatcher InvestigationDispatcher
	notifier   *notify.SlackNotifier
	orgID      uint
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(store *database.Store, dispatcher InvestigationDispatcher, notifier *notify.SlackNotifier, orgID uint) *IncidentHandler {
	return &IncidentHandler{
		store:      store,
		dispatcher: dispatcher,
		notifier:   notifier,
		orgID:      orgID,
	}
}

// SetupRoutes sets up incident routes
func (h *IncidentHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/incidents", h.handleList)
	mux.HandleFunc("POST /api/incidents", h.handleCreate)
	mux.HandleFunc("GET /api/incidents/{uuid}", h.handleGet)
	mux.HandleFunc("PATCH /api/incidents/{uuid}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/incidents/{uuid}", h.handleDelete)
	mux.HandleFunc("GET /api/incidents/{uuid}/timeline", h.handleTimeline)
	mux.HandleFunc("GET /api/incidents/{uuid}/hypotheses", h.handleHypotheses)
	mux.HandleFunc("POST /api/incidents/{uuid}/investigate", h.handleInvestigate)
}

func (h *IncidentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	params := api.ParsePagination(r)

	filter := database.IncidentFilter{
		Status:   database.IncidentStatus(r.URL.Query().Get("status")),
		Service:  r.URL.Query().Get("service"),
		Severity: database.IncidentSeverity(r.URL.Query().Get("severity")),
	}

	incidents, total, err := h.store.ListIncidents(h.orgID, filter, params.Offset(), params.PerPage)
	if err != nil {
		log.Printf("Failed to list incidents: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to list incidents")
		return
	}

	api.RespondJSON(w, http.StatusOK, api.IncidentListResponse{
		Incidents: api.ToIncidentResponses(incidents),
		Meta:      params.MetaFor(total),
	})
}

func (h *IncidentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateIncidentRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	incident := &database.Incident{
		OrganizationID: h.orgID,
		Title:          req.Title,
		Service:        req.Service,
		Severity:       database.IncidentSeverity(req.Severity),
		Status:         database.IncidentStatusActive,
		Description:    req.Description,
		Metadata:       req.Metadata,
	}
	if err := h.store.CreateIncident(incident); err != nil {
		log.Printf("Failed to create incident: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to create incident")
		return
	}

	h.notifier.IncidentCreated(incident)
	api.RespondJSON(w, http.StatusCreated, api.ToIncidentResponse(incident))
}

func (h *IncidentHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	incident, ok := h.loadIncident(w, r)
	if !ok {
		return
	}
	api.RespondJSON(w, http.StatusOK, api.ToIncidentResponse(incident))
}

func (h *IncidentHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	incidentUUID := r.PathValue("uuid")

	var req api.UpdateIncidentRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Service != nil {
		updates["service"] = *req.Service
	}
	if req.Severity != nil {
		updates["severity"] = *req.Severity
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = *req.AssignedTo
	}

	// Status changes go through SetIncidentStatus so terminal transitions
	// stamp resolved_at and derive the MTTR
	if req.Status != nil {
		status := database.IncidentStatus(*req.Status)
		if err := h.store.SetIncidentStatus(incidentUUID, status); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				api.RespondError(w, http.StatusNotFound, "Incident not found")
				return
			}
			log.Printf("Failed to update incident %s status: %v", incidentUUID, err)
			api.RespondError(w, http.StatusInternalServerError, "Failed to update incident")
			return
		}
	}

	if len(updates) == 0 && req.Status == nil {
		api.RespondError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	var incident *database.Incident
	var err error
	if len(updates) > 0 {
		incident, err = h.store.UpdateIncident(h.orgID, incidentUUID, updates)
	} else {
		incident, err = h.store.GetIncident(h.orgID, incidentUUID)
	}
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			api.RespondError(w, http.StatusNotFound, "Incident not found")
			return
		}
		log.Printf("Failed to update incident %s: %v", incidentUUID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to update incident")
		return
	}

	if req.Status != nil && database.IncidentStatus(*req.Status) == database.IncidentStatusResolved {
		h.notifier.IncidentResolved(incident)
	}
	api.RespondJSON(w, http.StatusOK, api.ToIncidentResponse(incident))
}

func (h *IncidentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	incidentUUID := r.PathValue("uuid")

	if err := h.store.DeleteIncident(h.orgID, incidentUUID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			api.RespondError(w, http.StatusNotFound, "Incident not found")
			return
		}
		log.Printf("Failed to delete incident %s: %v", incidentUUID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to delete incident")
		return
	}

	if user := middleware.GetUserFromContext(r.Context()); user != "" {
		log.Printf("Incident %s deleted by %s", incidentUUID, user)
	}
	api.RespondNoContent(w)
}

func (h *IncidentHandler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	incident, ok := h.loadIncident(w, r)
	if !ok {
		return
	}

	events, err := h.store.ListTimeline(incident.ID)
	if err != nil {
		log.Printf("Failed to list timeline for incident %s: %v", incident.UUID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load timeline")
		return
	}
	api.RespondJSON(w, http.StatusOK, api.ToTimelineResponses(events))
}

func (h *IncidentHandler) handleHypotheses(w http.ResponseWriter, r *http.Request) {
	incident, ok := h.loadIncident(w, r)
	if !ok {
		return
	}

	hypotheses, err := h.store.ListHypotheses(incident.ID)
	if err != nil {
		log.Printf("Failed to list hypotheses for incident %s: %v", incident.UUID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load hypotheses")
		return
	}
	api.RespondJSON(w, http.StatusOK, api.ToHypothesisResponses(hypotheses))
}

func (h *IncidentHandler) handleInvestigate(w http.ResponseWriter, r *http.Request) {
	incident, ok := h.loadIncident(w, r)
	if !ok {
		return
	}

	// The atomic claim inside the investigation guards correctness; this
	// check exists to give the caller a synchronous 409 instead of a
	// silently-dropped duplicate run.
	if incident.Status == database.IncidentStatusAIInvestigating {
		api.RespondErrorWithCode(w, http.StatusConflict, "already_investigating",
			"An investigation is already running for this incident")
		return
	}

	if err := h.dispatcher.Submit(incident.UUID); err != nil {
		if errors.Is(err, investigation.ErrShuttingDown) {
			api.RespondError(w, http.StatusServiceUnavailable, "Server is shutting down")
			return
		}
		log.Printf("Failed to submit investigation for incident %s: %v", incident.UUID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to start investigation")
		return
	}

	api.RespondJSON(w, http.StatusAccepted, map[string]string{
		"status":        "investigation_started",
		"incident_uuid": incident.UUID,
	})
}

func (h *IncidentHandler) loadIncident(w http.ResponseWriter, r *http.Request) (*database.Incident, bool) {
	incident, err := h.store.GetIncident(h.orgID, r.PathValue("uuid"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			api.RespondError(w, http.StatusNotFound, "Incident not found")
			return nil, false
		}
		log.Printf("Failed to load incident: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load incident")
		return nil, false
	}
	return incident, true
}
