package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/Amitabh1998/sre-ai/internal/api"
	"github.com/Amitabh1998/sre-ai/internal/database"
	"github.com/Amitabh1998/sre-ai/internal/secrets"
)

// IntegrationHandler manages external tool connections. Credential blobs
// are encrypted before they touch the database and never leave it in API
// responses.
type IntegrationHandler struct {
	store  *database.Store
	cipher *secrets.Cipher
	orgID  uint
}

// NewIntegrationHandler creates a new integration handler
func NewIntegrationHandler(store *database.Store, cipher *secrets.Cipher, orgID uint) *IntegrationHandler {
	return &IntegrationHandler{store: store, cipher: cipher, orgID: orgID}
}

// SetupRoutes sets up integration routes
func (h *IntegrationHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/integrations", h.handleList)
	mux.HandleFunc("POST /api/integrations", h.handleCreate)
	mux.HandleFunc("GET /api/integrations/{uuid}", h.handleGet)
	mux.HandleFunc("PATCH /api/integrations/{uuid}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/integrations/{uuid}", h.handleDelete)
}

func (h *IntegrationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	integrations, err := h.store.ListIntegrations(h.orgID)
	if err != nil {
		log.Printf("Failed to list integrations: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to list integrations")
		return
	}
	api.RespondJSON(w, http.StatusOK, api.ToIntegrationResponses(integrations))
}

func (h *IntegrationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateIntegrationRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	encrypted := ""
	if len(req.Config) > 0 {
		var err error
		encrypted, err = h.cipher.EncryptConfig(req.Config)
		if err != nil {
			log.Printf("Failed to encrypt integration config: %v", err)
			api.RespondError(w, http.StatusInternalServerError, "Failed to store integration credentials")
			return
		}
	}

	integration := &database.Integration{
		OrganizationID: h.orgID,
		Type:           req.Type,
		Name:           req.Name,
		Category:       database.IntegrationCategory(req.Category),
		Connected:      req.Connected,
		Config:         encrypted,
	}
	if err := h.store.CreateIntegration(integration); err != nil {
		log.Printf("Failed to create integration: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to create integration")
		return
	}

	api.RespondJSON(w, http.StatusCreated, api.ToIntegrationResponse(integration))
}

func (h *IntegrationHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	integration, err := h.store.GetIntegration(h.orgID, r.PathValue("uuid"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			api.RespondError(w, http.StatusNotFound, "Integration not found")
			return
		}
		log.Printf("Failed to load integration: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load integration")
		return
	}
	api.RespondJSON(w, http.StatusOK, api.ToIntegrationResponse(integration))
}

func (h *IntegrationHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	integrationUUID := r.PathValue("uuid")

	var req api.UpdateIntegrationRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Connected != nil {
		updates["connected"] = *req.Connected
	}
	if len(req.Config) > 0 {
		encrypted, err := h.cipher.EncryptConfig(req.Config)
		if err != nil {
			log.Printf("Failed to encrypt integration config: %v", err)
			api.RespondError(w, http.StatusInternalServerError, "Failed to store integration credentials")
			return
		}
		updates["config"] = encrypted
	}
	if len(updates) == 0 {
		api.RespondError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	if err := h.store.UpdateIntegration(h.orgID, integrationUUID, updates); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			api.RespondError(w, http.StatusNotFound, "Integration not found")
			return
		}
		log.Printf("Failed to update integration %s: %v", integrationUUID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to update integration")
		return
	}

	integration, err := h.store.GetIntegration(h.orgID, integrationUUID)
	if err != nil {
		log.Printf("Failed to reload integration %s: %v", integrationUUID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load integration")
		return
	}
	api.RespondJSON(w, http.StatusOK, api.ToIntegrationResponse(integration))
}

func (h *IntegrationHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteIntegration(h.orgID, r.PathValue("uuid")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			api.RespondError(w, http.StatusNotFound, "Integration not found")
			return
		}
		log.Printf("Failed to delete integration: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to delete integration")
		return
	}
	api.RespondNoContent(w)
}
