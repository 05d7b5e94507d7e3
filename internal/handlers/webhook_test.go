package handlers

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/Amitabh1998/sre-ai/internal/alerts"
	"github.com/Amitabh1998/sre-ai/internal/database"
	"github.com/Amitabh1998/sre-ai/internal/testhelpers"
)

// fakeInvestigator records pre-claimed submissions
type fakeInvestigator struct {
	submitted []string
}

func (f *fakeInvestigator) SubmitClaimed(incidentUUID string) error {
	f.submitted = append(f.submitted, incidentUUID)
	return nil
}

func setupWebhookMux(t *testing.T) (*database.Store, *database.Organization, *fakeInvestigator, http.Handler) {
	t.Helper()
	store, org := setupTestStore(t)
	investigator := &fakeInvestigator{}
	frontDoor := alerts.NewFrontDoor(store, investigator)
	mux := newTestMux(NewWebhookHandler(frontDoor))
	return store, org, investigator, mux
}

func TestWebhookCreatesIncidentFromOpsgenieAlert(t *testing.T) {
	store, org, investigator, mux := setupWebhookMux(t)

	payload := []byte(`{
		"action": "Create",
		"alert": {
			"message": "Database connection pool exhausted",
			"priority": "P1",
			"tags": ["service:payments"]
		}
	}`)

	var resp map[string]string
	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/webhook/alerts/acme", bytes.NewReader(payload)).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if resp["provider"] != "opsgenie" {
		t.Errorf("expected provider 'opsgenie', got %q", resp["provider"])
	}

	incident, err := store.GetIncident(org.ID, resp["incident_uuid"])
	if err != nil {
		t.Fatalf("failed to load created incident: %v", err)
	}
	if incident.Status != database.IncidentStatusAIInvestigating {
		t.Errorf("expected status 'ai-investigating', got %q", incident.Status)
	}
	if incident.Severity != database.SeverityP1 {
		t.Errorf("expected severity P1, got %q", incident.Severity)
	}
	if len(investigator.submitted) != 1 || investigator.submitted[0] != incident.UUID {
		t.Errorf("expected investigation submission for %s, got %v", incident.UUID, investigator.submitted)
	}
}

func TestWebhookUnknownOrganization(t *testing.T) {
	_, _, _, mux := setupWebhookMux(t)

	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/webhook/alerts/nope", bytes.NewReader([]byte(`{}`))).
		Execute(mux).
		AssertStatus(http.StatusNotFound)
}

func TestWebhookInvalidJSON(t *testing.T) {
	_, _, _, mux := setupWebhookMux(t)

	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/webhook/alerts/acme", bytes.NewReader([]byte("not json"))).
		Execute(mux).
		AssertStatus(http.StatusBadRequest)
}

func TestWebhookEmptyObjectDegradesToPlaceholders(t *testing.T) {
	store, org, _, mux := setupWebhookMux(t)

	var resp map[string]string
	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/webhook/alerts/acme", bytes.NewReader([]byte(`{}`))).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if resp["provider"] != "generic" {
		t.Errorf("expected provider 'generic', got %q", resp["provider"])
	}

	incident, err := store.GetIncident(org.ID, resp["incident_uuid"])
	if err != nil {
		t.Fatalf("failed to load created incident: %v", err)
	}
	if incident.Title != "Untitled Alert" {
		t.Errorf("expected placeholder title, got %q", incident.Title)
	}
	if incident.Service != "unknown-service" {
		t.Errorf("expected placeholder service, got %q", incident.Service)
	}
}

func TestWebhookProviderHint(t *testing.T) {
	store, org, _, mux := setupWebhookMux(t)

	payload := []byte(`{
		"event": {
			"incident": {
				"title": "Checkout 5xx burst",
				"urgency": "warning",
				"service": {"name": "checkout"}
			}
		}
	}`)

	var resp map[string]string
	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/webhook/alerts/acme?provider=pagerduty", bytes.NewReader(payload)).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if resp["provider"] != "pagerduty" {
		t.Errorf("expected provider 'pagerduty', got %q", resp["provider"])
	}

	incident, err := store.GetIncident(org.ID, resp["incident_uuid"])
	if err != nil {
		t.Fatalf("failed to load created incident: %v", err)
	}
	if incident.Severity != database.SeverityP2 {
		t.Errorf("expected severity P2 for warning urgency, got %q", incident.Severity)
	}
}
