package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/Amitabh1998/sre-ai/internal/api"
	"github.com/Amitabh1998/sre-ai/internal/database"
	"github.com/Amitabh1998/sre-ai/internal/testhelpers"
)

func TestDashboardMetrics(t *testing.T) {
	store, org := setupTestStore(t)
	mux := newTestMux(NewDashboardHandler(store, org.ID))

	statuses := []database.IncidentStatus{
		database.IncidentStatusActive,
		database.IncidentStatusActive,
		database.IncidentStatusAIInvestigating,
		database.IncidentStatusResolved,
	}
	for _, status := range statuses {
		testhelpers.NewIncidentBuilder().
			WithUUID(newUUID()).
			WithOrganization(org.ID).
			WithStatus(status).
			Create(t, store)
	}
	// Legacy rows fold into ai-investigating
	testhelpers.NewIncidentBuilder().
		WithUUID(newUUID()).
		WithOrganization(org.ID).
		WithStatus(database.IncidentStatusLegacyInvestigating).
		Create(t, store)

	var resp api.DashboardMetricsResponse
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/dashboard/metrics", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if resp.Active != 2 {
		t.Errorf("expected 2 active, got %d", resp.Active)
	}
	if resp.AIInvestigating != 2 {
		t.Errorf("expected 2 ai-investigating (legacy folded), got %d", resp.AIInvestigating)
	}
	if resp.Resolved != 1 {
		t.Errorf("expected 1 resolved, got %d", resp.Resolved)
	}
	if resp.Total != 5 {
		t.Errorf("expected total 5, got %d", resp.Total)
	}
}

func TestDashboardActivities(t *testing.T) {
	store, org := setupTestStore(t)
	mux := newTestMux(NewDashboardHandler(store, org.ID))

	for i, title := range []string{"first", "second", "third"} {
		err := store.CreateAIActivity(&database.AIActivity{
			OrganizationID: org.ID,
			Type:           database.AIActivityInvestigating,
			Title:          title,
			Timestamp:      time.Now().Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to create activity: %v", err)
		}
	}

	var resp []api.AIActivityResponse
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/dashboard/activities?limit=2", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if len(resp) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(resp))
	}
	// Newest first
	if resp[0].Title != "third" {
		t.Errorf("expected newest activity first, got %q", resp[0].Title)
	}
}
