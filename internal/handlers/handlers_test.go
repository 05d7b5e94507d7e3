package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

func setupTestStore(t *testing.T) (*database.Store, *database.Organization) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&database.Organization{},
		&database.Incident{},
		&database.TimelineEvent{},
		&database.Hypothesis{},
		&database.Integration{},
		&database.AIActivity{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	store := database.NewStore(db)
	org, err := store.CreateOrganization("Acme", "acme")
	if err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}
	return store, org
}

// newTestMux builds a mux with the given handlers registered, without the
// auth or CORS layers
func newTestMux(registrars ...RouteRegistrar) http.Handler {
	mux := http.NewServeMux()
	for _, r := range registrars {
		r.SetupRoutes(mux)
	}
	return mux
}

// fakeDispatcher records submissions instead of running investigations
type fakeDispatcher struct {
	submitted []string
	err       error
}

func (f *fakeDispatcher) Submit(incidentUUID string) error {
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, incidentUUID)
	return nil
}

func newUUID() string {
	return uuid.New().String()
}
