package alerts

import (
	"fmt"
	"log"
	"time"

	"github.com/Amitabh1998/sre-ai/internal/database"
	"github.com/Amitabh1998/sre-ai/internal/utils"
)

const (
	maxTitleLen       = 255
	maxServiceLen     = 255
	maxDescriptionLen = 4000
)

// Investigator launches background investigations for freshly-created
// incidents. The front door creates incidents directly in ai-investigating,
// so the run is submitted pre-claimed.
type Investigator interface {
	SubmitClaimed(incidentUUID string) error
}

// IngestResult is the outcome of one webhook ingestion
type IngestResult struct {
	IncidentUUID string
	Provider     string
}

// FrontDoor turns inbound alert webhooks into incidents and kicks off
// their investigations
type FrontDoor struct {
	store        *database.Store
	investigator Investigator
}

// NewFrontDoor creates a FrontDoor. investigator may be nil, in which case
// incidents are created but not auto-investigated.
func NewFrontDoor(store *database.Store, investigator Investigator) *FrontDoor {
	return &FrontDoor{store: store, investigator: investigator}
}

// Ingest normalizes a webhook body, creates an incident for the
// organization, records the alert on the incident timeline, and submits a
// background investigation. Payload shape problems never fail ingestion;
// only an unresolvable organization or an unparseable (non-JSON) body does.
func (f *FrontDoor) Ingest(orgSlug string, raw []byte, providerHint string) (*IngestResult, error) {
	org, err := f.store.GetOrganizationBySlug(orgSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve organization %q: %w", orgSlug, err)
	}

	alert, provider, err := Parse(raw, providerHint)
	if err != nil {
		return nil, err
	}

	metadata := alert.Metadata
	if metadata == nil {
		metadata = database.JSONB{}
	}
	metadata["provider"] = provider
	metadata["webhook_received_at"] = time.Now().UTC().Format(time.RFC3339)

	incident := &database.Incident{
		OrganizationID: org.ID,
		Title:          utils.SanitizeAlertField(alert.Title, maxTitleLen),
		Service:        utils.SanitizeAlertField(alert.Service, maxServiceLen),
		Severity:       alert.Severity,
		Status:         database.IncidentStatusAIInvestigating,
		Description:    utils.SanitizeAlertField(alert.Description, maxDescriptionLen),
		Metadata:       metadata,
	}
	if err := f.store.CreateIncident(incident); err != nil {
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}

	err = f.store.AppendTimelineEvent(&database.TimelineEvent{
		IncidentID:  incident.ID,
		Type:        database.TimelineEventAlertReceived,
		Title:       fmt.Sprintf("Alert received from %s", provider),
		Description: "Alert webhook processed and incident created",
		Metadata:    database.JSONB{"provider": provider},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record alert timeline event: %w", err)
	}

	if f.investigator != nil {
		if err := f.investigator.SubmitClaimed(incident.UUID); err != nil {
			// The incident exists; a human can trigger investigation later
			log.Printf("Failed to submit investigation for incident %s: %v", incident.UUID, err)
		}
	}

	return &IngestResult{IncidentUUID: incident.UUID, Provider: provider}, nil
}
