package alerts

import (
	"encoding/json"
	"strings"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

// pagerDutyIncident is the incident object carried by both the flat and
// the event-enveloped PagerDuty webhook shapes
type pagerDutyIncident struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Severity string `json:"severity"`
	Service  *struct {
		Name string `json:"name"`
	} `json:"service"`
	CreatedAt   string `json:"created_at"`
	Description string `json:"description"`
}

type pagerDutyWebhook struct {
	Event *struct {
		EventType string             `json:"event_type"`
		Incident  *pagerDutyIncident `json:"incident"`
	} `json:"event"`
	Incident *pagerDutyIncident `json:"incident"`
}

// pagerDutySeverities maps PagerDuty severity tokens onto the four-level
// scale; unmapped tokens fall back to P2
var pagerDutySeverities = map[string]database.IncidentSeverity{
	"critical": database.SeverityP1,
	"error":    database.SeverityP1,
	"warning":  database.SeverityP2,
	"info":     database.SeverityP3,
	"low":      database.SeverityP4,
}

type pagerDutyParser struct{}

func (p *pagerDutyParser) Provider() string { return "pagerduty" }

func (p *pagerDutyParser) TryParse(raw []byte) (*ParsedAlert, bool) {
	var payload pagerDutyWebhook
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}

	incident := payload.Incident
	if incident == nil && payload.Event != nil {
		incident = payload.Event.Incident
	}
	if incident == nil {
		return nil, false
	}

	severity, ok := pagerDutySeverities[strings.ToLower(incident.Severity)]
	if !ok {
		severity = database.SeverityP2
	}

	title := incident.Title
	if title == "" {
		title = "Untitled Incident"
	}
	service := "unknown-service"
	if incident.Service != nil && incident.Service.Name != "" {
		service = incident.Service.Name
	}

	return &ParsedAlert{
		Title:       title,
		Service:     service,
		Severity:    severity,
		Description: incident.Description,
		Metadata: database.JSONB{
			"pagerduty_incident_id": incident.ID,
			"pagerduty_status":      incident.Status,
			"pagerduty_severity":    incident.Severity,
			"pagerduty_created_at":  incident.CreatedAt,
			"raw_payload":           rawPayload(raw),
		},
	}, true
}
