package alerts

import (
	"encoding/json"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

type opsgenieAlert struct {
	ID          string   `json:"id"`
	Message     string   `json:"message"`
	Alias       string   `json:"alias"`
	Description string   `json:"description"`
	Priority    *string  `json:"priority"`
	Source      string   `json:"source"`
	CreatedAt   string   `json:"createdAt"`
	Tags        []string `json:"tags"`
}

type opsgenieIncident struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Priority    *string `json:"priority"`
	CreatedAt   string  `json:"createdAt"`
}

type opsgenieWebhook struct {
	Action   string            `json:"action"`
	Alert    *opsgenieAlert    `json:"alert"`
	Incident *opsgenieIncident `json:"incident"`
}

// opsgenieSeverities maps Opsgenie priority tokens onto the four-level
// scale. Matching is exact: Opsgenie emits its P-levels uppercase and its
// word tokens lowercase.
var opsgenieSeverities = map[string]database.IncidentSeverity{
	"P1":       database.SeverityP1,
	"P2":       database.SeverityP2,
	"P3":       database.SeverityP3,
	"P4":       database.SeverityP4,
	"critical": database.SeverityP1,
	"high":     database.SeverityP2,
	"moderate": database.SeverityP3,
	"low":      database.SeverityP4,
}

type opsgenieParser struct{}

func (p *opsgenieParser) Provider() string { return "opsgenie" }

// TryParse matches payloads carrying an action field or an alert object
// with a priority. Incident-bearing payloads without those markers belong
// to the PagerDuty shape, which sits earlier in the priority order.
func (p *opsgenieParser) TryParse(raw []byte) (*ParsedAlert, bool) {
	var payload opsgenieWebhook
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}

	matched := payload.Action != "" ||
		(payload.Alert != nil && payload.Alert.Priority != nil)
	if !matched {
		return nil, false
	}

	var (
		title, description, source, createdAt, id string
		priority                                  *string
		tags                                      []string
	)
	switch {
	case payload.Alert != nil:
		title = payload.Alert.Message
		description = payload.Alert.Description
		priority = payload.Alert.Priority
		source = payload.Alert.Source
		createdAt = payload.Alert.CreatedAt
		id = payload.Alert.ID
		tags = payload.Alert.Tags
	case payload.Incident != nil:
		title = payload.Incident.Name
		description = payload.Incident.Description
		priority = payload.Incident.Priority
		createdAt = payload.Incident.CreatedAt
		id = payload.Incident.ID
	default:
		return nil, false
	}

	priorityToken := "P3"
	if priority != nil && *priority != "" {
		priorityToken = *priority
	}
	severity, ok := opsgenieSeverities[priorityToken]
	if !ok {
		severity = database.SeverityP2
	}

	if title == "" {
		title = "Untitled Alert"
	}
	service := serviceFromTags(tags)
	if service == "" {
		service = source
	}
	if service == "" {
		service = "unknown-service"
	}

	return &ParsedAlert{
		Title:       title,
		Service:     service,
		Severity:    severity,
		Description: description,
		Metadata: database.JSONB{
			"opsgenie_alert_id":   id,
			"opsgenie_priority":   priorityToken,
			"opsgenie_source":     source,
			"opsgenie_tags":       tags,
			"opsgenie_created_at": createdAt,
			"raw_payload":         rawPayload(raw),
		},
	}, true
}
