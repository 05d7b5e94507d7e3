package alerts

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

type datadogEvent struct {
	Title        string   `json:"title"`
	Text         string   `json:"text"`
	AlertType    *string  `json:"alert_type"`
	DateHappened *int64   `json:"date_happened"`
	Tags         []string `json:"tags"`
	Host         string   `json:"host"`
	Source       string   `json:"source"`
}

type datadogAlert struct {
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	Severity     string   `json:"severity"`
	DateHappened *int64   `json:"date_happened"`
	Tags         []string `json:"tags"`
	Host         string   `json:"host"`
}

type datadogWebhook struct {
	Event *datadogEvent `json:"event"`
	Alert *datadogAlert `json:"alert"`
}

// datadogSeverities maps Datadog alert types onto the four-level scale
var datadogSeverities = map[string]database.IncidentSeverity{
	"error":   database.SeverityP1,
	"warning": database.SeverityP2,
	"info":    database.SeverityP3,
	"success": database.SeverityP4,
}

type datadogParser struct{}

func (p *datadogParser) Provider() string { return "datadog" }

// TryParse matches payloads carrying an event with an alert_type or an
// alert with a date_happened, the markers that distinguish the Datadog
// shape from the other alert-bearing providers
func (p *datadogParser) TryParse(raw []byte) (*ParsedAlert, bool) {
	var payload datadogWebhook
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}

	matched := (payload.Event != nil && payload.Event.AlertType != nil) ||
		(payload.Alert != nil && payload.Alert.DateHappened != nil)
	if !matched {
		return nil, false
	}

	var (
		title, description, host, source string
		alertType                        string
		dateHappened                     *int64
		tags                             []string
	)
	if payload.Event != nil {
		title = payload.Event.Title
		description = payload.Event.Text
		host = payload.Event.Host
		source = payload.Event.Source
		dateHappened = payload.Event.DateHappened
		tags = payload.Event.Tags
		if payload.Event.AlertType != nil {
			alertType = *payload.Event.AlertType
		}
	} else {
		title = payload.Alert.Title
		description = payload.Alert.Message
		host = payload.Alert.Host
		alertType = payload.Alert.Severity
		dateHappened = payload.Alert.DateHappened
		tags = payload.Alert.Tags
	}

	if alertType == "" {
		alertType = "warning"
	}
	severity, ok := datadogSeverities[strings.ToLower(alertType)]
	if !ok {
		severity = database.SeverityP2
	}

	if title == "" {
		title = "Untitled Alert"
	}
	service := serviceFromTags(tags)
	if service == "" {
		service = host
	}
	if service == "" {
		service = source
	}
	if service == "" {
		service = "unknown-service"
	}

	happenedAt := time.Now().UTC().Format(time.RFC3339)
	if dateHappened != nil {
		happenedAt = time.Unix(*dateHappened, 0).UTC().Format(time.RFC3339)
	}

	return &ParsedAlert{
		Title:       title,
		Service:     service,
		Severity:    severity,
		Description: description,
		Metadata: database.JSONB{
			"datadog_alert_type":    alertType,
			"datadog_host":          host,
			"datadog_source":        source,
			"datadog_tags":          tags,
			"datadog_date_happened": happenedAt,
			"raw_payload":           rawPayload(raw),
		},
	}, true
}
