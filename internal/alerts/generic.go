package alerts

import (
	"encoding/json"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

type genericWebhook struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	Service     string `json:"service"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

// genericParser is the last resort: any valid JSON object parses, with
// placeholders filling whatever the payload doesn't provide
type genericParser struct{}

func (p *genericParser) Provider() string { return "generic" }

func (p *genericParser) TryParse(raw []byte) (*ParsedAlert, bool) {
	var payload genericWebhook
	// Non-object payloads (arrays, scalars) still land here with zero
	// values and degrade to placeholders
	_ = json.Unmarshal(raw, &payload)

	title := payload.Title
	if title == "" {
		title = payload.Message
	}
	if title == "" {
		title = "Untitled Alert"
	}
	service := payload.Service
	if service == "" {
		service = payload.Source
	}
	if service == "" {
		service = "unknown-service"
	}

	return &ParsedAlert{
		Title:       title,
		Service:     service,
		Severity:    database.SeverityP2,
		Description: payload.Description,
		Metadata: database.JSONB{
			"raw_payload": rawPayload(raw),
		},
	}, true
}
