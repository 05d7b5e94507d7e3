// Package alerts normalizes inbound webhook payloads from alerting
// providers into a canonical alert and feeds them into the incident
// pipeline.
package alerts

import (
	"encoding/json"
	"errors"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

// ErrInvalidPayload is returned when a webhook body is not valid JSON
var ErrInvalidPayload = errors.New("webhook payload is not valid JSON")

// ParsedAlert is the canonical alert shape every provider parser produces
type ParsedAlert struct {
	Title       string
	Service     string
	Severity    database.IncidentSeverity
	Description string
	Metadata    database.JSONB
}

// Parser attempts a typed parse of a provider-specific webhook shape.
// TryParse reports false when the payload does not structurally match the
// provider, so the next parser in priority order gets a turn.
type Parser interface {
	Provider() string
	TryParse(raw []byte) (*ParsedAlert, bool)
}

// parserOrder is the fixed detection priority. First structural match
// wins; the generic parser at the end accepts anything.
var parserOrder = []Parser{
	&pagerDutyParser{},
	&opsgenieParser{},
	&datadogParser{},
	&genericParser{},
}

// Parse normalizes a webhook body into a ParsedAlert. A provider hint, when
// given, is tried first; a hinted parser that does not match the payload
// degrades to detection rather than failing. The returned string names the
// provider that actually parsed the payload.
func Parse(raw []byte, providerHint string) (*ParsedAlert, string, error) {
	if !json.Valid(raw) {
		return nil, "", ErrInvalidPayload
	}

	if providerHint != "" {
		for _, p := range parserOrder {
			if p.Provider() != providerHint {
				continue
			}
			if alert, ok := p.TryParse(raw); ok {
				return alert, p.Provider(), nil
			}
		}
	}

	for _, p := range parserOrder {
		if alert, ok := p.TryParse(raw); ok {
			return alert, p.Provider(), nil
		}
	}

	// Unreachable: the generic parser accepts any valid JSON
	return nil, "", ErrInvalidPayload
}

// rawPayload decodes the body for the metadata audit trail
func rawPayload(raw []byte) interface{} {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// serviceFromTags extracts a "service:<name>" tag, empty when absent
func serviceFromTags(tags []string) string {
	const prefix = "service:"
	for _, tag := range tags {
		if len(tag) > len(prefix) && tag[:len(prefix)] == prefix {
			return tag[len(prefix):]
		}
	}
	return ""
}
