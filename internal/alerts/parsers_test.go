package alerts

import (
	"testing"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

func TestParseDetectionOrder(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		provider string
	}{
		{
			name:     "pagerduty flat incident",
			payload:  `{"incident": {"title": "DB down", "severity": "critical", "service": {"name": "postgres"}}}`,
			provider: "pagerduty",
		},
		{
			name:     "pagerduty event envelope",
			payload:  `{"event": {"event_type": "incident.triggered", "incident": {"title": "DB down"}}}`,
			provider: "pagerduty",
		},
		{
			name:     "opsgenie alert with priority",
			payload:  `{"alert": {"message": "CPU high", "priority": "P2"}}`,
			provider: "opsgenie",
		},
		{
			name:     "opsgenie action marker",
			payload:  `{"action": "Create", "alert": {"message": "Disk full"}}`,
			provider: "opsgenie",
		},
		{
			name:     "datadog event with alert_type",
			payload:  `{"event": {"title": "Monitor triggered", "alert_type": "error"}}`,
			provider: "datadog",
		},
		{
			name:     "datadog alert with date_happened",
			payload:  `{"alert": {"title": "Monitor triggered", "date_happened": 1700000000}}`,
			provider: "datadog",
		},
		{
			name:     "alert without provider markers",
			payload:  `{"alert": {"message": "Mystery"}}`,
			provider: "generic",
		},
		{
			name:     "flat custom payload",
			payload:  `{"title": "Custom alert", "service": "billing"}`,
			provider: "generic",
		},
		{
			name:     "empty object",
			payload:  `{}`,
			provider: "generic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, provider, err := Parse([]byte(tt.payload), "")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if provider != tt.provider {
				t.Errorf("detected provider %q, want %q", provider, tt.provider)
			}
		})
	}
}

func TestParseInvalidJSON(t *testing.T) {
	_, _, err := Parse([]byte("not json at all"), "")
	if err != ErrInvalidPayload {
		t.Errorf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestParseHintMismatchDegrades(t *testing.T) {
	// Hinted pagerduty but no incident object: detection takes over
	alert, provider, err := Parse([]byte(`{"title": "Plain alert"}`), "pagerduty")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if provider != "generic" {
		t.Errorf("expected generic fallback, got %q", provider)
	}
	if alert.Title != "Plain alert" {
		t.Errorf("unexpected title: %q", alert.Title)
	}
}

func TestPagerDutyParsing(t *testing.T) {
	payload := `{"incident": {
		"id": "PD123",
		"title": "Service checkout is down",
		"status": "triggered",
		"severity": "critical",
		"service": {"name": "checkout"},
		"description": "Health checks failing"
	}}`

	alert, provider, err := Parse([]byte(payload), "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if provider != "pagerduty" {
		t.Fatalf("expected pagerduty, got %q", provider)
	}
	if alert.Title != "Service checkout is down" {
		t.Errorf("unexpected title: %q", alert.Title)
	}
	if alert.Service != "checkout" {
		t.Errorf("unexpected service: %q", alert.Service)
	}
	if alert.Severity != database.SeverityP1 {
		t.Errorf("expected P1, got %s", alert.Severity)
	}
	if alert.Description != "Health checks failing" {
		t.Errorf("unexpected description: %q", alert.Description)
	}
	if alert.Metadata["pagerduty_incident_id"] != "PD123" {
		t.Errorf("unexpected metadata: %v", alert.Metadata)
	}
	if alert.Metadata["raw_payload"] == nil {
		t.Error("expected raw payload in metadata")
	}
}

func TestPagerDutySeverityMapping(t *testing.T) {
	tests := []struct {
		severity string
		expected database.IncidentSeverity
	}{
		{"critical", database.SeverityP1},
		{"error", database.SeverityP1},
		{"CRITICAL", database.SeverityP1},
		{"warning", database.SeverityP2},
		{"info", database.SeverityP3},
		{"low", database.SeverityP4},
		{"bogus", database.SeverityP2},
		{"", database.SeverityP2},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			payload := `{"incident": {"title": "x", "severity": "` + tt.severity + `"}}`
			alert, _, err := Parse([]byte(payload), "")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if alert.Severity != tt.expected {
				t.Errorf("severity %q mapped to %s, want %s", tt.severity, alert.Severity, tt.expected)
			}
		})
	}
}

func TestPagerDutyPlaceholders(t *testing.T) {
	alert, _, err := Parse([]byte(`{"incident": {"severity": "warning"}}`), "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if alert.Title != "Untitled Incident" {
		t.Errorf("expected placeholder title, got %q", alert.Title)
	}
	if alert.Service != "unknown-service" {
		t.Errorf("expected placeholder service, got %q", alert.Service)
	}
}

func TestOpsgenieParsing(t *testing.T) {
	payload := `{"alert": {
		"id": "OG-9",
		"message": "Queue depth exceeded",
		"priority": "P1",
		"source": "rabbitmq",
		"tags": ["env:prod", "service:order-queue"]
	}}`

	alert, provider, err := Parse([]byte(payload), "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if provider != "opsgenie" {
		t.Fatalf("expected opsgenie, got %q", provider)
	}
	if alert.Title != "Queue depth exceeded" {
		t.Errorf("unexpected title: %q", alert.Title)
	}
	if alert.Service != "order-queue" {
		t.Errorf("expected service from tag, got %q", alert.Service)
	}
	if alert.Severity != database.SeverityP1 {
		t.Errorf("expected P1, got %s", alert.Severity)
	}
}

func TestOpsgenieSeverityMapping(t *testing.T) {
	tests := []struct {
		priority string
		expected database.IncidentSeverity
	}{
		{"P1", database.SeverityP1},
		{"P2", database.SeverityP2},
		{"P3", database.SeverityP3},
		{"P4", database.SeverityP4},
		{"critical", database.SeverityP1},
		{"high", database.SeverityP2},
		{"moderate", database.SeverityP3},
		{"low", database.SeverityP4},
		{"P5", database.SeverityP2},
	}

	for _, tt := range tests {
		t.Run(tt.priority, func(t *testing.T) {
			payload := `{"alert": {"message": "x", "priority": "` + tt.priority + `"}}`
			alert, _, err := Parse([]byte(payload), "")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if alert.Severity != tt.expected {
				t.Errorf("priority %q mapped to %s, want %s", tt.priority, alert.Severity, tt.expected)
			}
		})
	}
}

func TestOpsgenieSourceFallback(t *testing.T) {
	payload := `{"alert": {"message": "x", "priority": "P3", "source": "node-12"}}`
	alert, _, err := Parse([]byte(payload), "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if alert.Service != "node-12" {
		t.Errorf("expected source fallback, got %q", alert.Service)
	}
}

func TestDatadogParsing(t *testing.T) {
	payload := `{"event": {
		"title": "CPU saturation on web tier",
		"text": "cpu.user above 90%",
		"alert_type": "error",
		"tags": ["service:web"],
		"host": "web-01"
	}}`

	alert, provider, err := Parse([]byte(payload), "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if provider != "datadog" {
		t.Fatalf("expected datadog, got %q", provider)
	}
	if alert.Service != "web" {
		t.Errorf("expected service from tag, got %q", alert.Service)
	}
	if alert.Severity != database.SeverityP1 {
		t.Errorf("expected P1 for error alert_type, got %s", alert.Severity)
	}
	if alert.Description != "cpu.user above 90%" {
		t.Errorf("unexpected description: %q", alert.Description)
	}
}

func TestDatadogSeverityMapping(t *testing.T) {
	tests := []struct {
		alertType string
		expected  database.IncidentSeverity
	}{
		{"error", database.SeverityP1},
		{"warning", database.SeverityP2},
		{"info", database.SeverityP3},
		{"success", database.SeverityP4},
		{"unknown-type", database.SeverityP2},
	}

	for _, tt := range tests {
		t.Run(tt.alertType, func(t *testing.T) {
			payload := `{"event": {"title": "x", "alert_type": "` + tt.alertType + `"}}`
			alert, _, err := Parse([]byte(payload), "")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if alert.Severity != tt.expected {
				t.Errorf("alert_type %q mapped to %s, want %s", tt.alertType, alert.Severity, tt.expected)
			}
		})
	}
}

func TestDatadogHostFallback(t *testing.T) {
	payload := `{"event": {"title": "x", "alert_type": "warning", "host": "db-03"}}`
	alert, _, err := Parse([]byte(payload), "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if alert.Service != "db-03" {
		t.Errorf("expected host fallback, got %q", alert.Service)
	}
}

func TestGenericParsing(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		title   string
		service string
	}{
		{"title and service", `{"title": "Custom", "service": "svc"}`, "Custom", "svc"},
		{"message and source", `{"message": "From script", "source": "cron-7"}`, "From script", "cron-7"},
		{"empty object", `{}`, "Untitled Alert", "unknown-service"},
		{"array payload", `[1, 2, 3]`, "Untitled Alert", "unknown-service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, provider, err := Parse([]byte(tt.payload), "")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if provider != "generic" {
				t.Errorf("expected generic, got %q", provider)
			}
			if alert.Title != tt.title {
				t.Errorf("unexpected title: %q, want %q", alert.Title, tt.title)
			}
			if alert.Service != tt.service {
				t.Errorf("unexpected service: %q, want %q", alert.Service, tt.service)
			}
			if alert.Severity != database.SeverityP2 {
				t.Errorf("generic alerts default to P2, got %s", alert.Severity)
			}
		})
	}
}
