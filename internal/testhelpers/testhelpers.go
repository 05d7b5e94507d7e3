// Package testhelpers provides reusable testing utilities.
//
// This package contains:
// - HTTP test helpers (building requests, running handlers)
// - Sample data builders (incidents, hypotheses, integrations)
// - Assertion helpers
package testhelpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

// ========================================
// HTTP Test Helpers
// ========================================

// HTTPTestContext holds components for HTTP handler testing
type HTTPTestContext struct {
	T        *testing.T
	Recorder *httptest.ResponseRecorder
	Request  *http.Request
}

// NewHTTPTestContext creates a new HTTP test context
func NewHTTPTestContext(t *testing.T, method, path string, body io.Reader) *HTTPTestContext {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	return &HTTPTestContext{
		T:        t,
		Recorder: httptest.NewRecorder(),
		Request:  req,
	}
}

// WithHeader adds a header to the request
func (ctx *HTTPTestContext) WithHeader(key, value string) *HTTPTestContext {
	ctx.Request.Header.Set(key, value)
	return ctx
}

// WithJSONBody sets JSON body on the request
func (ctx *HTTPTestContext) WithJSONBody(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		ctx.T.Fatalf("failed to marshal JSON body: %v", err)
	}
	ctx.Request = httptest.NewRequest(ctx.Request.Method, ctx.Request.URL.String(), bytes.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")
	return ctx
}

// WithBearerToken adds Authorization Bearer header
func (ctx *HTTPTestContext) WithBearerToken(token string) *HTTPTestContext {
	return ctx.WithHeader("Authorization", "Bearer "+token)
}

// Execute runs the handler and returns the response
func (ctx *HTTPTestContext) Execute(handler http.Handler) *HTTPTestContext {
	handler.ServeHTTP(ctx.Recorder, ctx.Request)
	return ctx
}

// ExecuteFunc runs the handler func and returns the response
func (ctx *HTTPTestContext) ExecuteFunc(handler http.HandlerFunc) *HTTPTestContext {
	handler(ctx.Recorder, ctx.Request)
	return ctx
}

// AssertStatus checks the response status code
func (ctx *HTTPTestContext) AssertStatus(expected int) *HTTPTestContext {
	ctx.T.Helper()
	if ctx.Recorder.Code != expected {
		ctx.T.Errorf("expected status %d, got %d. Body: %s", expected, ctx.Recorder.Code, ctx.Recorder.Body.String())
	}
	return ctx
}

// AssertBodyContains checks if response body contains substring
func (ctx *HTTPTestContext) AssertBodyContains(substr string) *HTTPTestContext {
	ctx.T.Helper()
	body := ctx.Recorder.Body.String()
	if !strings.Contains(body, substr) {
		ctx.T.Errorf("expected body to contain %q, got: %s", substr, body)
	}
	return ctx
}

// AssertHeader checks response header value
func (ctx *HTTPTestContext) AssertHeader(key, expected string) *HTTPTestContext {
	ctx.T.Helper()
	got := ctx.Recorder.Header().Get(key)
	if got != expected {
		ctx.T.Errorf("expected header %s=%q, got %q", key, expected, got)
	}
	return ctx
}

// DecodeJSON decodes response body as JSON
func (ctx *HTTPTestContext) DecodeJSON(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	if err := json.NewDecoder(ctx.Recorder.Body).Decode(v); err != nil {
		ctx.T.Fatalf("failed to decode JSON response: %v", err)
	}
	return ctx
}

// ========================================
// Sample Data Builders
// ========================================

// IncidentBuilder builds Incident instances for testing
type IncidentBuilder struct {
	incident database.Incident
}

// NewIncidentBuilder creates a new incident builder with defaults
func NewIncidentBuilder() *IncidentBuilder {
	return &IncidentBuilder{
		incident: database.Incident{
			UUID:           "test-incident-" + time.Now().Format("20060102150405.000000"),
			OrganizationID: 1,
			Title:          "Test Incident",
			Service:        "test-service",
			Severity:       database.SeverityP2,
			Status:         database.IncidentStatusActive,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		},
	}
}

// WithUUID sets the UUID
func (b *IncidentBuilder) WithUUID(uuid string) *IncidentBuilder {
	b.incident.UUID = uuid
	return b
}

// WithOrganization sets the owning organization
func (b *IncidentBuilder) WithOrganization(orgID uint) *IncidentBuilder {
	b.incident.OrganizationID = orgID
	return b
}

// WithTitle sets the title
func (b *IncidentBuilder) WithTitle(title string) *IncidentBuilder {
	b.incident.Title = title
	return b
}

// WithService sets the service
func (b *IncidentBuilder) WithService(service string) *IncidentBuilder {
	b.incident.Service = service
	return b
}

// WithSeverity sets the severity
func (b *IncidentBuilder) WithSeverity(severity database.IncidentSeverity) *IncidentBuilder {
	b.incident.Severity = severity
	return b
}

// WithStatus sets the status
func (b *IncidentBuilder) WithStatus(status database.IncidentStatus) *IncidentBuilder {
	b.incident.Status = status
	return b
}

// WithDescription sets the description
func (b *IncidentBuilder) WithDescription(description string) *IncidentBuilder {
	b.incident.Description = description
	return b
}

// Build returns the constructed incident
func (b *IncidentBuilder) Build() database.Incident {
	return b.incident
}

// Create persists the incident and returns it
func (b *IncidentBuilder) Create(t *testing.T, store *database.Store) *database.Incident {
	t.Helper()
	incident := b.incident
	if err := store.CreateIncident(&incident); err != nil {
		t.Fatalf("failed to create test incident: %v", err)
	}
	return &incident
}

// HypothesisBuilder builds Hypothesis instances for testing
type HypothesisBuilder struct {
	hypothesis database.Hypothesis
}

// NewHypothesisBuilder creates a new hypothesis builder with defaults
func NewHypothesisBuilder(incidentID uint) *HypothesisBuilder {
	return &HypothesisBuilder{
		hypothesis: database.Hypothesis{
			IncidentID:   incidentID,
			Title:        "Test hypothesis",
			Confidence:   75,
			Evidence:     database.StringList{"test evidence"},
			SuggestedFix: "Test fix",
		},
	}
}

// WithTitle sets the title
func (b *HypothesisBuilder) WithTitle(title string) *HypothesisBuilder {
	b.hypothesis.Title = title
	return b
}

// WithConfidence sets the confidence
func (b *HypothesisBuilder) WithConfidence(confidence int) *HypothesisBuilder {
	b.hypothesis.Confidence = confidence
	return b
}

// WithEvidence sets the evidence list
func (b *HypothesisBuilder) WithEvidence(evidence ...string) *HypothesisBuilder {
	b.hypothesis.Evidence = evidence
	return b
}

// Build returns the constructed hypothesis
func (b *HypothesisBuilder) Build() database.Hypothesis {
	return b.hypothesis
}

// IntegrationBuilder builds Integration instances for testing
type IntegrationBuilder struct {
	integration database.Integration
}

// NewIntegrationBuilder creates a new integration builder with defaults
func NewIntegrationBuilder() *IntegrationBuilder {
	return &IntegrationBuilder{
		integration: database.Integration{
			OrganizationID: 1,
			Type:           "datadog",
			Name:           "Test Datadog",
			Category:       database.IntegrationCategoryObservability,
			Connected:      true,
		},
	}
}

// WithOrganization sets the owning organization
func (b *IntegrationBuilder) WithOrganization(orgID uint) *IntegrationBuilder {
	b.integration.OrganizationID = orgID
	return b
}

// WithType sets the integration type
func (b *IntegrationBuilder) WithType(integrationType string) *IntegrationBuilder {
	b.integration.Type = integrationType
	return b
}

// WithCategory sets the category
func (b *IntegrationBuilder) WithCategory(category database.IntegrationCategory) *IntegrationBuilder {
	b.integration.Category = category
	return b
}

// WithConnected sets the connected flag
func (b *IntegrationBuilder) WithConnected(connected bool) *IntegrationBuilder {
	b.integration.Connected = connected
	return b
}

// WithConfig sets the encrypted config blob
func (b *IntegrationBuilder) WithConfig(config string) *IntegrationBuilder {
	b.integration.Config = config
	return b
}

// Build returns the constructed integration
func (b *IntegrationBuilder) Build() database.Integration {
	return b.integration
}

// Create persists the integration and returns it
func (b *IntegrationBuilder) Create(t *testing.T, store *database.Store) *database.Integration {
	t.Helper()
	integration := b.integration
	if err := store.CreateIntegration(&integration); err != nil {
		t.Fatalf("failed to create test integration: %v", err)
	}
	return &integration
}
