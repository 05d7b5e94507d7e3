package api

import (
	"time"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

// IncidentResponse is the wire shape of an incident.
type IncidentResponse struct {
	UUID        string                 `json:"uuid"`
	Title       string                 `json:"title"`
	Service     string                 `json:"service"`
	Severity    string                 `json:"severity"`
	Status      string                 `json:"status"`
	Description string                 `json:"description,omitempty"`
	MTTR        string                 `json:"mttr,omitempty"`
	AssignedTo  string                 `json:"assigned_to,omitempty"`
	Metadata    map[string]interface{} `json:"metadata"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ResolvedAt  *time.Time             `json:"resolved_at,omitempty"`
}

// ToIncidentResponse maps a stored incident to its wire shape.
func ToIncidentResponse(incident *database.Incident) IncidentResponse {
	return IncidentResponse{
		UUID:        incident.UUID,
		Title:       incident.Title,
		Service:     incident.Service,
		Severity:    string(incident.Severity),
		Status:      string(incident.Status),
		Description: incident.Description,
		MTTR:        incident.MTTR,
		AssignedTo:  incident.AssignedTo,
		Metadata:    incident.Metadata,
		CreatedAt:   incident.CreatedAt,
		UpdatedAt:   incident.UpdatedAt,
		ResolvedAt:  incident.ResolvedAt,
	}
}

// ToIncidentResponses maps a list of incidents.
func ToIncidentResponses(incidents []database.Incident) []IncidentResponse {
	out := make([]IncidentResponse, len(incidents))
	for i := range incidents {
		out[i] = ToIncidentResponse(&incidents[i])
	}
	return out
}

// IncidentListResponse is the paginated incident list envelope.
type IncidentListResponse struct {
	Incidents []IncidentResponse `json:"incidents"`
	Meta      Meta               `json:"meta"`
}

// TimelineEventResponse is the wire shape of a timeline entry.
type TimelineEventResponse struct {
	ID          uint                   `json:"id"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata"`
	Timestamp   time.Time              `json:"timestamp"`
}

// ToTimelineResponses maps timeline events to their wire shape.
func ToTimelineResponses(events []database.TimelineEvent) []TimelineEventResponse {
	out := make([]TimelineEventResponse, len(events))
	for i, e := range events {
		out[i] = TimelineEventResponse{
			ID:          e.ID,
			Type:        string(e.Type),
			Title:       e.Title,
			Description: e.Description,
			Metadata:    e.Metadata,
			Timestamp:   e.Timestamp,
		}
	}
	return out
}

// HypothesisResponse is the wire shape of a root-cause hypothesis.
type HypothesisResponse struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Confidence   int       `json:"confidence"`
	Evidence     []string  `json:"evidence"`
	SuggestedFix string    `json:"suggested_fix"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToHypothesisResponses maps hypotheses to their wire shape.
func ToHypothesisResponses(hypotheses []database.Hypothesis) []HypothesisResponse {
	out := make([]HypothesisResponse, len(hypotheses))
	for i, h := range hypotheses {
		out[i] = HypothesisResponse{
			ID:           h.ID,
			Title:        h.Title,
			Confidence:   h.Confidence,
			Evidence:     h.Evidence,
			SuggestedFix: h.SuggestedFix,
			CreatedAt:    h.CreatedAt,
		}
	}
	return out
}

// IntegrationResponse is the wire shape of an integration. The encrypted
// credential blob never appears here.
type IntegrationResponse struct {
	UUID      string    `json:"uuid"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Connected bool      `json:"connected"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToIntegrationResponse maps a stored integration to its wire shape.
func ToIntegrationResponse(integration *database.Integration) IntegrationResponse {
	return IntegrationResponse{
		UUID:      integration.UUID,
		Type:      integration.Type,
		Name:      integration.Name,
		Category:  string(integration.Category),
		Connected: integration.Connected,
		CreatedAt: integration.CreatedAt,
		UpdatedAt: integration.UpdatedAt,
	}
}

// ToIntegrationResponses maps a list of integrations.
func ToIntegrationResponses(integrations []database.Integration) []IntegrationResponse {
	out := make([]IntegrationResponse, len(integrations))
	for i := range integrations {
		out[i] = ToIntegrationResponse(&integrations[i])
	}
	return out
}

// AIActivityResponse is the wire shape of an activity-feed entry.
type AIActivityResponse struct {
	ID          uint      `json:"id"`
	IncidentID  *uint     `json:"incident_id,omitempty"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Details     []string  `json:"details"`
	IsLive      bool      `json:"is_live"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToAIActivityResponses maps activity-feed entries to their wire shape.
func ToAIActivityResponses(activities []database.AIActivity) []AIActivityResponse {
	out := make([]AIActivityResponse, len(activities))
	for i, a := range activities {
		out[i] = AIActivityResponse{
			ID:          a.ID,
			IncidentID:  a.IncidentID,
			Type:        string(a.Type),
			Title:       a.Title,
			Description: a.Description,
			Details:     a.Details,
			IsLive:      a.IsLive,
			Timestamp:   a.Timestamp,
		}
	}
	return out
}

// DashboardMetricsResponse aggregates incident counts per status.
type DashboardMetricsResponse struct {
	Active            int64 `json:"active"`
	AIInvestigating   int64 `json:"ai_investigating"`
	HumanIntervention int64 `json:"human_intervention"`
	Resolved          int64 `json:"resolved"`
	AutoHealed        int64 `json:"auto_healed"`
	Total             int64 `json:"total"`
}

// ToDashboardMetrics maps per-status counts to the dashboard response.
func ToDashboardMetrics(counts database.StatusCounts) DashboardMetricsResponse {
	m := DashboardMetricsResponse{
		Active:            counts[database.IncidentStatusActive],
		AIInvestigating:   counts[database.IncidentStatusAIInvestigating],
		HumanIntervention: counts[database.IncidentStatusHumanIntervention],
		Resolved:          counts[database.IncidentStatusResolved],
		AutoHealed:        counts[database.IncidentStatusAutoHealed],
	}
	m.Total = m.Active + m.AIInvestigating + m.HumanIntervention + m.Resolved + m.AutoHealed
	return m
}
