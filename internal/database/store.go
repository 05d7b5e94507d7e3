package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Amitabh1998/sre-ai/internal/utils"
)

// ErrNotFound is returned when a referenced row does not exist
var ErrNotFound = errors.New("record not found")

// Store provides relational persistence for incidents, timeline events,
// hypotheses, integrations, and AI activities. All reads and writes are
// organization-scoped; no cross-tenant access happens here.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and tests
func (s *Store) DB() *gorm.DB {
	return s.db
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ========== Organizations ==========

// GetOrganizationBySlug retrieves an organization by its URL slug
func (s *Store) GetOrganizationBySlug(slug string) (*Organization, error) {
	var org Organization
	if err := s.db.Where("slug = ?", slug).First(&org).Error; err != nil {
		return nil, translateErr(err)
	}
	return &org, nil
}

// GetOrganization retrieves an organization by ID
func (s *Store) GetOrganization(id uint) (*Organization, error) {
	var org Organization
	if err := s.db.First(&org, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &org, nil
}

// CreateOrganization creates a new organization
func (s *Store) CreateOrganization(name, slug string) (*Organization, error) {
	org := &Organization{
		UUID: uuid.New().String(),
		Name: name,
		Slug: slug,
	}
	if err := s.db.Create(org).Error; err != nil {
		return nil, err
	}
	return org, nil
}

// ========== Incidents ==========

// CreateIncident persists a new incident, assigning a UUID when absent
func (s *Store) CreateIncident(incident *Incident) error {
	if incident.UUID == "" {
		incident.UUID = uuid.New().String()
	}
	if incident.Status == "" {
		incident.Status = IncidentStatusActive
	}
	if incident.Metadata == nil {
		incident.Metadata = JSONB{}
	}
	return s.db.Create(incident).Error
}

// GetIncidentByUUID retrieves an incident by its UUID
func (s *Store) GetIncidentByUUID(incidentUUID string) (*Incident, error) {
	var incident Incident
	if err := s.db.Where("uuid = ?", incidentUUID).First(&incident).Error; err != nil {
		return nil, translateErr(err)
	}
	return &incident, nil
}

// GetIncident retrieves an incident by UUID within an organization
func (s *Store) GetIncident(orgID uint, incidentUUID string) (*Incident, error) {
	var incident Incident
	err := s.db.Where("organization_id = ? AND uuid = ?", orgID, incidentUUID).
		First(&incident).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &incident, nil
}

// IncidentFilter narrows ListIncidents results
type IncidentFilter struct {
	Status   IncidentStatus
	Service  string
	Severity IncidentSeverity
}

// ListIncidents returns incidents for an organization, newest first
func (s *Store) ListIncidents(orgID uint, filter IncidentFilter, offset, limit int) ([]Incident, int64, error) {
	query := s.db.Model(&Incident{}).Where("organization_id = ?", orgID)

	if filter.Status != "" {
		// Legacy rows may carry the old synonym for ai-investigating
		if NormalizeStatus(filter.Status) == IncidentStatusAIInvestigating {
			query = query.Where("status IN ?", []IncidentStatus{
				IncidentStatusAIInvestigating, IncidentStatusLegacyInvestigating,
			})
		} else {
			query = query.Where("status = ?", filter.Status)
		}
	}
	if filter.Service != "" {
		query = query.Where("service = ?", filter.Service)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var incidents []Incident
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&incidents).Error
	if err != nil {
		return nil, 0, err
	}
	return incidents, total, nil
}

// UpdateIncident applies user-editable fields to an incident. The
// organization_id column is immutable and never part of updates.
func (s *Store) UpdateIncident(orgID uint, incidentUUID string, updates map[string]interface{}) (*Incident, error) {
	delete(updates, "organization_id")
	delete(updates, "uuid")

	result := s.db.Model(&Incident{}).
		Where("organization_id = ? AND uuid = ?", orgID, incidentUUID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetIncident(orgID, incidentUUID)
}

// SetIncidentStatus updates only the status of an incident. Transitioning
// into a terminal status stamps resolved_at and derives the MTTR string.
func (s *Store) SetIncidentStatus(incidentUUID string, status IncidentStatus) error {
	updates := map[string]interface{}{"status": status}
	if status.IsTerminal() {
		incident, err := s.GetIncidentByUUID(incidentUUID)
		if err != nil {
			return err
		}
		now := time.Now()
		updates["resolved_at"] = now
		updates["mttr"] = utils.FormatDuration(now.Sub(incident.CreatedAt))
	}

	result := s.db.Model(&Incident{}).Where("uuid = ?", incidentUUID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BeginInvestigation atomically claims an incident for investigation: the
// status moves to ai-investigating only if it is not already there. This is
// the per-incident mutual exclusion that keeps two concurrent investigate
// calls from interleaving. Returns false when another investigation holds
// the claim.
func (s *Store) BeginInvestigation(incidentUUID string) (bool, error) {
	result := s.db.Model(&Incident{}).
		Where("uuid = ? AND status NOT IN ?", incidentUUID, []IncidentStatus{
			IncidentStatusAIInvestigating, IncidentStatusLegacyInvestigating,
		}).
		Update("status", IncidentStatusAIInvestigating)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteIncident removes an incident and its dependent rows. This is a
// user/administrative action; the investigation pipeline never deletes.
func (s *Store) DeleteIncident(orgID uint, incidentUUID string) error {
	incident, err := s.GetIncident(orgID, incidentUUID)
	if err != nil {
		return err
	}
	if err := s.db.Where("incident_id = ?", incident.ID).Delete(&TimelineEvent{}).Error; err != nil {
		return err
	}
	if err := s.db.Where("incident_id = ?", incident.ID).Delete(&Hypothesis{}).Error; err != nil {
		return err
	}
	return s.db.Delete(&Incident{}, incident.ID).Error
}

// ========== Timeline events ==========

// AppendTimelineEvent appends an immutable timeline entry to an incident
func (s *Store) AppendTimelineEvent(event *TimelineEvent) error {
	if event.IncidentID == 0 {
		return fmt.Errorf("timeline event requires an incident reference")
	}
	if event.Metadata == nil {
		event.Metadata = JSONB{}
	}
	return s.db.Create(event).Error
}

// ListTimeline returns an incident's timeline ordered by timestamp ascending
func (s *Store) ListTimeline(incidentID uint) ([]TimelineEvent, error) {
	var events []TimelineEvent
	err := s.db.Where("incident_id = ?", incidentID).
		Order("timestamp ASC").Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ========== Hypotheses ==========

// AppendHypothesis persists one hypothesis row. Confidence is clamped into
// [0,100] by the model's BeforeCreate hook.
func (s *Store) AppendHypothesis(h *Hypothesis) error {
	if h.IncidentID == 0 {
		return fmt.Errorf("hypothesis requires an incident reference")
	}
	if h.Evidence == nil {
		h.Evidence = StringList{}
	}
	return s.db.Create(h).Error
}

// ListHypotheses returns an incident's hypotheses ordered by confidence
// descending. Storage order is not display order.
func (s *Store) ListHypotheses(incidentID uint) ([]Hypothesis, error) {
	var hypotheses []Hypothesis
	err := s.db.Where("incident_id = ?", incidentID).
		Order("confidence DESC").Find(&hypotheses).Error
	if err != nil {
		return nil, err
	}
	return hypotheses, nil
}

// ========== Integrations ==========

// CreateIntegration persists a new integration, assigning a UUID when absent
func (s *Store) CreateIntegration(integration *Integration) error {
	if integration.UUID == "" {
		integration.UUID = uuid.New().String()
	}
	return s.db.Create(integration).Error
}

// GetIntegration retrieves an integration by UUID within an organization
func (s *Store) GetIntegration(orgID uint, integrationUUID string) (*Integration, error) {
	var integration Integration
	err := s.db.Where("organization_id = ? AND uuid = ?", orgID, integrationUUID).
		First(&integration).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &integration, nil
}

// ListIntegrations returns all integrations for an organization
func (s *Store) ListIntegrations(orgID uint) ([]Integration, error) {
	var integrations []Integration
	err := s.db.Where("organization_id = ?", orgID).
		Order("created_at ASC").Find(&integrations).Error
	if err != nil {
		return nil, err
	}
	return integrations, nil
}

// ListConnectedObservability returns the connected observability
// integrations for an organization, the set the telemetry gatherer queries
func (s *Store) ListConnectedObservability(orgID uint) ([]Integration, error) {
	var integrations []Integration
	err := s.db.Where("organization_id = ? AND category = ? AND connected = ?",
		orgID, IntegrationCategoryObservability, true).
		Find(&integrations).Error
	if err != nil {
		return nil, err
	}
	return integrations, nil
}

// UpdateIntegration applies updates to an integration within an organization
func (s *Store) UpdateIntegration(orgID uint, integrationUUID string, updates map[string]interface{}) error {
	delete(updates, "organization_id")
	result := s.db.Model(&Integration{}).
		Where("organization_id = ? AND uuid = ?", orgID, integrationUUID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIntegration removes an integration within an organization
func (s *Store) DeleteIntegration(orgID uint, integrationUUID string) error {
	result := s.db.Where("organization_id = ? AND uuid = ?", orgID, integrationUUID).
		Delete(&Integration{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== AI activities ==========

// CreateAIActivity appends an entry to the organization's AI activity feed
func (s *Store) CreateAIActivity(activity *AIActivity) error {
	if activity.OrganizationID == 0 {
		return fmt.Errorf("ai activity requires an organization reference")
	}
	if activity.Details == nil {
		activity.Details = StringList{}
	}
	return s.db.Create(activity).Error
}

// ListAIActivities returns the most recent feed entries for an organization
func (s *Store) ListAIActivities(orgID uint, limit int) ([]AIActivity, error) {
	if limit <= 0 {
		limit = 50
	}
	var activities []AIActivity
	err := s.db.Where("organization_id = ?", orgID).
		Order("timestamp DESC").Limit(limit).Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// ========== Dashboard ==========

// StatusCounts maps incident status to its count
type StatusCounts map[IncidentStatus]int64

// CountIncidentsByStatus aggregates incident counts per status for an
// organization, with legacy status values folded into their current form
func (s *Store) CountIncidentsByStatus(orgID uint) (StatusCounts, error) {
	type row struct {
		Status IncidentStatus
		N      int64
	}
	var rows []row
	err := s.db.Model(&Incident{}).
		Select("status, count(*) as n").
		Where("organization_id = ?", orgID).
		Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(StatusCounts)
	for _, r := range rows {
		counts[NormalizeStatus(r.Status)] += r.N
	}
	return counts, nil
}
