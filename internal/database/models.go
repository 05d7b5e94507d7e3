package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		// SQLite hands TEXT columns back as string
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("unsupported type for JSONB scan")
	}
}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// StringList is an ordered list of strings stored as a JSONB array
type StringList []string

// Scan implements the sql.Scanner interface
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for StringList scan")
	}
}

// Value implements the driver.Valuer interface
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(s))
}

// Organization represents a tenant. Every incident, integration, and AI
// activity belongs to exactly one organization.
type Organization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      string    `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:128;not null" json:"slug"` // used in webhook URLs
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

// IncidentSeverity is the four-level ranked severity scale, most severe first
type IncidentSeverity string

const (
	SeverityP1 IncidentSeverity = "P1"
	SeverityP2 IncidentSeverity = "P2"
	SeverityP3 IncidentSeverity = "P3"
	SeverityP4 IncidentSeverity = "P4"
)

// IsValid reports whether s is one of the four severity levels
func (s IncidentSeverity) IsValid() bool {
	switch s {
	case SeverityP1, SeverityP2, SeverityP3, SeverityP4:
		return true
	}
	return false
}

// IncidentStatus represents the status of an incident
type IncidentStatus string

const (
	IncidentStatusActive            IncidentStatus = "active"
	IncidentStatusAIInvestigating   IncidentStatus = "ai-investigating"
	IncidentStatusHumanIntervention IncidentStatus = "human-intervention"
	IncidentStatusResolved          IncidentStatus = "resolved"
	IncidentStatusAutoHealed        IncidentStatus = "auto-healed"

	// IncidentStatusLegacyInvestigating is an old synonym for
	// ai-investigating still present in rows written by earlier versions.
	// Accepted on read paths only, never written.
	IncidentStatusLegacyInvestigating IncidentStatus = "investigating"
)

// NormalizeStatus maps legacy status values to their current form
func NormalizeStatus(s IncidentStatus) IncidentStatus {
	if s == IncidentStatusLegacyInvestigating {
		return IncidentStatusAIInvestigating
	}
	return s
}

// IsValid reports whether s is a writable status value
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusActive, IncidentStatusAIInvestigating,
		IncidentStatusHumanIntervention, IncidentStatusResolved,
		IncidentStatusAutoHealed:
		return true
	}
	return false
}

// IsTerminal reports whether s is a terminal status
func (s IncidentStatus) IsTerminal() bool {
	return s == IncidentStatusResolved || s == IncidentStatusAutoHealed
}

// Incident represents a production issue under investigation
type Incident struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	UUID           string           `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	OrganizationID uint             `gorm:"not null;index" json:"organization_id"`
	Title          string           `gorm:"type:varchar(255);not null" json:"title"`
	Service        string           `gorm:"type:varchar(255);not null;index" json:"service"`
	Severity       IncidentSeverity `gorm:"type:varchar(8);not null" json:"severity"`
	Status         IncidentStatus   `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	Description    string           `gorm:"type:text" json:"description,omitempty"`
	MTTR           string           `gorm:"type:varchar(64)" json:"mttr,omitempty"`
	AssignedTo     string           `gorm:"type:varchar(255)" json:"assigned_to,omitempty"`
	Metadata       JSONB            `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	ResolvedAt     *time.Time       `json:"resolved_at,omitempty"`

	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Incident) TableName() string {
	return "incidents"
}

// AfterFind normalizes legacy status values on read
func (i *Incident) AfterFind(tx *gorm.DB) error {
	i.Status = NormalizeStatus(i.Status)
	return nil
}

// TimelineEventType classifies timeline entries
type TimelineEventType string

const (
	TimelineEventAlertReceived     TimelineEventType = "alert-received"
	TimelineEventInvestigationStep TimelineEventType = "investigation-step"
	TimelineEventActionTaken       TimelineEventType = "action-taken"
	TimelineEventResolution        TimelineEventType = "resolution"
)

// TimelineEvent is an append-only audit entry attached to an incident.
// Rows are immutable once created and read back ordered by timestamp.
type TimelineEvent struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	IncidentID  uint              `gorm:"not null;index" json:"incident_id"`
	Type        TimelineEventType `gorm:"type:varchar(32);not null" json:"type"`
	Title       string            `gorm:"type:varchar(255);not null" json:"title"`
	Description string            `gorm:"type:text" json:"description,omitempty"`
	Metadata    JSONB             `gorm:"type:jsonb" json:"metadata"`
	Timestamp   time.Time         `gorm:"not null;index" json:"timestamp"`
	CreatedAt   time.Time         `json:"created_at"`

	Incident Incident `gorm:"foreignKey:IncidentID" json:"-"`
}

func (TimelineEvent) TableName() string {
	return "timeline_events"
}

// BeforeCreate stamps the event time when the caller didn't
func (e *TimelineEvent) BeforeCreate(tx *gorm.DB) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return nil
}

// Hypothesis is one AI-proposed root cause for an incident. Rows are
// immutable; re-investigation appends new rows instead of updating.
type Hypothesis struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	IncidentID   uint       `gorm:"not null;index" json:"incident_id"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Confidence   int        `gorm:"not null" json:"confidence"`
	Evidence     StringList `gorm:"type:jsonb" json:"evidence"`
	SuggestedFix string     `gorm:"type:text" json:"suggested_fix"`
	CreatedAt    time.Time  `json:"created_at"`

	Incident Incident `gorm:"foreignKey:IncidentID" json:"-"`
}

func (Hypothesis) TableName() string {
	return "hypotheses"
}

// BeforeCreate clamps confidence into [0,100] regardless of what the
// generator produced
func (h *Hypothesis) BeforeCreate(tx *gorm.DB) error {
	if h.Confidence < 0 {
		h.Confidence = 0
	}
	if h.Confidence > 100 {
		h.Confidence = 100
	}
	return nil
}

// IntegrationCategory groups integrations by what they provide
type IntegrationCategory string

const (
	IntegrationCategoryAlerting      IntegrationCategory = "alerting"
	IntegrationCategoryObservability IntegrationCategory = "observability"
	IntegrationCategoryCommunication IntegrationCategory = "communication"
	IntegrationCategorySourceControl IntegrationCategory = "source-control"
)

// Integration is a connected external tool. Config holds the encrypted
// JSON credential blob and is never exposed in API responses.
type Integration struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	UUID           string              `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	OrganizationID uint                `gorm:"not null;index" json:"organization_id"`
	Type           string              `gorm:"type:varchar(64);not null" json:"type"` // datadog, grafana, cloudwatch, slack, ...
	Name           string              `gorm:"type:varchar(255);not null" json:"name"`
	Category       IntegrationCategory `gorm:"type:varchar(32);not null;index" json:"category"`
	Connected      bool                `gorm:"default:false" json:"connected"`
	Config         string              `gorm:"type:text" json:"-"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`

	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Integration) TableName() string {
	return "integrations"
}

// AIActivityType classifies activity-feed entries
type AIActivityType string

const (
	AIActivityInvestigating AIActivityType = "investigating"
	AIActivityResolved      AIActivityType = "resolved"
	AIActivityHealed        AIActivityType = "healed"
	AIActivityHealthCheck   AIActivityType = "health-check"
)

// AIActivity is an organization-scoped feed entry describing what the AI
// agent is doing or has done
type AIActivity struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	OrganizationID uint           `gorm:"not null;index" json:"organization_id"`
	IncidentID     *uint          `gorm:"index" json:"incident_id,omitempty"`
	Type           AIActivityType `gorm:"type:varchar(32);not null" json:"type"`
	Title          string         `gorm:"type:varchar(255);not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Details        StringList     `gorm:"type:jsonb" json:"details"`
	IsLive         bool           `gorm:"default:false" json:"is_live"`
	Timestamp      time.Time      `gorm:"not null;index" json:"timestamp"`

	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (AIActivity) TableName() string {
	return "ai_activities"
}

// BeforeCreate stamps the activity time when the caller didn't
func (a *AIActivity) BeforeCreate(tx *gorm.DB) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return nil
}
