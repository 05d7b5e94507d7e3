package api

// CreateIncidentRequest is the body for manually creating an incident.
type CreateIncidentRequest struct {
	Title       string                 `json:"title" validate:"required,max=255"`
	Service     string                 `json:"service" validate:"required,max=255"`
	Severity    string                 `json:"severity" validate:"required,oneof=P1 P2 P3 P4"`
	Description string                 `json:"description" validate:"omitempty,max=4000"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// UpdateIncidentRequest is the body for updating an incident. All fields
// are optional; absent fields are left untouched.
type UpdateIncidentRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Service     *string `json:"service" validate:"omitempty,min=1,max=255"`
	Severity    *string `json:"severity" validate:"omitempty,oneof=P1 P2 P3 P4"`
	Status      *string `json:"status" validate:"omitempty,oneof=active ai-investigating human-intervention resolved auto-healed"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	AssignedTo  *string `json:"assigned_to" validate:"omitempty,max=255"`
}

// CreateIntegrationRequest is the body for connecting an external tool.
// Config carries plaintext credentials; they are encrypted before storage
// and never returned.
type CreateIntegrationRequest struct {
	Type      string                 `json:"type" validate:"required,max=64"`
	Name      string                 `json:"name" validate:"required,max=255"`
	Category  string                 `json:"category" validate:"required,oneof=alerting observability communication source-control"`
	Connected bool                   `json:"connected"`
	Config    map[string]interface{} `json:"config"`
}

// UpdateIntegrationRequest is the body for updating an integration.
type UpdateIntegrationRequest struct {
	Name      *string                `json:"name" validate:"omitempty,min=1,max=255"`
	Connected *bool                  `json:"connected"`
	Config    map[string]interface{} `json:"config"`
}

// LoginRequest is the body for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued JWT.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
