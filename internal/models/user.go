package models

import "github.com/google/uuid"

// Principal is the authenticated subject extracted from a verified bearer
// token. User accounts themselves live in the upstream auth provider; this
// service never stores them.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email,omitempty"`
	Role  string    `json:"role,omitempty"`
}

// IsService reports whether the principal is a backend service allowed to
// act on any user's insights.
func (p *Principal) IsService() bool {
	return p.Role == "service_role"
}
