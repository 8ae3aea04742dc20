package models

import "time"

// Notification is an in-app notification record persisted for a single user.
type Notification struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id" validate:"required"`
	UserID    string    `json:"user_id"   validate:"required"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRole scopes which users receive operational notifications.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleSupervisor UserRole = "supervisor"
	RoleOperator   UserRole = "operator"
)

// User is the slice of the account model this engine needs: identity, role,
// and the per-category alert opt-in map. A preference explicitly set to false
// excludes the user for that category; anything else (including absence)
// means included.
type User struct {
	ID               string          `json:"id"`
	TenantID         string          `json:"tenant_id"`
	Email            string          `json:"email"`
	Role             UserRole        `json:"role"`
	AlertPreferences map[string]bool `json:"alert_preferences,omitempty"`
}

// WantsAlert reports whether the user has opted in to the given category.
func (u *User) WantsAlert(t AlertType) bool {
	if u.AlertPreferences == nil {
		return true
	}

	enabled, ok := u.AlertPreferences[string(t)]
	if !ok {
		return true
	}

	return enabled
}
