package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
)

// Valid reports whether the role is one of the three known variants.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// LearnerSummary aggregates a user's learning activity for the admin roster.
type LearnerSummary struct {
	User
	CoursesCompleted  int        `db:"courses_completed" json:"courses_completed"`
	CoursesInProgress int        `db:"courses_in_progress" json:"courses_in_progress"`
	BadgesEarned      int        `db:"badges_earned" json:"badges_earned"`
	LastActive        *time.Time `db:"last_active" json:"last_active,omitempty"`
	TotalProgress     int        `db:"-" json:"total_progress"`
}
