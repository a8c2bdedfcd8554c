// Package policy maps user roles onto the capabilities they grant.
package policy

import "github.com/noah-isme/fh-academy-api/internal/models"

// Capability names a permission checked by routes and services.
type Capability string

const (
	CapManageAdmins    Capability = "manage_admins"
	CapManageContent   Capability = "manage_content"
	CapViewStudentData Capability = "view_student_data"
)

// Capabilities is the full capability set derived from one role.
type Capabilities struct {
	ManageAdmins    bool `json:"can_manage_admins"`
	ManageContent   bool `json:"can_manage_content"`
	ViewStudentData bool `json:"can_view_student_data"`
}

// CanManageAdmins is granted to super admins only.
func CanManageAdmins(role models.UserRole) bool {
	return role == models.RoleSuperAdmin
}

// CanManageContent is granted to admins and super admins.
func CanManageContent(role models.UserRole) bool {
	return role == models.RoleAdmin || role == models.RoleSuperAdmin
}

// CanViewStudentData is granted to admins and super admins.
func CanViewStudentData(role models.UserRole) bool {
	return role == models.RoleAdmin || role == models.RoleSuperAdmin
}

// For evaluates every capability for role.
func For(role models.UserRole) Capabilities {
	return Capabilities{
		ManageAdmins:    CanManageAdmins(role),
		ManageContent:   CanManageContent(role),
		ViewStudentData: CanViewStudentData(role),
	}
}

// Allows reports whether role holds capability c.
func Allows(role models.UserRole, c Capability) bool {
	switch c {
	case CapManageAdmins:
		return CanManageAdmins(role)
	case CapManageContent:
		return CanManageContent(role)
	case CapViewStudentData:
		return CanViewStudentData(role)
	}
	return false
}
