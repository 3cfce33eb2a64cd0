package entities

import (
	"time"

	"gorm.io/gorm"
)

// UserRole controls what a staff account may do in the admin.
type UserRole string

const (
	UserRoleSuperuser UserRole = "superuser" // Everything, including audit log and maintenance tasks
	UserRoleLibrarian UserRole = "librarian" // Catalog reads and writes
	UserRoleViewer    UserRole = "viewer"    // Catalog reads only
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleSuperuser, UserRoleLibrarian, UserRoleViewer:
		return true
	}
	return false
}

// CanEditCatalog reports whether the role may create, change or delete records.
func (r UserRole) CanEditCatalog() bool {
	return r == UserRoleSuperuser || r == UserRoleLibrarian
}

type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Username         string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email            string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash     string         `gorm:"size:255" json:"-"`
	Role             UserRole       `gorm:"size:20;default:viewer" json:"role"`
	TokenHash        string         `gorm:"index;size:64" json:"-"` // SHA-256 of the API token
	TokenCreatedAt   *time.Time     `json:"-"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
	FailedLoginCount int            `json:"-"`
	LockedUntil      *time.Time     `json:"-"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// HasToken reports whether an API token has been issued.
func (u *User) HasToken() bool {
	return u.TokenHash != ""
}
