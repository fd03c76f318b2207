package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AdminRole string

const (
	AdminRoleAdmin AdminRole = "admin"
	AdminRoleSuper AdminRole = "super-admin"
)

type AdminStatus string

const (
	AdminActive   AdminStatus = "active"
	AdminInactive AdminStatus = "inactive"
)

type Permission string

const (
	PermManageUsers    Permission = "manage-users"
	PermManageEvents   Permission = "manage-events"
	PermManageComments Permission = "manage-comments"
	PermViewAnalytics  Permission = "view-analytics"
	PermManageAdmins   Permission = "manage-admins"
	PermSystemSettings Permission = "system-settings"
)

// Lockout policy for admin logins.
const (
	MaxLoginAttempts = 5
	LockDuration     = 2 * time.Hour
)

// Admin lives in its own identity space, separate from User.
type Admin struct {
	Base
	Email         string                          `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash  string                          `json:"-" gorm:"not null"`
	Name          string                          `json:"name" gorm:"size:100;not null"`
	Role          AdminRole                       `json:"role" gorm:"type:varchar(16);index;not null"`
	Permissions   datatypes.JSONSlice[Permission] `json:"permissions"`
	Status        AdminStatus                     `json:"status" gorm:"type:varchar(16);index;not null"`
	LastLogin     *time.Time                      `json:"lastLogin,omitempty"`
	LoginAttempts int                             `json:"-"`
	LockUntil     *time.Time                      `json:"-"`
	CreatedBy     *uuid.UUID                      `json:"createdBy,omitempty" gorm:"type:uuid"`
}

func (a *Admin) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

func (a *Admin) HasPermission(p Permission) bool {
	if a.Role == AdminRoleSuper {
		return true
	}
	for _, have := range a.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// RegisterFailedLogin bumps the attempt counter and locks the account once
// MaxLoginAttempts is reached.
func (a *Admin) RegisterFailedLogin(now time.Time) {
	a.LoginAttempts++
	if a.LoginAttempts >= MaxLoginAttempts {
		until := now.Add(LockDuration)
		a.LockUntil = &until
	}
}

func (a *Admin) RegisterSuccessfulLogin(now time.Time) {
	a.LoginAttempts = 0
	a.LockUntil = nil
	a.LastLogin = &now
}

// DefaultPermissions returns the permission set granted to a new admin of role.
func DefaultPermissions(role AdminRole) []Permission {
	switch role {
	case AdminRoleSuper:
		return []Permission{
			PermManageUsers, PermManageEvents, PermManageComments,
			PermViewAnalytics, PermManageAdmins, PermSystemSettings,
		}
	case AdminRoleAdmin:
		return []Permission{PermManageUsers, PermManageEvents, PermManageComments, PermViewAnalytics}
	}
	return nil
}

func ValidPermission(p Permission) bool {
	switch p {
	case PermManageUsers, PermManageEvents, PermManageComments,
		PermViewAnalytics, PermManageAdmins, PermSystemSettings:
		return true
	}
	return false
}
