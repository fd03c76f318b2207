package models

import (
	"time"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
)

// User represents a registered user
type User struct {
	Base
	Name                string     `json:"name" gorm:"size:100;not null"`
	Email               string     `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash        string     `json:"-" gorm:"not null"`
	Bio                 string     `json:"bio" gorm:"size:500"`
	ProfilePic          string     `json:"profilePic"`
	Role                UserRole   `json:"role" gorm:"type:varchar(16);index;not null"`
	Status              UserStatus `json:"status" gorm:"type:varchar(16);index;not null"`
	EmailVerified       bool       `json:"emailVerified"`
	ResetPasswordToken  string     `json:"-" gorm:"size:64;index"`
	ResetPasswordExpire *time.Time `json:"-"`
}

func (u *User) IsBlocked() bool {
	return u.Status == UserBlocked
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the public projection used when a user is embedded in another payload.
type UserSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ProfilePic string `json:"profilePic"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID.String(), Name: u.Name, ProfilePic: u.ProfilePic}
}
