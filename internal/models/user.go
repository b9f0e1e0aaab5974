package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Toggled returns the opposite status. Anything that is not active toggles to active.
func (s Status) Toggled() Status {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

type Claims struct {
	UserID string `json:"user_id"`
	Mobile string `json:"mobile"`
	RoleID string `json:"role_id,omitempty"`
	jwt.RegisteredClaims
}

type User struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"not null"`
	Mobile    string         `json:"mobile" gorm:"not null;uniqueIndex"`
	MPIN      string         `json:"-"` // bcrypt hash, empty until set through the OTP flow
	RoleID    string         `json:"role_id" gorm:"index"`
	Role      *Role          `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	Status    Status         `json:"status" gorm:"not null;default:active"`
	LastLogin *time.Time     `json:"last_login,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

func (u User) GetID() string       { return u.ID }
func (u User) DisplayName() string { return u.Name }
func (u User) IsDeleted() bool     { return u.DeletedAt.Valid }

// RoleName is the joined role name shown next to a user, empty when the role
// was not loaded or no longer exists.
func (u User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// Payload is the full-record body sent on create and update.
func (u User) Payload() UserPayload {
	return UserPayload{
		Name:   u.Name,
		Mobile: u.Mobile,
		Status: u.Status,
		RoleID: u.RoleID,
	}
}

func (u User) ToggledPayload() UserPayload {
	p := u.Payload()
	p.Status = u.Status.Toggled()
	return p
}

type UserPayload struct {
	Name   string `json:"name" validate:"notblank"`
	Mobile string `json:"mobile" validate:"mobile"`
	Status Status `json:"status" validate:"required,oneof=active inactive"`
	RoleID string `json:"role_id"`
}
