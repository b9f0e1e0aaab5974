package models

import (
	"time"

	"gorm.io/gorm"
)

type Role struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	Status      Status         `json:"status" gorm:"not null;default:active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

func (r Role) GetID() string       { return r.ID }
func (r Role) DisplayName() string { return r.Name }
func (r Role) IsDeleted() bool     { return r.DeletedAt.Valid }

func (r Role) Payload() RolePayload {
	return RolePayload{
		Name:        r.Name,
		Description: r.Description,
		Status:      r.Status,
	}
}

func (r Role) ToggledPayload() RolePayload {
	p := r.Payload()
	p.Status = r.Status.Toggled()
	return p
}

type RolePayload struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description" validate:"max=500"`
	Status      Status `json:"status" validate:"required,oneof=active inactive"`
}
