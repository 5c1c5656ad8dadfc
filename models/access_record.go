package models

import (
	"time"

	"gorm.io/gorm"
)

// AccessRecord is a provisioned access code. The normalized code is the identity.
type AccessRecord struct {
	Code         string     `gorm:"primaryKey;size:128" json:"code"`
	LastAccessAt *time.Time `json:"last_access_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName implements the GORM tabler interface.
func (AccessRecord) TableName() string { return "access_records" }

// BeforeCreate hook ensures timestamps are set even when not provided.
func (a *AccessRecord) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return nil
}
