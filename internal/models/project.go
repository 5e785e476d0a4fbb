package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProjectRecord is the persisted row of a project. Resources hold the JSON
// array of resource records exactly as the blob store writes them.
type ProjectRecord struct {
	ID          string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name        string         `gorm:"not null;index" json:"name" validate:"required"`
	Description string         `gorm:"type:text" json:"description"`
	Provider    string         `gorm:"type:varchar(32);index" json:"provider" validate:"required,oneof=aws azure gcp"`
	Region      string         `gorm:"type:varchar(64)" json:"region"`
	Environment string         `gorm:"type:varchar(32);index" json:"environment" validate:"required,oneof=development staging production"`
	Resources   datatypes.JSON `gorm:"type:jsonb;not null" json:"resources"`
	Fingerprint string         `gorm:"type:varchar(16)" json:"fingerprint"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (ProjectRecord) TableName() string { return "projects" }
