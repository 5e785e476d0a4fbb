package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GraphSnapshot stores one laid out version of a project's dependency graph.
type GraphSnapshot struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID   string         `gorm:"type:varchar(64);not null;index:idx_graph_project_version,unique" json:"project_id" validate:"required"`
	Version     int            `gorm:"not null;index:idx_graph_project_version,unique" json:"version" validate:"gte=1"`
	Fingerprint string         `gorm:"type:varchar(16);not null" json:"fingerprint"`
	Nodes       datatypes.JSON `gorm:"type:jsonb" json:"nodes" validate:"required"`
	Edges       datatypes.JSON `gorm:"type:jsonb" json:"edges" validate:"required"`
	Width       float64        `json:"width"`
	Height      float64        `json:"height"`
	IsCurrent   bool           `gorm:"not null;default:false;index" json:"is_current"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (GraphSnapshot) TableName() string { return "graph_snapshots" }
