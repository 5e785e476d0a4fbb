package main

import (
	"gorm.io/gorm"

	"github.com/iac-studio/blueprint/internal/models"
)

// registerModels returns all models that need migration
func registerModels() []interface{} {
	return []interface{}{
		&models.ProjectRecord{},
		&models.GraphSnapshot{},
	}
}

var migratedTables = []string{
	models.ProjectRecord{}.TableName(),
	models.GraphSnapshot{}.TableName(),
}

// runMigrations executes all database migrations
func runMigrations(db *gorm.DB) error {
	// gen_random_uuid must exist before the snapshot table is created
	if err := enableUUIDExtension(db); err != nil {
		return err
	}
	if err := db.AutoMigrate(registerModels()...); err != nil {
		return err
	}
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addCurrentSnapshotIndex,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}

	return nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// addCurrentSnapshotIndex allows at most one current snapshot per project.
func addCurrentSnapshotIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_graph_snapshots_current
		ON graph_snapshots(project_id)
		WHERE is_current
	`).Error
}
