package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/iac-studio/blueprint/internal/models"
	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

// SnapshotRepository stores versioned graph snapshots per project.
type SnapshotRepository interface {
	GetCurrentByProject(ctx context.Context, projectID string, dest *models.GraphSnapshot) error
	GetByVersion(ctx context.Context, projectID string, version int, dest *models.GraphSnapshot) error
	ListByProject(ctx context.Context, projectID string) ([]models.GraphSnapshot, error)
	// Append stores snap as the next version of its project and marks it
	// current.
	Append(ctx context.Context, snap *models.GraphSnapshot) error
	SetCurrent(ctx context.Context, projectID string, version int) error
	DeleteByProject(ctx context.Context, projectID string) error
}

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) GetCurrentByProject(ctx context.Context, projectID string, dest *models.GraphSnapshot) error {
	if err := r.db.WithContext(ctx).Where("project_id = ? AND is_current = true", projectID).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "no current graph snapshot found")
		}
		return storageError(err, "get current snapshot failed")
	}
	return nil
}

func (r *snapshotRepository) GetByVersion(ctx context.Context, projectID string, version int, dest *models.GraphSnapshot) error {
	if err := r.db.WithContext(ctx).Where("project_id = ? AND version = ?", projectID, version).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.Newf(appErr.CodeNotFound, "graph version %d not found", version)
		}
		return storageError(err, "get snapshot version failed")
	}
	return nil
}

func (r *snapshotRepository) ListByProject(ctx context.Context, projectID string) ([]models.GraphSnapshot, error) {
	var out []models.GraphSnapshot
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("version DESC").Find(&out).Error; err != nil {
		return nil, storageError(err, "list snapshots failed")
	}
	return out, nil
}

func (r *snapshotRepository) Append(ctx context.Context, snap *models.GraphSnapshot) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return storageError(tx.Error, "begin transaction failed")
	}

	var maxVersion int
	if err := tx.Model(&models.GraphSnapshot{}).Where("project_id = ?", snap.ProjectID).Select("COALESCE(MAX(version),0)").Scan(&maxVersion).Error; err != nil {
		tx.Rollback()
		return storageError(err, "compute snapshot version failed")
	}

	if err := tx.Model(&models.GraphSnapshot{}).Where("project_id = ? AND is_current = true", snap.ProjectID).Update("is_current", false).Error; err != nil {
		tx.Rollback()
		return storageError(err, "clear current flag failed")
	}

	snap.Version = maxVersion + 1
	snap.IsCurrent = true
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	if err := tx.Create(snap).Error; err != nil {
		tx.Rollback()
		return storageError(err, "create snapshot failed")
	}

	if err := tx.Commit().Error; err != nil {
		return storageError(err, "commit transaction failed")
	}
	return nil
}

// SetCurrent makes version the current snapshot of the project.
func (r *snapshotRepository) SetCurrent(ctx context.Context, projectID string, version int) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return storageError(tx.Error, "begin transaction failed")
	}

	if err := tx.Model(&models.GraphSnapshot{}).Where("project_id = ? AND is_current = true", projectID).Update("is_current", false).Error; err != nil {
		tx.Rollback()
		return storageError(err, "clear current flag failed")
	}

	res := tx.Model(&models.GraphSnapshot{}).Where("project_id = ? AND version = ?", projectID, version).Update("is_current", true)
	if res.Error != nil {
		tx.Rollback()
		return storageError(res.Error, "set current flag failed")
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return appErr.Newf(appErr.CodeNotFound, "graph version %d not found", version)
	}

	if err := tx.Commit().Error; err != nil {
		return storageError(err, "commit transaction failed")
	}
	return nil
}

func (r *snapshotRepository) DeleteByProject(ctx context.Context, projectID string) error {
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.GraphSnapshot{}).Error; err != nil {
		return storageError(err, "delete snapshots failed")
	}
	return nil
}
