package repository

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/iac-studio/blueprint/internal/models"
	"github.com/iac-studio/blueprint/internal/project"
	appErr "github.com/iac-studio/blueprint/pkg/errors"
	"github.com/iac-studio/blueprint/pkg/utils"
)

type postgresProjectStore struct {
	BaseRepository[models.ProjectRecord]
	db *gorm.DB
}

// NewPostgresProjectStore keeps one row per project in the projects table.
func NewPostgresProjectStore(db *gorm.DB) ProjectStore {
	return &postgresProjectStore{BaseRepository: NewBaseRepository[models.ProjectRecord](db), db: db}
}

var _ ProjectStore = (*postgresProjectStore)(nil)

var upsertColumns = []string{"name", "description", "provider", "region", "environment", "resources", "fingerprint", "updated_at"}

func (s *postgresProjectStore) Load(ctx context.Context, id string) (*project.Project, error) {
	var rec models.ProjectRecord
	if err := s.GetByID(ctx, id, &rec); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, appErr.Newf(appErr.CodeNotFound, "project %s not found", id)
		}
		return nil, err
	}
	return recordToProject(rec)
}

func (s *postgresProjectStore) Save(ctx context.Context, p *project.Project) error {
	rec, err := projectToRecord(p)
	if err != nil {
		return err
	}
	return s.Upsert(ctx, rec, upsertColumns...)
}

func (s *postgresProjectStore) List(ctx context.Context) ([]project.Project, error) {
	var rows []models.ProjectRecord
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, storageError(err, "list projects failed")
	}
	out := make([]project.Project, 0, len(rows))
	for _, rec := range rows {
		p, err := recordToProject(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *postgresProjectStore) Delete(ctx context.Context, id string) error {
	if err := s.BaseRepository.Delete(ctx, id); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return appErr.Newf(appErr.CodeNotFound, "project %s not found", id)
		}
		return err
	}
	return nil
}

func projectToRecord(p *project.Project) (*models.ProjectRecord, error) {
	resources := p.Resources
	if resources == nil {
		resources = []project.Resource{}
	}
	b, err := json.Marshal(resources)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "encode resources failed")
	}
	return &models.ProjectRecord{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Provider:    p.Provider,
		Region:      p.Region,
		Environment: string(p.Environment),
		Resources:   datatypes.JSON(b),
		Fingerprint: utils.Fingerprint(b),
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func recordToProject(rec models.ProjectRecord) (*project.Project, error) {
	p := &project.Project{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Provider:    rec.Provider,
		Region:      rec.Region,
		Environment: project.Environment(rec.Environment),
		UpdatedAt:   rec.UpdatedAt.UTC(),
	}
	if len(rec.Resources) > 0 {
		if err := json.Unmarshal(rec.Resources, &p.Resources); err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInternal, "decode resources failed").WithMeta("project_id", rec.ID)
		}
	}
	return p, nil
}
