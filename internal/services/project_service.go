package services

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/iac-studio/blueprint/internal/metrics"
	"github.com/iac-studio/blueprint/internal/models"
	"github.com/iac-studio/blueprint/internal/project"
	"github.com/iac-studio/blueprint/internal/project/layout"
	"github.com/iac-studio/blueprint/internal/repository"
	appErr "github.com/iac-studio/blueprint/pkg/errors"
	"github.com/iac-studio/blueprint/pkg/logger"
)

// ProjectService runs the project and resource flows: load, apply a command,
// save.
type ProjectService interface {
	CreateProject(ctx context.Context, input *CreateProjectInput) (*project.Project, error)
	GetProject(ctx context.Context, projectID string) (*project.Project, error)
	ListProjects(ctx context.Context) ([]project.Project, error)
	UpdateProjectSettings(ctx context.Context, projectID string, input *project.Meta) (*project.Project, error)
	DeleteProject(ctx context.Context, projectID string) error

	AddResource(ctx context.Context, projectID string, input *ResourceInput) (*project.Resource, error)
	UpdateResource(ctx context.Context, projectID, resourceID string, input *ResourceInput) (*project.Resource, error)
	RemoveResource(ctx context.Context, projectID, resourceID string) error
	Dependencies(ctx context.Context, projectID, resourceID string) (*DependencyReport, error)

	Diagram(ctx context.Context, projectID string, width float64) (*layout.Diagram, error)
	GetCurrentGraph(ctx context.Context, projectID string) (*models.GraphSnapshot, error)
	GetGraphVersion(ctx context.Context, projectID string, version int) (*models.GraphSnapshot, error)
	ListGraphVersions(ctx context.Context, projectID string) ([]models.GraphSnapshot, error)
	// RestoreGraphVersion makes an earlier snapshot the current one.
	RestoreGraphVersion(ctx context.Context, projectID string, version int) (*models.GraphSnapshot, error)
}

// SnapshotEnqueuer schedules a graph snapshot of a saved project.
type SnapshotEnqueuer interface {
	EnqueueSnapshot(ctx context.Context, projectID string) error
}

type CreateProjectInput struct {
	project.Meta
	NetworkName string
	Network     project.NetworkSpec
}

// ResourceInput carries a resource form. On update, nil fields keep their
// current value.
type ResourceInput struct {
	Type               string
	IsCustom           bool
	Name               *string
	Code               *string
	Properties         json.RawMessage
	Dependencies       *[]string
	CustomDependencies *[]string
}

// DependencyReport describes the edges around one resource.
type DependencyReport struct {
	Resource   project.Resource
	Merged     []string
	Dependents []project.Resource
	CanDelete  bool
	Reason     string
	// Candidates are the resources the custom dependency picker offers.
	Candidates []project.Resource
}

type projectService struct {
	store     repository.ProjectStore
	snapshots repository.SnapshotRepository
	enqueuer  SnapshotEnqueuer
}

// NewProjectService wires the service. snapshots and enqueuer may be nil
// when graph snapshots are disabled.
func NewProjectService(store repository.ProjectStore, snapshots repository.SnapshotRepository, enqueuer SnapshotEnqueuer) ProjectService {
	return &projectService{store: store, snapshots: snapshots, enqueuer: enqueuer}
}

// Ensure interfaces are satisfied at compile time
var _ ProjectService = (*projectService)(nil)

func (s *projectService) CreateProject(ctx context.Context, input *CreateProjectInput) (*project.Project, error) {
	logger.L().Info("create project called", zap.String("name", input.Name))

	p, err := project.NewProject(input.Meta, input.NetworkName, input.Network)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	logger.L().Info("project created", zap.String("project_id", p.ID))
	return p, nil
}

func (s *projectService) GetProject(ctx context.Context, projectID string) (*project.Project, error) {
	logger.L().Debug("get project", zap.String("project_id", projectID))
	if p, ok := project.Sample(projectID); ok {
		return p, nil
	}
	return s.store.Load(ctx, projectID)
}

// ListProjects returns the built-in samples followed by the stored projects.
func (s *projectService) ListProjects(ctx context.Context) ([]project.Project, error) {
	logger.L().Debug("list projects")
	stored, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := project.Samples()
	for _, p := range stored {
		if project.IsBuiltIn(p.ID) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *projectService) UpdateProjectSettings(ctx context.Context, projectID string, input *project.Meta) (*project.Project, error) {
	logger.L().Info("update project", zap.String("project_id", projectID))
	p, err := s.loadWritable(ctx, projectID)
	if err != nil {
		return nil, err
	}
	next, err := p.WithMeta(*input)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	logger.L().Info("project updated", zap.String("project_id", projectID))
	return next, nil
}

func (s *projectService) DeleteProject(ctx context.Context, projectID string) error {
	logger.L().Info("delete project", zap.String("project_id", projectID))
	if project.IsBuiltIn(projectID) {
		return forbiddenBuiltIn(projectID)
	}
	if err := s.store.Delete(ctx, projectID); err != nil {
		return err
	}
	if s.snapshots != nil {
		if err := s.snapshots.DeleteByProject(ctx, projectID); err != nil {
			logger.L().Warn("delete graph snapshots failed", zap.String("project_id", projectID), zap.Error(err))
		}
	}
	logger.L().Info("project deleted", zap.String("project_id", projectID))
	return nil
}

func (s *projectService) AddResource(ctx context.Context, projectID string, input *ResourceInput) (res *project.Resource, err error) {
	defer observe("add", &err)
	logger.L().Info("add resource", zap.String("project_id", projectID), zap.String("type", input.Type))

	p, err := s.loadWritable(ctx, projectID)
	if err != nil {
		return nil, err
	}
	r, err := newResource(input)
	if err != nil {
		return nil, err
	}
	next, added, err := p.AddResource(r)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}

	logger.L().Info("resource added", zap.String("project_id", projectID), zap.String("resource_id", added.ID))
	return &added, nil
}

func (s *projectService) UpdateResource(ctx context.Context, projectID, resourceID string, input *ResourceInput) (res *project.Resource, err error) {
	defer observe("update", &err)
	logger.L().Info("update resource", zap.String("project_id", projectID), zap.String("resource_id", resourceID))

	p, err := s.loadWritable(ctx, projectID)
	if err != nil {
		return nil, err
	}
	current, ok := findResource(p, resourceID)
	if !ok {
		return nil, appErr.Newf(appErr.CodeNotFound, "resource %s not found", resourceID)
	}
	patch, err := patchFor(current, input)
	if err != nil {
		return nil, err
	}
	next, updated, err := p.UpdateResource(resourceID, patch)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}

	logger.L().Info("resource updated", zap.String("project_id", projectID), zap.String("resource_id", resourceID))
	return &updated, nil
}

func (s *projectService) RemoveResource(ctx context.Context, projectID, resourceID string) (err error) {
	defer observe("remove", &err)
	logger.L().Info("remove resource", zap.String("project_id", projectID), zap.String("resource_id", resourceID))

	p, err := s.loadWritable(ctx, projectID)
	if err != nil {
		return err
	}
	next, err := p.RemoveResource(resourceID)
	if err != nil {
		if appErr.IsCode(err, appErr.CodeDependencyViolation) {
			metrics.DeletionsRejectedTotal.Inc()
			logger.L().Info("resource deletion refused", zap.String("project_id", projectID),
				zap.String("resource_id", resourceID), zap.String("reason", appErr.MessageOf(err)))
		}
		return err
	}
	if err := s.save(ctx, next); err != nil {
		return err
	}

	logger.L().Info("resource removed", zap.String("project_id", projectID), zap.String("resource_id", resourceID))
	return nil
}

func (s *projectService) Dependencies(ctx context.Context, projectID, resourceID string) (*DependencyReport, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	r, ok := findResource(p, resourceID)
	if !ok {
		return nil, appErr.Newf(appErr.CodeNotFound, "resource %s not found", resourceID)
	}
	canDelete, reason := project.CanDelete(p.Resources, resourceID)
	return &DependencyReport{
		Resource:   r,
		Merged:     project.MergedDependencies(r),
		Dependents: project.Dependents(p.Resources, resourceID),
		CanDelete:  canDelete,
		Reason:     reason,
		Candidates: project.CandidateTargets(p.Resources, r),
	}, nil
}

func (s *projectService) Diagram(ctx context.Context, projectID string, width float64) (*layout.Diagram, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return layout.Layout(p.Resources, layout.Options{Width: width}), nil
}

func (s *projectService) GetCurrentGraph(ctx context.Context, projectID string) (*models.GraphSnapshot, error) {
	logger.L().Debug("get current graph", zap.String("project_id", projectID))
	if err := s.snapshotsEnabled(); err != nil {
		return nil, err
	}
	var g models.GraphSnapshot
	if err := s.snapshots.GetCurrentByProject(ctx, projectID, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *projectService) GetGraphVersion(ctx context.Context, projectID string, version int) (*models.GraphSnapshot, error) {
	logger.L().Debug("get graph version", zap.String("project_id", projectID), zap.Int("version", version))
	if err := s.snapshotsEnabled(); err != nil {
		return nil, err
	}
	var g models.GraphSnapshot
	if err := s.snapshots.GetByVersion(ctx, projectID, version, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *projectService) ListGraphVersions(ctx context.Context, projectID string) ([]models.GraphSnapshot, error) {
	logger.L().Debug("list graph versions", zap.String("project_id", projectID))
	if err := s.snapshotsEnabled(); err != nil {
		return nil, err
	}
	return s.snapshots.ListByProject(ctx, projectID)
}

func (s *projectService) RestoreGraphVersion(ctx context.Context, projectID string, version int) (*models.GraphSnapshot, error) {
	if err := s.snapshotsEnabled(); err != nil {
		return nil, err
	}
	if project.IsBuiltIn(projectID) {
		return nil, forbiddenBuiltIn(projectID)
	}
	if version < 1 {
		return nil, appErr.Newf(appErr.CodeInvalid, "invalid graph version %d", version)
	}
	if err := s.snapshots.SetCurrent(ctx, projectID, version); err != nil {
		return nil, err
	}
	var g models.GraphSnapshot
	if err := s.snapshots.GetByVersion(ctx, projectID, version, &g); err != nil {
		return nil, err
	}
	logger.L().Info("restore graph version", zap.String("project_id", projectID), zap.Int("version", version))
	return &g, nil
}

func (s *projectService) snapshotsEnabled() error {
	if s.snapshots == nil {
		return appErr.New(appErr.CodeUnavailable, "graph snapshots are disabled")
	}
	return nil
}

func (s *projectService) loadWritable(ctx context.Context, projectID string) (*project.Project, error) {
	if project.IsBuiltIn(projectID) {
		return nil, forbiddenBuiltIn(projectID)
	}
	return s.store.Load(ctx, projectID)
}

// save persists p and schedules a snapshot. A failed enqueue is logged only.
func (s *projectService) save(ctx context.Context, p *project.Project) error {
	if err := s.store.Save(ctx, p); err != nil {
		return err
	}
	p.Dirty = false
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueSnapshot(ctx, p.ID); err != nil {
			logger.L().Warn("enqueue graph snapshot failed", zap.String("project_id", p.ID), zap.Error(err))
		}
	}
	return nil
}

func forbiddenBuiltIn(projectID string) error {
	return appErr.Newf(appErr.CodeForbidden, "project %s is a built-in sample and cannot be modified", projectID).
		WithMeta("project_id", projectID)
}

func observe(command string, err *error) {
	metrics.ResourceCommandsTotal.WithLabelValues(command, metrics.Outcome(*err)).Inc()
}

func findResource(p *project.Project, id string) (project.Resource, bool) {
	for _, r := range p.Resources {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return project.Resource{}, false
}

func newResource(input *ResourceInput) (project.Resource, error) {
	if strings.TrimSpace(input.Type) == "" {
		return project.Resource{}, appErr.New(appErr.CodeInvalid, "resource type is required")
	}
	kind := project.ParseKind(input.Type)
	if input.IsCustom {
		kind = project.KindCustom
	}
	var code string
	if input.Code != nil {
		code = *input.Code
	}
	spec, err := project.DecodeSpec(kind, input.Type, code, input.Properties)
	if err != nil {
		return project.Resource{}, appErr.Wrap(err, appErr.CodeInvalid, "invalid resource properties")
	}
	r := project.Resource{Spec: spec}
	if input.Name != nil {
		r.Name = *input.Name
	}
	if input.Dependencies != nil {
		r.Dependencies = *input.Dependencies
	}
	if input.CustomDependencies != nil {
		r.CustomDependencies = *input.CustomDependencies
	}
	return r, nil
}

// patchFor turns an update form into a patch. Properties are decoded
// against the current kind unless the form names another type.
func patchFor(current project.Resource, input *ResourceInput) (project.Patch, error) {
	patch := project.Patch{
		Name:               input.Name,
		Dependencies:       input.Dependencies,
		CustomDependencies: input.CustomDependencies,
	}
	if len(input.Properties) == 0 && input.Code == nil && input.Type == "" {
		return patch, nil
	}

	typeLabel := current.TypeLabel()
	kind := current.Kind()
	if input.Type != "" {
		typeLabel = input.Type
		kind = project.ParseKind(input.Type)
		if input.IsCustom {
			kind = project.KindCustom
		}
	}

	code := ""
	if c, ok := current.Spec.(project.CustomSpec); ok {
		code = c.Code
	}
	if input.Code != nil {
		code = *input.Code
	}

	raw := input.Properties
	if len(raw) == 0 {
		b, err := json.Marshal(current.Properties())
		if err != nil {
			return project.Patch{}, appErr.Wrap(err, appErr.CodeInternal, "encode current properties failed")
		}
		raw = b
	}
	spec, err := project.DecodeSpec(kind, typeLabel, code, raw)
	if err != nil {
		return project.Patch{}, appErr.Wrap(err, appErr.CodeInvalid, "invalid resource properties")
	}
	patch.Spec = spec
	return patch, nil
}
