package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iac-studio/blueprint/internal/models"
	"github.com/iac-studio/blueprint/internal/project"
	appErr "github.com/iac-studio/blueprint/pkg/errors"
	"github.com/iac-studio/blueprint/pkg/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests (required by services)
	_, err := logger.Init("error", "json")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

type mockProjectStore struct {
	mock.Mock
}

func (m *mockProjectStore) Load(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*project.Project).Clone(), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProjectStore) Save(ctx context.Context, p *project.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProjectStore) List(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]project.Project), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProjectStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockSnapshotRepository struct {
	mock.Mock
}

func (m *mockSnapshotRepository) GetCurrentByProject(ctx context.Context, projectID string, dest *models.GraphSnapshot) error {
	args := m.Called(ctx, projectID, dest)
	if args.Error(0) == nil && args.Get(1) != nil {
		*dest = *args.Get(1).(*models.GraphSnapshot)
	}
	return args.Error(0)
}

func (m *mockSnapshotRepository) GetByVersion(ctx context.Context, projectID string, version int, dest *models.GraphSnapshot) error {
	args := m.Called(ctx, projectID, version, dest)
	if args.Error(0) == nil && args.Get(1) != nil {
		*dest = *args.Get(1).(*models.GraphSnapshot)
	}
	return args.Error(0)
}

func (m *mockSnapshotRepository) ListByProject(ctx context.Context, projectID string) ([]models.GraphSnapshot, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]models.GraphSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSnapshotRepository) Append(ctx context.Context, snap *models.GraphSnapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *mockSnapshotRepository) SetCurrent(ctx context.Context, projectID string, version int) error {
	args := m.Called(ctx, projectID, version)
	return args.Error(0)
}

func (m *mockSnapshotRepository) DeleteByProject(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueSnapshot(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

func storedProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.NewProject(project.Meta{
		Name:        "shop",
		Provider:    "aws",
		Region:      "us-east-1",
		Environment: project.EnvDevelopment,
	}, "main-vpc", project.NetworkSpec{CIDRBlock: "10.0.0.0/16"})
	require.NoError(t, err)
	p.Dirty = false
	return p
}

func TestProjectService_CreateProject(t *testing.T) {
	store := &mockProjectStore{}
	enq := &mockEnqueuer{}
	svc := NewProjectService(store, nil, enq)

	store.On("Save", mock.Anything, mock.MatchedBy(func(p *project.Project) bool {
		return p.Name == "shop" && len(p.Resources) == 1 && p.Resources[0].IsAnchorNetwork
	})).Return(nil).Once()
	enq.On("EnqueueSnapshot", mock.Anything, mock.AnythingOfType("string")).Return(errors.New("queue down")).Once()

	p, err := svc.CreateProject(context.Background(), &CreateProjectInput{
		Meta:    project.Meta{Name: "shop", Provider: "aws", Region: "us-east-1", Environment: project.EnvProduction},
		Network: project.NetworkSpec{CIDRBlock: "10.0.0.0/16"},
	})
	require.NoError(t, err, "enqueue failures are not fatal")
	require.False(t, p.Dirty)
	mock.AssertExpectationsForObjects(t, store, enq)

	_, err = svc.CreateProject(context.Background(), &CreateProjectInput{Meta: project.Meta{Name: ""}})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestProjectService_BuiltInsAreReadOnly(t *testing.T) {
	store := &mockProjectStore{}
	svc := NewProjectService(store, nil, nil)
	ctx := context.Background()

	p, err := svc.GetProject(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "AWS Web Infrastructure", p.Name)

	_, err = svc.AddResource(ctx, "1", &ResourceInput{Type: "S3", Name: strPtr("b")})
	require.True(t, appErr.IsCode(err, appErr.CodeForbidden))
	require.True(t, appErr.IsCode(svc.RemoveResource(ctx, "1", "3"), appErr.CodeForbidden))
	require.True(t, appErr.IsCode(svc.DeleteProject(ctx, "5"), appErr.CodeForbidden))
	_, err = svc.UpdateProjectSettings(ctx, "2", &project.Meta{Name: "x"})
	require.True(t, appErr.IsCode(err, appErr.CodeForbidden))

	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProjectService_ListProjects(t *testing.T) {
	store := &mockProjectStore{}
	svc := NewProjectService(store, nil, nil)
	mine := storedProject(t)
	shadow := project.Project{ID: "3", Name: "stale copy"}
	store.On("List", mock.Anything).Return([]project.Project{shadow, *mine}, nil).Once()

	all, err := svc.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 6)
	require.Equal(t, "Static Website", all[2].Name)
	require.Equal(t, mine.ID, all[5].ID)
}

func TestProjectService_AddResource(t *testing.T) {
	store := &mockProjectStore{}
	svc := NewProjectService(store, nil, nil)
	ctx := context.Background()
	p := storedProject(t)
	anchorID := p.Resources[0].ID

	store.On("Load", mock.Anything, p.ID).Return(p, nil)
	store.On("Save", mock.Anything, mock.MatchedBy(func(saved *project.Project) bool {
		return len(saved.Resources) == 2
	})).Return(nil).Once()

	r, err := svc.AddResource(ctx, p.ID, &ResourceInput{
		Type:       "EC2",
		Name:       strPtr("web"),
		Properties: json.RawMessage(`{"instance_type":"t2.micro","ami":"ami-123"}`),
	})
	require.NoError(t, err)
	require.Equal(t, project.KindCompute, r.Kind())
	require.Equal(t, []string{anchorID}, r.Dependencies)

	t.Run("custom resource", func(t *testing.T) {
		store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
		r, err := svc.AddResource(ctx, p.ID, &ResourceInput{
			Type:       "aws_sqs_queue",
			IsCustom:   true,
			Name:       strPtr("jobs"),
			Code:       strPtr(`resource "aws_sqs_queue" "jobs" {}`),
			Properties: json.RawMessage(`{"fifo":true}`),
		})
		require.NoError(t, err)
		require.Equal(t, project.KindCustom, r.Kind())
		require.Equal(t, map[string]any{"fifo": "true"}, r.Properties())
	})

	t.Run("validation failure is not saved", func(t *testing.T) {
		_, err := svc.AddResource(ctx, p.ID, &ResourceInput{
			Type:       "RDS",
			Name:       strPtr("db"),
			Properties: json.RawMessage(`{"engine":"db2","instance_class":"db.t3.micro"}`),
		})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := svc.AddResource(ctx, p.ID, &ResourceInput{Name: strPtr("x")})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	})

	store.AssertExpectations(t)
}

func TestProjectService_UpdateResource(t *testing.T) {
	store := &mockProjectStore{}
	svc := NewProjectService(store, nil, nil)
	ctx := context.Background()
	p := storedProject(t)
	p, web, err := p.AddResource(project.Resource{Name: "web", Spec: project.ComputeSpec{InstanceType: "t2.micro", AMI: "ami-1"}})
	require.NoError(t, err)

	store.On("Load", mock.Anything, p.ID).Return(p, nil)
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateResource(ctx, p.ID, web.ID, &ResourceInput{Name: strPtr("web-1")})
	require.NoError(t, err)
	require.Equal(t, web.ID, updated.ID)
	require.Equal(t, "web-1", updated.Name)
	require.Equal(t, web.Spec, updated.Spec)

	updated, err = svc.UpdateResource(ctx, p.ID, web.ID, &ResourceInput{Properties: json.RawMessage(`{"instance_type":"t3.large","ami":"ami-2"}`)})
	require.NoError(t, err)
	require.Equal(t, project.ComputeSpec{InstanceType: "t3.large", AMI: "ami-2"}, updated.Spec)

	_, err = svc.UpdateResource(ctx, p.ID, "ghost", &ResourceInput{Name: strPtr("x")})
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestProjectService_RemoveResource(t *testing.T) {
	store := &mockProjectStore{}
	svc := NewProjectService(store, nil, nil)
	ctx := context.Background()
	p := storedProject(t)
	anchorID := p.Resources[0].ID
	p, web, err := p.AddResource(project.Resource{Name: "web", Spec: project.ComputeSpec{InstanceType: "t2.micro", AMI: "ami-1"}})
	require.NoError(t, err)

	store.On("Load", mock.Anything, p.ID).Return(p, nil)

	err = svc.RemoveResource(ctx, p.ID, anchorID)
	require.True(t, appErr.IsCode(err, appErr.CodeDependencyViolation))
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	store.On("Save", mock.Anything, mock.MatchedBy(func(saved *project.Project) bool {
		return len(saved.Resources) == 1 && saved.Resources[0].ID == anchorID
	})).Return(nil).Once()
	require.NoError(t, svc.RemoveResource(ctx, p.ID, web.ID))
	store.AssertExpectations(t)
}

func TestProjectService_StorageUnavailable(t *testing.T) {
	store := &mockProjectStore{}
	svc := NewProjectService(store, nil, nil)
	down := appErr.New(appErr.CodeUnavailable, "storage unavailable")
	store.On("Load", mock.Anything, "p").Return(nil, down)

	_, err := svc.AddResource(context.Background(), "p", &ResourceInput{Type: "S3", Name: strPtr("b")})
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
}

func TestProjectService_Dependencies(t *testing.T) {
	svc := NewProjectService(&mockProjectStore{}, nil, nil)

	report, err := svc.Dependencies(context.Background(), "2", "2")
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, report.Merged)
	require.Len(t, report.Dependents, 1)
	require.Equal(t, "replica-db", report.Dependents[0].Name)
	require.False(t, report.CanDelete)
	require.Contains(t, report.Reason, "replica-db")
	require.Len(t, report.Candidates, 1)

	_, err = svc.Dependencies(context.Background(), "2", "99")
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestProjectService_Diagram(t *testing.T) {
	svc := NewProjectService(&mockProjectStore{}, nil, nil)

	d, err := svc.Diagram(context.Background(), "1", 1000)
	require.NoError(t, err)
	require.Equal(t, 1000.0, d.Width)
	require.Len(t, d.Nodes, 4)
	require.Len(t, d.Edges, 2)
}

func TestProjectService_GraphVersions(t *testing.T) {
	ctx := context.Background()

	disabled := NewProjectService(&mockProjectStore{}, nil, nil)
	_, err := disabled.ListGraphVersions(ctx, "p")
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))

	snaps := &mockSnapshotRepository{}
	svc := NewProjectService(&mockProjectStore{}, snaps, nil)
	want := &models.GraphSnapshot{ProjectID: "p", Version: 3, IsCurrent: true}
	snaps.On("GetByVersion", mock.Anything, "p", 3, mock.Anything).Return(nil, want).Once()
	snaps.On("ListByProject", mock.Anything, "p").Return([]models.GraphSnapshot{*want}, nil).Once()

	got, err := svc.GetGraphVersion(ctx, "p", 3)
	require.NoError(t, err)
	require.Equal(t, want, got)

	list, err := svc.ListGraphVersions(ctx, "p")
	require.NoError(t, err)
	require.Len(t, list, 1)
	snaps.AssertExpectations(t)
}

func TestProjectService_RestoreGraphVersion(t *testing.T) {
	ctx := context.Background()

	disabled := NewProjectService(&mockProjectStore{}, nil, nil)
	_, err := disabled.RestoreGraphVersion(ctx, "p", 1)
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))

	snaps := &mockSnapshotRepository{}
	svc := NewProjectService(&mockProjectStore{}, snaps, nil)
	restored := &models.GraphSnapshot{ProjectID: "p", Version: 1, IsCurrent: true}
	snaps.On("SetCurrent", mock.Anything, "p", 1).Return(nil).Once()
	snaps.On("GetByVersion", mock.Anything, "p", 1, mock.Anything).Return(nil, restored).Once()
	snaps.On("SetCurrent", mock.Anything, "p", 9).Return(appErr.Newf(appErr.CodeNotFound, "graph version %d not found", 9)).Once()

	got, err := svc.RestoreGraphVersion(ctx, "p", 1)
	require.NoError(t, err)
	require.Equal(t, restored, got)

	_, err = svc.RestoreGraphVersion(ctx, "p", 9)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	_, err = svc.RestoreGraphVersion(ctx, "p", 0)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	_, err = svc.RestoreGraphVersion(ctx, "1", 1)
	require.True(t, appErr.IsCode(err, appErr.CodeForbidden))
	snaps.AssertExpectations(t)
}

func TestProjectService_DeleteProject(t *testing.T) {
	store := &mockProjectStore{}
	snaps := &mockSnapshotRepository{}
	svc := NewProjectService(store, snaps, nil)

	store.On("Delete", mock.Anything, "p").Return(nil).Once()
	snaps.On("DeleteByProject", mock.Anything, "p").Return(nil).Once()
	require.NoError(t, svc.DeleteProject(context.Background(), "p"))

	store.On("Delete", mock.Anything, "gone").Return(appErr.New(appErr.CodeNotFound, "project gone not found")).Once()
	require.True(t, appErr.IsCode(svc.DeleteProject(context.Background(), "gone"), appErr.CodeNotFound))
	mock.AssertExpectationsForObjects(t, store, snaps)
}
