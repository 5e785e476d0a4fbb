package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/iac-studio/blueprint/internal/metrics"
	"github.com/iac-studio/blueprint/internal/models"
	"github.com/iac-studio/blueprint/internal/project/layout"
	"github.com/iac-studio/blueprint/internal/repository"
	"github.com/iac-studio/blueprint/internal/services"
	appErr "github.com/iac-studio/blueprint/pkg/errors"
	"github.com/iac-studio/blueprint/pkg/logger"
	"github.com/iac-studio/blueprint/pkg/utils"
)

// TypeGraphSnapshot lays out a stored project and records the diagram as a
// new graph version when it changed.
const TypeGraphSnapshot = "graph:snapshot"

// SnapshotPayload is the task payload for graph snapshots.
type SnapshotPayload struct {
	ProjectID string `json:"project_id"`
}

// NewSnapshotTask builds a graph:snapshot task for projectID.
func NewSnapshotTask(projectID string) (*asynq.Task, error) {
	if projectID == "" {
		return nil, appErr.New(appErr.CodeInvalid, "project id is required")
	}
	payload, err := json.Marshal(SnapshotPayload{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGraphSnapshot, payload, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer schedules snapshot tasks on an asynq client.
type Enqueuer struct {
	client taskClient
	queue  string
}

var _ services.SnapshotEnqueuer = (*Enqueuer)(nil)

// NewEnqueuer wraps client. An empty queue means "default".
func NewEnqueuer(client taskClient, queue string) *Enqueuer {
	if queue == "" {
		queue = "default"
	}
	return &Enqueuer{client: client, queue: queue}
}

func (e *Enqueuer) EnqueueSnapshot(ctx context.Context, projectID string) error {
	task, err := NewSnapshotTask(projectID)
	if err != nil {
		return err
	}
	info, err := e.client.EnqueueContext(ctx, task, asynq.Queue(e.queue))
	if err != nil {
		return appErr.Wrap(err, appErr.CodeUnavailable, "enqueue graph snapshot failed")
	}
	logger.L().Debug("graph snapshot enqueued", zap.String("project_id", projectID), zap.String("task_id", info.ID))
	return nil
}

// SnapshotTaskHandler handles graph:snapshot tasks.
type SnapshotTaskHandler struct {
	store     repository.ProjectStore
	snapshots repository.SnapshotRepository
	width     float64
}

// NewSnapshotTaskHandler lays diagrams out on a canvas of the given width;
// zero keeps the layout default.
func NewSnapshotTaskHandler(store repository.ProjectStore, snapshots repository.SnapshotRepository, width float64) *SnapshotTaskHandler {
	return &SnapshotTaskHandler{store: store, snapshots: snapshots, width: width}
}

func (h *SnapshotTaskHandler) HandleSnapshot(ctx context.Context, t *asynq.Task) error {
	var p SnapshotPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid snapshot task payload", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	logger.L().Info("handling graph snapshot task", zap.String("project_id", p.ProjectID))

	proj, err := h.store.Load(ctx, p.ProjectID)
	if err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			// deleted before the worker got to it
			logger.L().Warn("snapshot project gone", zap.String("project_id", p.ProjectID))
			return nil
		}
		logger.L().Error("load project failed", zap.String("project_id", p.ProjectID), zap.Error(err))
		return err
	}

	snap, err := h.snapshot(proj.ID, layout.Layout(proj.Resources, layout.Options{Width: h.width}))
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	var current models.GraphSnapshot
	err = h.snapshots.GetCurrentByProject(ctx, proj.ID, &current)
	switch {
	case err == nil && current.Fingerprint == snap.Fingerprint:
		metrics.SnapshotsSkippedTotal.Inc()
		logger.L().Debug("graph unchanged, snapshot skipped", zap.String("project_id", proj.ID), zap.Int("version", current.Version))
		return nil
	case err != nil && !appErr.IsCode(err, appErr.CodeNotFound):
		logger.L().Error("get current snapshot failed", zap.String("project_id", proj.ID), zap.Error(err))
		return err
	}

	if err := h.snapshots.Append(ctx, snap); err != nil {
		logger.L().Error("append snapshot failed", zap.String("project_id", proj.ID), zap.Error(err))
		return err
	}
	metrics.SnapshotsSavedTotal.Inc()
	logger.L().Info("graph snapshot saved", zap.String("project_id", proj.ID), zap.Int("version", snap.Version))
	return nil
}

func (h *SnapshotTaskHandler) snapshot(projectID string, d *layout.Diagram) (*models.GraphSnapshot, error) {
	nodes, err := json.Marshal(d.Nodes)
	if err != nil {
		return nil, fmt.Errorf("marshal nodes: %w", err)
	}
	edges, err := json.Marshal(d.Edges)
	if err != nil {
		return nil, fmt.Errorf("marshal edges: %w", err)
	}
	sum := append(append([]byte{}, nodes...), edges...)
	return &models.GraphSnapshot{
		ProjectID:   projectID,
		Fingerprint: utils.Fingerprint(sum),
		Nodes:       datatypes.JSON(nodes),
		Edges:       datatypes.JSON(edges),
		Width:       d.Width,
		Height:      d.Height,
	}, nil
}
