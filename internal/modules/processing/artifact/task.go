package artifact

import (
	"context"

	"github.com/studyhub/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
)

const TaskTypeGenerate = "artifact:generate"

// TaskQueue is the task record store the runner works against.
type TaskQueue interface {
	Enqueue(ctx context.Context, taskType, ownerID string, payload interface{}, dedupKey string) (*taskqueue.Task, bool, error)
	GetByID(ctx context.Context, id string) (*taskqueue.Task, error)
	UpdateStatus(ctx context.Context, id string, status taskqueue.TaskStatus, result interface{}, errMsg string) error
}

// TaskRunner runs generation requests in the background and records their
// progress in the task queue.
type TaskRunner struct {
	queue TaskQueue
	orch  *Orchestrator
	log   *zap.Logger
	spawn func(func())
}

func NewTaskRunner(queue TaskQueue, orch *Orchestrator, log *zap.Logger) *TaskRunner {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskRunner{
		queue: queue,
		orch:  orch,
		log:   log,
		spawn: func(fn func()) { go fn() },
	}
}

// Enqueue validates raw and checks ownership before queueing. While a task
// for the same key is pending or running that task is returned instead.
func (r *TaskRunner) Enqueue(ctx context.Context, raw RawRequest) (*taskqueue.Task, error) {
	req, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	if _, err := r.orch.resources.Lookup(ctx, req.ResourceID, req.OwnerID); err != nil {
		return nil, err
	}

	task, created, err := r.queue.Enqueue(ctx, TaskTypeGenerate, req.OwnerID, req, req.Key().String())
	if err != nil {
		return nil, err
	}
	if created {
		taskID := task.ID
		r.spawn(func() { r.execute(context.Background(), taskID, req) })
	}
	return task, nil
}

// Get returns the task if it belongs to ownerID.
func (r *TaskRunner) Get(ctx context.Context, id, ownerID string) (*taskqueue.Task, error) {
	task, err := r.queue.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != ownerID {
		return nil, taskqueue.ErrTaskNotFound
	}
	return task, nil
}

func (r *TaskRunner) execute(ctx context.Context, taskID string, req Request) {
	log := r.log.With(zap.String("task", taskID), zap.String("key", req.Key().String()))
	if err := r.queue.UpdateStatus(ctx, taskID, taskqueue.TaskRunning, nil, ""); err != nil {
		log.Warn("mark task running failed", zap.Error(err))
	}

	res, err := r.orch.Run(ctx, req)
	if err != nil {
		log.Error("generation task failed", zap.Error(err))
		if uerr := r.queue.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error()); uerr != nil {
			log.Warn("mark task failed failed", zap.Error(uerr))
		}
		return
	}
	if err := r.queue.UpdateStatus(ctx, taskID, taskqueue.TaskCompleted, res, ""); err != nil {
		log.Warn("mark task completed failed", zap.Error(err))
	}
}
