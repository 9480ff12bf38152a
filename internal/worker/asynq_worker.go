package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/provider"
	"github.com/edumarket/internal/queue"
	"github.com/edumarket/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskGradeRecompute, c.handleGradeRecompute)
	mux.HandleFunc(queue.TaskGradeSweep, c.handleGradeSweep)
}

func (c *Consumer) handleGradeRecompute(_ context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_grade_recompute_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GradeRecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_grade_recompute_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.SubjectID == 0 {
		logger.Debugw("worker_grade_recompute_skip_invalid_payload", "subject_type", payload.SubjectType)
		return nil
	}
	if c.GradeService == nil {
		logger.Warnw("worker_grade_recompute_skip_service_nil", "subject_type", payload.SubjectType, "subject_id", payload.SubjectID)
		return nil
	}
	err := c.GradeService.RecomputeSubject(payload.SubjectType, payload.SubjectID)
	switch {
	case err == nil:
		logger.Infow("worker_grade_recompute_done", "subject_type", payload.SubjectType, "subject_id", payload.SubjectID)
		return nil
	case errors.Is(err, service.ErrNotFound):
		logger.Debugw("worker_grade_recompute_skip_not_found", "subject_type", payload.SubjectType, "subject_id", payload.SubjectID)
		return nil
	case errors.Is(err, service.ErrSubjectTypeInvalid):
		logger.Warnw("worker_grade_recompute_skip_subject_type", "subject_type", payload.SubjectType, "subject_id", payload.SubjectID)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	default:
		logger.Warnw("worker_grade_recompute_failed", "subject_type", payload.SubjectType, "subject_id", payload.SubjectID, "error", err)
		return err
	}
}

func (c *Consumer) handleGradeSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_grade_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GradeSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_grade_sweep_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if c.GradeService == nil {
		logger.Warnw("worker_grade_sweep_skip_service_nil", "subject_type", payload.SubjectType)
		return nil
	}
	processed, err := c.GradeService.SweepSubjects(ctx, payload.SubjectType, payload.RollingOnly)
	if err != nil {
		if errors.Is(err, service.ErrSubjectTypeInvalid) {
			logger.Warnw("worker_grade_sweep_skip_subject_type", "subject_type", payload.SubjectType)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		logger.Warnw("worker_grade_sweep_failed", "subject_type", payload.SubjectType, "processed", processed, "error", err)
		return err
	}
	logger.Infow("worker_grade_sweep_done", "subject_type", payload.SubjectType, "rolling_only", payload.RollingOnly, "processed", processed)
	return nil
}
