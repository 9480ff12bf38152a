package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/edumarket/internal/config"
	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/provider"
	"github.com/edumarket/internal/queue"

	"github.com/robfig/cron/v3"
)

// sweepUniqueTTL 同一主体类型的批量定级任务去重时长
const sweepUniqueTTL = 30 * time.Minute

var sweepSubjectTypes = []string{constants.SubjectTypeBuyer, constants.SubjectTypeSeller}

// Scheduler 定时重新定级调度
// 滚动窗口会随时间推移，需要定期按源记录重算近期金额。
type Scheduler struct {
	name      string
	spec      string
	cron      *cron.Cron
	container *provider.Container
}

// NewScheduler 创建定时调度服务
func NewScheduler(cfg config.GradeConfig, c *provider.Container) (*Scheduler, error) {
	if c == nil {
		return nil, errors.New("container is nil")
	}
	spec := strings.TrimSpace(cfg.SweepCron)
	if spec == "" {
		return nil, errors.New("grade sweep cron is empty")
	}
	s := &Scheduler{
		name:      "grade_scheduler",
		spec:      spec,
		cron:      cron.New(cron.WithLocation(cfg.Location())),
		container: c,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

// Name 服务名称
func (s *Scheduler) Name() string {
	if s == nil || s.name == "" {
		return "grade_scheduler"
	}
	return s.name
}

// Start 启动调度并阻塞到 ctx 结束
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || s.cron == nil {
		return errors.New("scheduler not initialized")
	}
	s.cron.Start()
	logger.Infow("grade_scheduler_started", "spec", s.spec)
	<-ctx.Done()
	return nil
}

// Stop 停止调度并等待执行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	if s == nil || s.cron == nil {
		return nil
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce 执行一轮滚动窗口重算
// 队列可用时投递任务，否则在当前进程内直接执行。
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s == nil || s.container == nil {
		return
	}
	for _, subjectType := range sweepSubjectTypes {
		if s.container.QueueClient != nil && s.container.QueueClient.Enabled() {
			payload := queue.GradeSweepPayload{SubjectType: subjectType, RollingOnly: true}
			if err := s.container.QueueClient.EnqueueGradeSweep(payload, sweepUniqueTTL); err != nil {
				logger.Warnw("grade_scheduler_enqueue_failed", "subject_type", subjectType, "error", err)
			}
			continue
		}
		if s.container.GradeService == nil {
			return
		}
		processed, err := s.container.GradeService.SweepSubjects(ctx, subjectType, true)
		if err != nil {
			logger.Warnw("grade_scheduler_sweep_failed", "subject_type", subjectType, "processed", processed, "error", err)
			continue
		}
		logger.Infow("grade_scheduler_sweep_done", "subject_type", subjectType, "processed", processed)
	}
}
