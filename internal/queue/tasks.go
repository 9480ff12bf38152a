package queue

import (
	"encoding/json"

	"github.com/edumarket/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskGradeRecompute 单个主体重新定级任务
	TaskGradeRecompute = constants.TaskGradeRecompute
	// TaskGradeSweep 批量重新定级任务
	TaskGradeSweep = constants.TaskGradeSweep
)

// GradeRecomputePayload 单个主体重新定级任务载荷
type GradeRecomputePayload struct {
	SubjectType string `json:"subject_type"`
	SubjectID   uint   `json:"subject_id"`
}

// GradeSweepPayload 批量重新定级任务载荷
type GradeSweepPayload struct {
	SubjectType string `json:"subject_type"`
	RollingOnly bool   `json:"rolling_only"`
}

// NewGradeRecomputeTask 创建单个主体重新定级任务
func NewGradeRecomputeTask(payload GradeRecomputePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGradeRecompute, body), nil
}

// NewGradeSweepTask 创建批量重新定级任务
func NewGradeSweepTask(payload GradeSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGradeSweep, body), nil
}
