package admin

import (
	"context"
	"strings"

	handlershared "github.com/edumarket/internal/http/handlers/shared"
	"github.com/edumarket/internal/http/response"
	"github.com/edumarket/internal/queue"
	"github.com/edumarket/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RecomputeGradesRequest 重新定级请求，subject_id 为空时批量处理该类主体
type RecomputeGradesRequest struct {
	SubjectType string `json:"subject_type" binding:"required"`
	SubjectID   uint   `json:"subject_id"`
	RollingOnly bool   `json:"rolling_only"`
}

// SetDiscountRateRequest 买家个人折扣率，rate 为 null 时恢复按等级折扣
type SetDiscountRateRequest struct {
	Rate *decimal.Decimal `json:"rate"`
}

// AdminListGradeHistory 等级变更记录
func (h *Handler) AdminListGradeHistory(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	rows, total, err := h.GradeService.ListHistory(repository.GradeHistoryListFilter{
		Page:        page,
		PageSize:    pageSize,
		SubjectType: strings.TrimSpace(c.Query("subject_type")),
		SubjectID:   handlershared.ParseQueryUint(c, "subject_id"),
	})
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.GradeErrorRules, response.CodeInternal, "error.grade_history_fetch_failed")
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// AdminRecomputeGrades 重新定级
// 队列可用时异步执行，返回 queued=true；否则同步执行并返回处理数量。
func (h *Handler) AdminRecomputeGrades(c *gin.Context) {
	var req RecomputeGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	subjectType := strings.ToLower(strings.TrimSpace(req.SubjectType))
	if h.QueueClient != nil && h.QueueClient.Enabled() {
		var err error
		if req.SubjectID > 0 {
			err = h.QueueClient.EnqueueGradeRecompute(queue.GradeRecomputePayload{SubjectType: subjectType, SubjectID: req.SubjectID})
		} else {
			err = h.QueueClient.EnqueueGradeSweep(queue.GradeSweepPayload{SubjectType: subjectType, RollingOnly: req.RollingOnly}, 0)
		}
		if err != nil {
			respondError(c, response.CodeInternal, "error.queue_unavailable", err)
			return
		}
		response.Success(c, gin.H{"queued": true})
		return
	}

	processed := 0
	var err error
	if req.SubjectID > 0 {
		err = h.GradeService.RecomputeSubject(subjectType, req.SubjectID)
		if err == nil {
			processed = 1
		}
	} else {
		processed, err = h.GradeService.SweepSubjects(context.WithoutCancel(c.Request.Context()), subjectType, req.RollingOnly)
	}
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.GradeErrorRules, response.CodeInternal, "error.grade_update_failed")
		return
	}
	response.Success(c, gin.H{"queued": false, "processed": processed})
}

// AdminSetBuyerDiscountRate 设置买家个人折扣率
func (h *Handler) AdminSetBuyerDiscountRate(c *gin.Context) {
	buyerID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req SetDiscountRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	buyer, err := h.GradeService.SetBuyerIndividualRate(buyerID, req.Rate)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.GradeErrorRules, response.CodeInternal, "error.grade_update_failed")
		return
	}
	response.Success(c, buyer)
}
