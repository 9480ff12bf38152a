package admin

import (
	"strings"

	handlershared "github.com/edumarket/internal/http/handlers/shared"
	"github.com/edumarket/internal/http/response"
	"github.com/edumarket/internal/repository"

	"github.com/gin-gonic/gin"
)

// CancelBatchRequest 驳回结算批次请求
type CancelBatchRequest struct {
	Reason string `json:"reason"`
}

// AdminListSettlementBatches 结算批次列表
func (h *Handler) AdminListSettlementBatches(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.SettlementBatchListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: handlershared.ParseQueryUint(c, "seller_id"),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		filter.Statuses = strings.Split(raw, ",")
	}
	batches, total, err := h.SettlementService.ListBatches(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.settlement_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, batches, response.BuildPagination(page, pageSize, total))
}

// AdminGetSettlementBatch 结算批次详情（附带批次内结算记录）
func (h *Handler) AdminGetSettlementBatch(c *gin.Context) {
	batchID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	batch, err := h.SettlementService.GetBatch(batchID)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.SettlementErrorRules, response.CodeInternal, "error.settlement_fetch_failed")
		return
	}
	settlements, err := h.SettlementService.ListBatchSettlements(batch.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.settlement_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"batch":       batch,
		"settlements": settlements,
	})
}

// AdminProcessSettlementBatch 开始处理结算批次
func (h *Handler) AdminProcessSettlementBatch(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	batchID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	batch, err := h.SettlementService.MarkProcessing(batchID, adminID)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.SettlementErrorRules, response.CodeInternal, "error.settlement_batch_update_failed")
		return
	}
	response.Success(c, batch)
}

// AdminCompleteSettlementBatch 确认打款完成
func (h *Handler) AdminCompleteSettlementBatch(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	batchID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	batch, err := h.SettlementService.CompleteBatch(c.Request.Context(), batchID, adminID)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.SettlementErrorRules, response.CodeInternal, "error.settlement_batch_update_failed")
		return
	}
	requestLog(c).Infow("admin_settlement_batch_completed", "admin_id", adminID, "batch_id", batch.ID)
	response.Success(c, batch)
}

// AdminCancelSettlementBatch 驳回结算批次，批次内记录回到待结算
func (h *Handler) AdminCancelSettlementBatch(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	batchID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req CancelBatchRequest
	if err := handlershared.BindOptionalJSON(c, &req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	batch, err := h.SettlementService.CancelBatch(c.Request.Context(), batchID, adminID, strings.TrimSpace(req.Reason))
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.SettlementErrorRules, response.CodeInternal, "error.settlement_batch_update_failed")
		return
	}
	response.Success(c, batch)
}
