package public

import (
	"strings"
	"time"

	"github.com/edumarket/internal/constants"
	handlershared "github.com/edumarket/internal/http/handlers/shared"
	"github.com/edumarket/internal/http/response"
	"github.com/edumarket/internal/repository"
	"github.com/edumarket/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateContentRequest 卖家创建课程请求，销售日期格式 YYYY-MM-DD
type CreateContentRequest struct {
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	AlwaysOnSale  bool            `json:"always_on_sale"`
	SaleStartDate string          `json:"sale_start_date"`
	SaleEndDate   string          `json:"sale_end_date"`
}

// RequestBatchRequest 结算申请请求，周期格式 YYYY-MM-DD（含首尾）
type RequestBatchRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

var settlementErrorRules = handlershared.ConcatMappedErrors(handlershared.SettlementErrorRules, handlershared.AccountErrorRules)

// RegisterSeller 开通卖家档案
func (h *Handler) RegisterSeller(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req service.SellerBankInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	seller, err := h.AccountService.RegisterSeller(uid, req)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.AccountErrorRules, response.CodeInternal, "error.seller_fetch_failed")
		return
	}
	response.Success(c, seller)
}

// GetSeller 当前用户的卖家档案
func (h *Handler) GetSeller(c *gin.Context) {
	seller, ok := h.currentSeller(c)
	if !ok {
		return
	}
	response.Success(c, seller)
}

// UpdateSellerBank 更新收款信息
func (h *Handler) UpdateSellerBank(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req service.SellerBankInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	seller, err := h.AccountService.UpdateSellerBank(uid, req)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.AccountErrorRules, response.CodeInternal, "error.seller_fetch_failed")
		return
	}
	response.Success(c, seller)
}

// CreateSellerContent 卖家创建课程
func (h *Handler) CreateSellerContent(c *gin.Context) {
	var req CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	seller, ok := h.currentSeller(c)
	if !ok {
		return
	}
	loc := h.Config.Grade.Location()
	start, err := parseSaleDate(req.SaleStartDate, loc)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.sale_window_invalid", nil)
		return
	}
	end, err := parseSaleDate(req.SaleEndDate, loc)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.sale_window_invalid", nil)
		return
	}
	content, err := h.ContentService.Create(seller.ID, service.CreateContentInput{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		AlwaysOnSale:  req.AlwaysOnSale,
		SaleStartDate: start,
		SaleEndDate:   end,
	})
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.ContentErrorRules, response.CodeInternal, "error.content_fetch_failed")
		return
	}
	response.Success(c, content)
}

// ListSellerContents 卖家自己的课程（含未上架）
func (h *Handler) ListSellerContents(c *gin.Context) {
	seller, ok := h.currentSeller(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	contents, total, err := h.ContentService.ListBySeller(seller.ID, repository.ContentListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.content_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, contents, response.BuildPagination(page, pageSize, total))
}

// ListSellerSettlements 卖家结算记录
func (h *Handler) ListSellerSettlements(c *gin.Context) {
	seller, ok := h.currentSeller(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	settlements, total, err := h.SettlementService.ListSettlements(repository.SettlementListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: seller.ID,
		BatchID:  handlershared.ParseQueryUint(c, "batch_id"),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.settlement_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, settlements, response.BuildPagination(page, pageSize, total))
}

// RequestSettlementBatch 申请结算
func (h *Handler) RequestSettlementBatch(c *gin.Context) {
	var req RequestBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	seller, ok := h.currentSeller(c)
	if !ok {
		return
	}
	batch, err := h.SettlementService.RequestBatch(c.Request.Context(), seller.ID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		handlershared.RespondMappedError(c, err, settlementErrorRules, response.CodeInternal, "error.settlement_request_failed")
		return
	}
	response.Success(c, batch)
}

// ListSellerBatches 卖家结算批次列表
func (h *Handler) ListSellerBatches(c *gin.Context) {
	seller, ok := h.currentSeller(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.SettlementBatchListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: seller.ID,
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filter.Statuses = []string{status}
	}
	batches, total, err := h.SettlementService.ListBatches(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.settlement_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, batches, response.BuildPagination(page, pageSize, total))
}

// GetSellerBatch 卖家结算批次详情
func (h *Handler) GetSellerBatch(c *gin.Context) {
	batchID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	seller, ok := h.currentSeller(c)
	if !ok {
		return
	}
	batch, err := h.SettlementService.GetSellerBatch(seller.ID, batchID)
	if err != nil {
		handlershared.RespondMappedError(c, err, settlementErrorRules, response.CodeInternal, "error.settlement_fetch_failed")
		return
	}
	response.Success(c, batch)
}

func parseSaleDate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(constants.SettlementPeriodLayout, raw, loc)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
