package public

import (
	"strings"

	handlershared "github.com/edumarket/internal/http/handlers/shared"
	"github.com/edumarket/internal/http/response"
	"github.com/edumarket/internal/repository"
	"github.com/edumarket/internal/service"

	"github.com/gin-gonic/gin"
)

// QuotePurchaseRequest 价格预览请求
type QuotePurchaseRequest struct {
	ContentID uint `json:"content_id" binding:"required"`
}

// CreatePurchaseRequest 购买请求，调用前支付已由外部网关确认
type CreatePurchaseRequest struct {
	ContentID     uint   `json:"content_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

var purchaseErrorRules = handlershared.ConcatMappedErrors(handlershared.PurchaseErrorRules, handlershared.AccountErrorRules)

// RegisterBuyer 开通买家档案
func (h *Handler) RegisterBuyer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	buyer, err := h.AccountService.RegisterBuyer(uid)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.AccountErrorRules, response.CodeInternal, "error.buyer_fetch_failed")
		return
	}
	response.Success(c, buyer)
}

// GetBuyer 当前用户的买家档案
func (h *Handler) GetBuyer(c *gin.Context) {
	buyer, ok := h.currentBuyer(c)
	if !ok {
		return
	}
	response.Success(c, buyer)
}

// QuotePurchase 按当前等级预览折扣价
func (h *Handler) QuotePurchase(c *gin.Context) {
	var req QuotePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	buyer, ok := h.currentBuyer(c)
	if !ok {
		return
	}
	quote, err := h.PurchaseService.Quote(buyer.ID, req.ContentID)
	if err != nil {
		handlershared.RespondMappedError(c, err, purchaseErrorRules, response.CodeInternal, "error.purchase_failed")
		return
	}
	response.Success(c, quote)
}

// CreatePurchase 完成购买
func (h *Handler) CreatePurchase(c *gin.Context) {
	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	buyer, ok := h.currentBuyer(c)
	if !ok {
		return
	}
	result, err := h.PurchaseService.Purchase(c.Request.Context(), service.PurchaseInput{
		BuyerID:       buyer.ID,
		ContentID:     req.ContentID,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
	})
	if err != nil {
		handlershared.RespondMappedError(c, err, purchaseErrorRules, response.CodeInternal, "error.purchase_failed")
		return
	}
	requestLog(c).Infow("purchase_api_completed", "buyer_id", buyer.ID, "purchase_id", result.Purchase.ID)
	response.Success(c, result)
}

// ListPurchases 当前买家的购买记录
func (h *Handler) ListPurchases(c *gin.Context) {
	buyer, ok := h.currentBuyer(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	purchases, total, err := h.PurchaseService.ListPurchases(repository.PurchaseListFilter{
		Page:     page,
		PageSize: pageSize,
		BuyerID:  buyer.ID,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.purchase_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, purchases, response.BuildPagination(page, pageSize, total))
}
