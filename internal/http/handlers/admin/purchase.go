package admin

import (
	"strings"

	handlershared "github.com/edumarket/internal/http/handlers/shared"
	"github.com/edumarket/internal/http/response"
	"github.com/edumarket/internal/repository"

	"github.com/gin-gonic/gin"
)

// CancelPurchaseRequest 撤销购买请求
type CancelPurchaseRequest struct {
	Reason string `json:"reason"`
}

// AdminListPurchases 购买记录列表
func (h *Handler) AdminListPurchases(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	purchases, total, err := h.PurchaseService.ListPurchases(repository.PurchaseListFilter{
		Page:      page,
		PageSize:  pageSize,
		BuyerID:   handlershared.ParseQueryUint(c, "buyer_id"),
		SellerID:  handlershared.ParseQueryUint(c, "seller_id"),
		ContentID: handlershared.ParseQueryUint(c, "content_id"),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.purchase_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, purchases, response.BuildPagination(page, pageSize, total))
}

// AdminGetPurchase 购买详情（附带结算记录）
func (h *Handler) AdminGetPurchase(c *gin.Context) {
	purchaseID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	detail, err := h.PurchaseService.GetPurchaseDetail(purchaseID)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.PurchaseErrorRules, response.CodeInternal, "error.purchase_fetch_failed")
		return
	}
	response.Success(c, detail)
}

// AdminCancelPurchase 撤销未进入结算批次的购买
func (h *Handler) AdminCancelPurchase(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	purchaseID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req CancelPurchaseRequest
	if err := handlershared.BindOptionalJSON(c, &req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	purchase, err := h.PurchaseService.CancelPurchase(c.Request.Context(), purchaseID, adminID, strings.TrimSpace(req.Reason))
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.PurchaseErrorRules, response.CodeInternal, "error.purchase_failed")
		return
	}
	response.Success(c, purchase)
}
