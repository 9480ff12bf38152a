package public

import (
	handlershared "github.com/edumarket/internal/http/handlers/shared"
	"github.com/edumarket/internal/http/response"
	"github.com/edumarket/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetUserID(c)
}

// currentBuyer 读取当前用户的买家档案，失败时已写入响应
func (h *Handler) currentBuyer(c *gin.Context) (*models.Buyer, bool) {
	uid, ok := getUserID(c)
	if !ok {
		return nil, false
	}
	buyer, err := h.AccountService.GetBuyerByUserID(uid)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.AccountErrorRules, response.CodeInternal, "error.buyer_fetch_failed")
		return nil, false
	}
	return buyer, true
}

// currentSeller 读取当前用户的卖家档案，失败时已写入响应
func (h *Handler) currentSeller(c *gin.Context) (*models.Seller, bool) {
	uid, ok := getUserID(c)
	if !ok {
		return nil, false
	}
	seller, err := h.AccountService.GetSellerByUserID(uid)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.AccountErrorRules, response.CodeInternal, "error.seller_fetch_failed")
		return nil, false
	}
	return seller, true
}
