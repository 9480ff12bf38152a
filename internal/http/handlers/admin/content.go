package admin

import (
	handlershared "github.com/edumarket/internal/http/handlers/shared"
	"github.com/edumarket/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UpdateContentStatusRequest 课程审核请求
type UpdateContentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminUpdateContentStatus 审核课程，approved 后课程可被购买
func (h *Handler) AdminUpdateContentStatus(c *gin.Context) {
	contentID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req UpdateContentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	content, err := h.ContentService.UpdateStatus(contentID, req.Status)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.ContentErrorRules, response.CodeInternal, "error.content_fetch_failed")
		return
	}
	response.Success(c, content)
}
