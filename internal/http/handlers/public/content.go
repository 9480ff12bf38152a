package public

import (
	"strings"

	"github.com/edumarket/internal/constants"
	handlershared "github.com/edumarket/internal/http/handlers/shared"
	"github.com/edumarket/internal/http/response"
	"github.com/edumarket/internal/models"
	"github.com/edumarket/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListContents 已上架课程列表
func (h *Handler) ListContents(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	contents, total, err := h.ContentService.ListPublic(repository.ContentListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: handlershared.ParseQueryUint(c, "seller_id"),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.content_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, contents, response.BuildPagination(page, pageSize, total))
}

// GetContent 课程详情
func (h *Handler) GetContent(c *gin.Context) {
	contentID, ok := handlershared.ParsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	content, err := h.ContentService.GetPublic(contentID)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.ContentErrorRules, response.CodeInternal, "error.content_fetch_failed")
		return
	}
	response.Success(c, content)
}

// ListTierPolicies 公开等级规则，subject_type 为空时返回买家与卖家两组
func (h *Handler) ListTierPolicies(c *gin.Context) {
	subjectTypes := []string{constants.SubjectTypeBuyer, constants.SubjectTypeSeller}
	if raw := strings.TrimSpace(c.Query("subject_type")); raw != "" {
		subjectTypes = []string{raw}
	}
	result := make(map[string][]models.TierPolicy, len(subjectTypes))
	for _, subjectType := range subjectTypes {
		rows, err := h.TierPolicyService.List(subjectType)
		if err != nil {
			handlershared.RespondMappedError(c, err, handlershared.GradeErrorRules, response.CodeInternal, "error.tier_policy_fetch_failed")
			return
		}
		result[subjectType] = rows
	}
	response.Success(c, result)
}
