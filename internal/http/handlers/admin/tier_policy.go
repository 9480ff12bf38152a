package admin

import (
	handlershared "github.com/edumarket/internal/http/handlers/shared"
	"github.com/edumarket/internal/http/response"
	"github.com/edumarket/internal/service"

	"github.com/gin-gonic/gin"
)

// ReplaceTierPoliciesRequest 整体替换某类主体的等级规则
type ReplaceTierPoliciesRequest struct {
	Policies []service.TierPolicyInput `json:"policies" binding:"required,dive"`
}

// AdminGetTierPolicies 查询等级规则
func (h *Handler) AdminGetTierPolicies(c *gin.Context) {
	rows, err := h.TierPolicyService.List(c.Param("subject_type"))
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.GradeErrorRules, response.CodeInternal, "error.tier_policy_fetch_failed")
		return
	}
	response.Success(c, rows)
}

// AdminReplaceTierPolicies 替换等级规则，已有主体需重新定级后生效
func (h *Handler) AdminReplaceTierPolicies(c *gin.Context) {
	var req ReplaceTierPoliciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	subjectType := c.Param("subject_type")
	rows, err := h.TierPolicyService.Replace(subjectType, req.Policies)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.GradeErrorRules, response.CodeInternal, "error.tier_policy_save_failed")
		return
	}
	adminID, _ := c.Get("admin_id")
	requestLog(c).Infow("admin_tier_policies_replaced", "admin_id", adminID, "subject_type", subjectType, "count", len(rows))
	response.Success(c, rows)
}
