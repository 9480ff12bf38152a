package authz

import "fmt"

// 内置角色名
const (
	RoleAuditor  = "auditor"
	RoleFinance  = "finance"
	RoleOperator = "operator"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 预置角色矩阵
// finance 负责结算批次打款，operator 负责课程审核与等级规则。
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: RoleAuditor,
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role:     RoleFinance,
			Inherits: []string{RoleAuditor},
			Policies: []Policy{
				{Object: "/admin/settlement-batches/:id/process", Action: "POST"},
				{Object: "/admin/settlement-batches/:id/complete", Action: "POST"},
				{Object: "/admin/settlement-batches/:id/cancel", Action: "POST"},
				{Object: "/admin/purchases/:id/cancel", Action: "POST"},
			},
		},
		{
			Role:     RoleOperator,
			Inherits: []string{RoleAuditor},
			Policies: []Policy{
				{Object: "/admin/contents/:id/status", Action: "PUT"},
				{Object: "/admin/tier-policies/:subject_type", Action: "PUT"},
				{Object: "/admin/grades/recompute", Action: "POST"},
				{Object: "/admin/buyers/:id/discount-rate", Action: "PUT"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := s.EnsureRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
