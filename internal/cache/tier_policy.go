package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/edumarket/internal/models"
)

func tierPolicyKey(subjectType string) string {
	return fmt.Sprintf("tier_policy:%s", subjectType)
}

// GetTierPolicies 读取等级规则缓存
func GetTierPolicies(ctx context.Context, subjectType string) ([]models.TierPolicy, bool, error) {
	var rows []models.TierPolicy
	hit, err := GetJSON(ctx, tierPolicyKey(subjectType), &rows)
	if err != nil || !hit {
		return nil, false, err
	}
	return rows, true, nil
}

// SetTierPolicies 写入等级规则缓存
func SetTierPolicies(ctx context.Context, subjectType string, rows []models.TierPolicy, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, tierPolicyKey(subjectType), rows, ttl)
}

// DelTierPolicies 删除等级规则缓存
func DelTierPolicies(ctx context.Context, subjectType string) error {
	return Del(ctx, tierPolicyKey(subjectType))
}
