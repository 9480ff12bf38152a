package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/edumarket/internal/cache"
	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/models"
	"github.com/edumarket/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxRatePercent = decimal.NewFromInt(100)

// TierPolicyInput 等级规则写入项
type TierPolicyInput struct {
	TierName     string           `json:"tier_name" binding:"required"`
	MinAmount    decimal.Decimal  `json:"min_amount"`
	MaxAmount    *decimal.Decimal `json:"max_amount"`
	Rate         decimal.Decimal  `json:"rate"`
	WindowType   string           `json:"window_type"`
	WindowMonths int              `json:"window_months"`
}

// TierResult 定级结果
type TierResult struct {
	TierName string          `json:"tier_name"`
	Rate     decimal.Decimal `json:"rate"`
	Matched  bool            `json:"matched"`
}

// TierPolicyService 等级规则服务
type TierPolicyService struct {
	repo     repository.TierPolicyRepository
	cacheTTL time.Duration
}

// NewTierPolicyService 创建等级规则服务
func NewTierPolicyService(repo repository.TierPolicyRepository, cacheTTL time.Duration) *TierPolicyService {
	return &TierPolicyService{repo: repo, cacheTTL: cacheTTL}
}

// List 获取某类主体的等级规则（优先读缓存）
func (s *TierPolicyService) List(subjectType string) ([]models.TierPolicy, error) {
	normalized, err := normalizeSubjectType(subjectType)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if rows, hit, err := cache.GetTierPolicies(ctx, normalized); err != nil {
		logger.Warnw("tier_policy_cache_read_failed", "subject_type", normalized, "error", err)
	} else if hit {
		return rows, nil
	}

	rows, err := s.repo.ListBySubjectType(normalized)
	if err != nil {
		return nil, err
	}
	if err := cache.SetTierPolicies(ctx, normalized, rows, s.cacheTTL); err != nil {
		logger.Warnw("tier_policy_cache_write_failed", "subject_type", normalized, "error", err)
	}
	return rows, nil
}

// ListTx 在事务内读取等级规则，不经过缓存
func (s *TierPolicyService) ListTx(tx *gorm.DB, subjectType string) ([]models.TierPolicy, error) {
	normalized, err := normalizeSubjectType(subjectType)
	if err != nil {
		return nil, err
	}
	return s.repo.WithTx(tx).ListBySubjectType(normalized)
}

// Replace 校验并整体替换某类主体的等级规则
func (s *TierPolicyService) Replace(subjectType string, inputs []TierPolicyInput) ([]models.TierPolicy, error) {
	normalized, err := normalizeSubjectType(subjectType)
	if err != nil {
		return nil, err
	}
	rows := make([]models.TierPolicy, 0, len(inputs))
	for _, input := range inputs {
		row := models.TierPolicy{
			SubjectType:  normalized,
			TierName:     strings.ToUpper(strings.TrimSpace(input.TierName)),
			MinAmount:    models.NewMoneyFromDecimal(input.MinAmount),
			Rate:         models.NewMoneyFromDecimal(input.Rate),
			WindowType:   strings.ToLower(strings.TrimSpace(input.WindowType)),
			WindowMonths: input.WindowMonths,
		}
		if row.WindowType == "" {
			row.WindowType = constants.WindowTypeTotal
		}
		if input.MaxAmount != nil {
			maxAmount := models.NewMoneyFromDecimal(*input.MaxAmount)
			row.MaxAmount = &maxAmount
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MinAmount.Decimal.LessThan(rows[j].MinAmount.Decimal)
	})
	if err := ValidateTierPolicies(rows); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceBySubjectType(normalized, rows); err != nil {
		return nil, err
	}
	if err := cache.DelTierPolicies(context.Background(), normalized); err != nil {
		logger.Warnw("tier_policy_cache_delete_failed", "subject_type", normalized, "error", err)
	}
	logger.Infow("tier_policy_replaced", "subject_type", normalized, "count", len(rows))
	return s.repo.ListBySubjectType(normalized)
}

// EnsureDefaults 规则表为空时写入默认等级
func (s *TierPolicyService) EnsureDefaults() error {
	count, err := s.repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, subjectType := range []string{constants.SubjectTypeBuyer, constants.SubjectTypeSeller} {
		if err := s.repo.ReplaceBySubjectType(subjectType, DefaultTierPolicies(subjectType)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTierPolicies 校验规则区间：从 0 开始连续不重叠，仅最高档无上限
// rows 需已按 min_amount 升序排列。
func ValidateTierPolicies(rows []models.TierPolicy) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: 至少需要一个等级", ErrTierPolicyInvalid)
	}
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		if row.TierName == "" {
			return fmt.Errorf("%w: 等级名称不能为空", ErrTierPolicyInvalid)
		}
		if _, ok := seen[row.TierName]; ok {
			return fmt.Errorf("%w: 等级名称重复 %s", ErrTierPolicyInvalid, row.TierName)
		}
		seen[row.TierName] = struct{}{}

		if row.Rate.Decimal.LessThan(decimal.Zero) || row.Rate.Decimal.GreaterThan(maxRatePercent) {
			return fmt.Errorf("%w: %s 费率需在 0-100 之间", ErrTierPolicyInvalid, row.TierName)
		}
		switch row.WindowType {
		case constants.WindowTypeTotal:
		case constants.WindowTypeRecent:
			if row.WindowMonths <= 0 {
				return fmt.Errorf("%w: %s 滚动窗口月数需大于 0", ErrTierPolicyInvalid, row.TierName)
			}
		default:
			return fmt.Errorf("%w: %s 窗口类型无效", ErrTierPolicyInvalid, row.TierName)
		}
		if row.WindowType != rows[0].WindowType || row.WindowMonths != rows[0].WindowMonths {
			return fmt.Errorf("%w: 同类主体的统计窗口需保持一致", ErrTierPolicyInvalid)
		}

		if i == 0 && !row.MinAmount.Decimal.IsZero() {
			return fmt.Errorf("%w: 最低等级下限需为 0", ErrTierPolicyInvalid)
		}
		last := i == len(rows)-1
		if row.MaxAmount == nil {
			if !last {
				return fmt.Errorf("%w: 仅最高等级可以不设上限", ErrTierPolicyInvalid)
			}
			continue
		}
		if last {
			return fmt.Errorf("%w: 最高等级不能设置上限", ErrTierPolicyInvalid)
		}
		if !row.MaxAmount.Decimal.GreaterThan(row.MinAmount.Decimal) {
			return fmt.Errorf("%w: %s 上限需大于下限", ErrTierPolicyInvalid, row.TierName)
		}
		if !row.MaxAmount.Decimal.Equal(rows[i+1].MinAmount.Decimal) {
			return fmt.Errorf("%w: %s 与下一等级区间不连续", ErrTierPolicyInvalid, row.TierName)
		}
	}
	return nil
}

// ResolveTier 按下限升序匹配第一个包含金额的区间，未命中时回落到 BRONZE / 0
func ResolveTier(rows []models.TierPolicy, amount decimal.Decimal) TierResult {
	for _, row := range rows {
		if amount.LessThan(row.MinAmount.Decimal) {
			continue
		}
		if row.MaxAmount != nil && !amount.LessThan(row.MaxAmount.Decimal) {
			continue
		}
		return TierResult{TierName: row.TierName, Rate: row.Rate.Decimal.Round(2), Matched: true}
	}
	return TierResult{TierName: constants.TierBronze, Rate: decimal.Zero, Matched: false}
}

// ResolveWindowMonths 从规则中读取滚动窗口月数，0 表示按累计金额定级
func ResolveWindowMonths(rows []models.TierPolicy) int {
	if len(rows) == 0 {
		return 0
	}
	if rows[0].WindowType == constants.WindowTypeRecent && rows[0].WindowMonths > 0 {
		return rows[0].WindowMonths
	}
	return 0
}

// DefaultTierPolicies 默认等级规则
func DefaultTierPolicies(subjectType string) []models.TierPolicy {
	type bracket struct {
		name string
		min  int64
		max  int64
		rate float64
	}
	var brackets []bracket
	if subjectType == constants.SubjectTypeSeller {
		brackets = []bracket{
			{name: constants.TierBronze, min: 0, max: 1000000, rate: 20},
			{name: constants.TierSilver, min: 1000000, max: 5000000, rate: 15},
			{name: constants.TierGold, min: 5000000, max: 20000000, rate: 12},
			{name: constants.TierPlatinum, min: 20000000, rate: 10},
		}
	} else {
		brackets = []bracket{
			{name: constants.TierBronze, min: 0, max: 100000, rate: 0},
			{name: constants.TierSilver, min: 100000, max: 500000, rate: 5},
			{name: constants.TierGold, min: 500000, max: 1000000, rate: 10},
			{name: constants.TierPlatinum, min: 1000000, rate: 15},
		}
	}
	rows := make([]models.TierPolicy, 0, len(brackets))
	for _, item := range brackets {
		row := models.TierPolicy{
			SubjectType: subjectType,
			TierName:    item.name,
			MinAmount:   models.NewMoneyFromInt(item.min),
			Rate:        models.NewMoneyFromDecimal(decimal.NewFromFloat(item.rate)),
			WindowType:  constants.WindowTypeTotal,
		}
		if item.max > 0 {
			maxAmount := models.NewMoneyFromInt(item.max)
			row.MaxAmount = &maxAmount
		}
		rows = append(rows, row)
	}
	return rows
}

func normalizeSubjectType(subjectType string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(subjectType))
	switch normalized {
	case constants.SubjectTypeBuyer, constants.SubjectTypeSeller:
		return normalized, nil
	default:
		return "", ErrSubjectTypeInvalid
	}
}
