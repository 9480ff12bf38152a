package repository

import (
	"strings"

	"github.com/edumarket/internal/models"

	"gorm.io/gorm"
)

// TierPolicyRepository 等级规则数据访问接口
type TierPolicyRepository interface {
	ListBySubjectType(subjectType string) ([]models.TierPolicy, error)
	ReplaceBySubjectType(subjectType string, policies []models.TierPolicy) error
	Count() (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) TierPolicyRepository
}

// GormTierPolicyRepository GORM 实现
type GormTierPolicyRepository struct {
	db *gorm.DB
}

// NewTierPolicyRepository 创建等级规则仓库
func NewTierPolicyRepository(db *gorm.DB) *GormTierPolicyRepository {
	return &GormTierPolicyRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTierPolicyRepository) WithTx(tx *gorm.DB) TierPolicyRepository {
	if tx == nil {
		return r
	}
	return &GormTierPolicyRepository{db: tx}
}

// Transaction 执行事务
func (r *GormTierPolicyRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// ListBySubjectType 按区间下限升序获取某类主体的全部等级
func (r *GormTierPolicyRepository) ListBySubjectType(subjectType string) ([]models.TierPolicy, error) {
	var rows []models.TierPolicy
	if err := r.db.Where("subject_type = ?", strings.TrimSpace(subjectType)).
		Order("min_amount ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ReplaceBySubjectType 整体替换某类主体的等级规则
func (r *GormTierPolicyRepository) ReplaceBySubjectType(subjectType string, policies []models.TierPolicy) error {
	normalized := strings.TrimSpace(subjectType)
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subject_type = ?", normalized).Delete(&models.TierPolicy{}).Error; err != nil {
			return err
		}
		if len(policies) == 0 {
			return nil
		}
		rows := make([]models.TierPolicy, 0, len(policies))
		for _, policy := range policies {
			policy.ID = 0
			policy.SubjectType = normalized
			rows = append(rows, policy)
		}
		return tx.Create(&rows).Error
	})
}

// Count 统计规则条数
func (r *GormTierPolicyRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.TierPolicy{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
