package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/edumarket/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuyerRepository 买家等级档案数据访问接口
type BuyerRepository interface {
	GetByID(id uint) (*models.Buyer, error)
	GetByIDForUpdate(id uint) (*models.Buyer, error)
	GetByUserID(userID uint) (*models.Buyer, error)
	Create(buyer *models.Buyer) error
	UpdateGradeState(id uint, state GradeStateUpdate) error
	UpdateIndividualRate(id uint, rate *decimal.Decimal, updatedAt time.Time) error
	List(filter BuyerListFilter) ([]models.Buyer, int64, error)
	ListIDs(afterID uint, limit int, rollingOnly bool) ([]uint, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) BuyerRepository
}

// GormBuyerRepository GORM 实现
type GormBuyerRepository struct {
	db *gorm.DB
}

// NewBuyerRepository 创建买家仓库
func NewBuyerRepository(db *gorm.DB) *GormBuyerRepository {
	return &GormBuyerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBuyerRepository) WithTx(tx *gorm.DB) BuyerRepository {
	if tx == nil {
		return r
	}
	return &GormBuyerRepository{db: tx}
}

// Transaction 执行事务
func (r *GormBuyerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 根据 ID 获取买家
func (r *GormBuyerRepository) GetByID(id uint) (*models.Buyer, error) {
	if id == 0 {
		return nil, nil
	}
	var buyer models.Buyer
	if err := r.db.First(&buyer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &buyer, nil
}

// GetByIDForUpdate 根据 ID 获取买家并加行锁
func (r *GormBuyerRepository) GetByIDForUpdate(id uint) (*models.Buyer, error) {
	if id == 0 {
		return nil, nil
	}
	var buyer models.Buyer
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&buyer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &buyer, nil
}

// GetByUserID 根据用户 ID 获取买家
func (r *GormBuyerRepository) GetByUserID(userID uint) (*models.Buyer, error) {
	if userID == 0 {
		return nil, nil
	}
	var buyer models.Buyer
	if err := r.db.Where("user_id = ?", userID).First(&buyer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &buyer, nil
}

// Create 创建买家档案
func (r *GormBuyerRepository) Create(buyer *models.Buyer) error {
	return r.db.Create(buyer).Error
}

// UpdateGradeState 写入金额与等级
func (r *GormBuyerRepository) UpdateGradeState(id uint, state GradeStateUpdate) error {
	updates := map[string]interface{}{
		"tier":                   strings.TrimSpace(state.Tier),
		"discount_rate":          models.NewMoneyFromDecimal(state.Rate),
		"total_purchase_amount":  models.NewMoneyFromDecimal(state.TotalAmount),
		"recent_purchase_amount": models.NewMoneyFromDecimal(state.RecentAmount),
		"window_months":          state.WindowMonths,
		"updated_at":             state.UpdatedAt,
	}
	if state.LastTierUpdate != nil {
		updates["last_tier_update"] = *state.LastTierUpdate
	}
	return r.db.Model(&models.Buyer{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateIndividualRate 设置或清除个人专属折扣率
func (r *GormBuyerRepository) UpdateIndividualRate(id uint, rate *decimal.Decimal, updatedAt time.Time) error {
	var value interface{}
	if rate != nil {
		value = models.NewMoneyFromDecimal(*rate)
	}
	return r.db.Model(&models.Buyer{}).Where("id = ?", id).Updates(map[string]interface{}{
		"individual_discount_rate": value,
		"updated_at":               updatedAt,
	}).Error
}

// List 买家列表
func (r *GormBuyerRepository) List(filter BuyerListFilter) ([]models.Buyer, int64, error) {
	query := r.db.Model(&models.Buyer{})
	if tier := strings.TrimSpace(filter.Tier); tier != "" {
		query = query.Where("tier = ?", tier)
	}
	if filter.RollingOnly {
		query = query.Where("window_months > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Buyer
	if err := query.Preload("User").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListIDs 按主键游标分批获取买家 ID
func (r *GormBuyerRepository) ListIDs(afterID uint, limit int, rollingOnly bool) ([]uint, error) {
	if limit <= 0 {
		limit = 200
	}
	query := r.db.Model(&models.Buyer{}).Where("id > ?", afterID)
	if rollingOnly {
		query = query.Where("window_months > 0")
	}
	var ids []uint
	if err := query.Order("id ASC").Limit(limit).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
