package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/edumarket/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SellerRepository 卖家等级档案数据访问接口
type SellerRepository interface {
	GetByID(id uint) (*models.Seller, error)
	GetByIDForUpdate(id uint) (*models.Seller, error)
	GetByUserID(userID uint) (*models.Seller, error)
	Create(seller *models.Seller) error
	UpdateGradeState(id uint, state GradeStateUpdate) error
	UpdateBankAccount(id uint, bankName, bankAccount, accountHolder string, updatedAt time.Time) error
	List(filter SellerListFilter) ([]models.Seller, int64, error)
	ListIDs(afterID uint, limit int, rollingOnly bool) ([]uint, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) SellerRepository
}

// GormSellerRepository GORM 实现
type GormSellerRepository struct {
	db *gorm.DB
}

// NewSellerRepository 创建卖家仓库
func NewSellerRepository(db *gorm.DB) *GormSellerRepository {
	return &GormSellerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSellerRepository) WithTx(tx *gorm.DB) SellerRepository {
	if tx == nil {
		return r
	}
	return &GormSellerRepository{db: tx}
}

// Transaction 执行事务
func (r *GormSellerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 根据 ID 获取卖家
func (r *GormSellerRepository) GetByID(id uint) (*models.Seller, error) {
	if id == 0 {
		return nil, nil
	}
	var seller models.Seller
	if err := r.db.First(&seller, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seller, nil
}

// GetByIDForUpdate 根据 ID 获取卖家并加行锁
func (r *GormSellerRepository) GetByIDForUpdate(id uint) (*models.Seller, error) {
	if id == 0 {
		return nil, nil
	}
	var seller models.Seller
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&seller, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seller, nil
}

// GetByUserID 根据用户 ID 获取卖家
func (r *GormSellerRepository) GetByUserID(userID uint) (*models.Seller, error) {
	if userID == 0 {
		return nil, nil
	}
	var seller models.Seller
	if err := r.db.Where("user_id = ?", userID).First(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seller, nil
}

// Create 创建卖家档案
func (r *GormSellerRepository) Create(seller *models.Seller) error {
	return r.db.Create(seller).Error
}

// UpdateGradeState 写入金额与等级
func (r *GormSellerRepository) UpdateGradeState(id uint, state GradeStateUpdate) error {
	updates := map[string]interface{}{
		"tier":                strings.TrimSpace(state.Tier),
		"commission_rate":     models.NewMoneyFromDecimal(state.Rate),
		"total_sales_amount":  models.NewMoneyFromDecimal(state.TotalAmount),
		"recent_sales_amount": models.NewMoneyFromDecimal(state.RecentAmount),
		"window_months":       state.WindowMonths,
		"updated_at":          state.UpdatedAt,
	}
	if state.LastTierUpdate != nil {
		updates["last_tier_update"] = *state.LastTierUpdate
	}
	return r.db.Model(&models.Seller{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateBankAccount 更新收款信息
func (r *GormSellerRepository) UpdateBankAccount(id uint, bankName, bankAccount, accountHolder string, updatedAt time.Time) error {
	return r.db.Model(&models.Seller{}).Where("id = ?", id).Updates(map[string]interface{}{
		"bank_name":      strings.TrimSpace(bankName),
		"bank_account":   strings.TrimSpace(bankAccount),
		"account_holder": strings.TrimSpace(accountHolder),
		"updated_at":     updatedAt,
	}).Error
}

// List 卖家列表
func (r *GormSellerRepository) List(filter SellerListFilter) ([]models.Seller, int64, error) {
	query := r.db.Model(&models.Seller{})
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

	var rows []models.Seller
	if err := query.Preload("User").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListIDs 按主键游标分批获取卖家 ID
func (r *GormSellerRepository) ListIDs(afterID uint, limit int, rollingOnly bool) ([]uint, error) {
	if limit <= 0 {
		limit = 200
	}
	query := r.db.Model(&models.Seller{}).Where("id > ?", afterID)
	if rollingOnly {
		query = query.Where("window_months > 0")
	}
	var ids []uint
	if err := query.Order("id ASC").Limit(limit).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
