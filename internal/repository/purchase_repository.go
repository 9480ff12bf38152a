package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseRepository 购买记录数据访问接口
type PurchaseRepository interface {
	Create(purchase *models.Purchase) error
	GetByID(id uint) (*models.Purchase, error)
	GetByIDForUpdate(id uint) (*models.Purchase, error)
	GetCompletedByBuyerAndContent(buyerID, contentID uint) (*models.Purchase, error)
	SumCompletedFinalPriceByBuyerSince(buyerID uint, since *time.Time) (decimal.Decimal, error)
	UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error)
	List(filter PurchaseListFilter) ([]models.Purchase, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PurchaseRepository
}

// GormPurchaseRepository GORM 实现
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository 创建购买记录仓库
func NewPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPurchaseRepository) WithTx(tx *gorm.DB) PurchaseRepository {
	if tx == nil {
		return r
	}
	return &GormPurchaseRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPurchaseRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建购买记录
func (r *GormPurchaseRepository) Create(purchase *models.Purchase) error {
	return r.db.Create(purchase).Error
}

// GetByID 根据 ID 获取购买记录
func (r *GormPurchaseRepository) GetByID(id uint) (*models.Purchase, error) {
	if id == 0 {
		return nil, nil
	}
	var purchase models.Purchase
	if err := r.db.Preload("Content").First(&purchase, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

// GetByIDForUpdate 根据 ID 获取购买记录并加行锁
func (r *GormPurchaseRepository) GetByIDForUpdate(id uint) (*models.Purchase, error) {
	if id == 0 {
		return nil, nil
	}
	var purchase models.Purchase
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&purchase, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

// GetCompletedByBuyerAndContent 获取买家对某课程的已完成购买
func (r *GormPurchaseRepository) GetCompletedByBuyerAndContent(buyerID, contentID uint) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.Where("buyer_id = ? AND content_id = ? AND status = ?", buyerID, contentID, constants.PurchaseStatusCompleted).
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

// SumCompletedFinalPriceByBuyerSince 汇总买家已完成购买的实付金额
// since 为空时统计全部记录。
func (r *GormPurchaseRepository) SumCompletedFinalPriceByBuyerSince(buyerID uint, since *time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	query := r.db.Model(&models.Purchase{}).
		Select("COALESCE(SUM(final_price), 0) AS total").
		Where("buyer_id = ? AND status = ?", buyerID, constants.PurchaseStatusCompleted)
	if since != nil {
		query = query.Where("purchased_at >= ?", since.UTC())
	}
	if err := query.Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// UpdateStatus 按原状态条件更新购买状态，返回受影响行数
func (r *GormPurchaseRepository) UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error) {
	values := map[string]interface{}{}
	for key, value := range updates {
		values[key] = value
	}
	values["status"] = strings.TrimSpace(toStatus)
	result := r.db.Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, strings.TrimSpace(fromStatus)).
		Updates(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// List 购买记录列表
func (r *GormPurchaseRepository) List(filter PurchaseListFilter) ([]models.Purchase, int64, error) {
	query := r.db.Model(&models.Purchase{})
	if filter.BuyerID != 0 {
		query = query.Where("buyer_id = ?", filter.BuyerID)
	}
	if filter.SellerID != 0 {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.ContentID != 0 {
		query = query.Where("content_id = ?", filter.ContentID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	query = applyCreatedRange(query, "created_at", filter.CreatedFrom, filter.CreatedTo)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Purchase
	if err := query.Preload("Content").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
