package repository

import (
	"errors"
	"strings"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettlementBatchRepository 结算批次数据访问接口
type SettlementBatchRepository interface {
	Create(batch *models.SettlementBatch) error
	GetByID(id uint) (*models.SettlementBatch, error)
	GetByIDForUpdate(id uint) (*models.SettlementBatch, error)
	GetActiveBySellerAndPeriod(sellerID uint, periodStart, periodEnd string) (*models.SettlementBatch, error)
	UpdateStatus(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error)
	Updates(id uint, updates map[string]interface{}) error
	List(filter SettlementBatchListFilter) ([]models.SettlementBatch, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) SettlementBatchRepository
}

// GormSettlementBatchRepository GORM 实现
type GormSettlementBatchRepository struct {
	db *gorm.DB
}

// NewSettlementBatchRepository 创建结算批次仓库
func NewSettlementBatchRepository(db *gorm.DB) *GormSettlementBatchRepository {
	return &GormSettlementBatchRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSettlementBatchRepository) WithTx(tx *gorm.DB) SettlementBatchRepository {
	if tx == nil {
		return r
	}
	return &GormSettlementBatchRepository{db: tx}
}

// Transaction 执行事务
func (r *GormSettlementBatchRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建结算批次
func (r *GormSettlementBatchRepository) Create(batch *models.SettlementBatch) error {
	return r.db.Create(batch).Error
}

// GetByID 根据 ID 获取结算批次（含批次内记录）
func (r *GormSettlementBatchRepository) GetByID(id uint) (*models.SettlementBatch, error) {
	if id == 0 {
		return nil, nil
	}
	var batch models.SettlementBatch
	err := r.db.Preload("Settlements", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&batch, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// GetByIDForUpdate 根据 ID 获取结算批次并加行锁
func (r *GormSettlementBatchRepository) GetByIDForUpdate(id uint) (*models.SettlementBatch, error) {
	if id == 0 {
		return nil, nil
	}
	var batch models.SettlementBatch
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// GetActiveBySellerAndPeriod 获取卖家同一周期内未取消的批次
func (r *GormSettlementBatchRepository) GetActiveBySellerAndPeriod(sellerID uint, periodStart, periodEnd string) (*models.SettlementBatch, error) {
	var batch models.SettlementBatch
	err := r.db.Where("seller_id = ? AND period_start = ? AND period_end = ? AND status <> ?",
		sellerID, periodStart, periodEnd, constants.SettlementBatchStatusCancelled).
		First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// UpdateStatus 按原状态条件迁移批次状态，返回受影响行数
func (r *GormSettlementBatchRepository) UpdateStatus(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error) {
	from := normalizeStatuses(fromStatuses)
	if len(from) == 0 {
		return 0, nil
	}
	values := map[string]interface{}{}
	for key, value := range updates {
		values[key] = value
	}
	values["status"] = strings.TrimSpace(toStatus)
	result := r.db.Model(&models.SettlementBatch{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Updates 更新批次字段
func (r *GormSettlementBatchRepository) Updates(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.SettlementBatch{}).Where("id = ?", id).Updates(updates).Error
}

// List 结算批次列表
func (r *GormSettlementBatchRepository) List(filter SettlementBatchListFilter) ([]models.SettlementBatch, int64, error) {
	query := r.db.Model(&models.SettlementBatch{})
	if filter.SellerID != 0 {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if statuses := normalizeStatuses(filter.Statuses); len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.SettlementBatch
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
