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

// SettlementRepository 结算记录数据访问接口
type SettlementRepository interface {
	Create(settlement *models.Settlement) error
	GetByID(id uint) (*models.Settlement, error)
	GetByPurchaseID(purchaseID uint) (*models.Settlement, error)
	GetByPurchaseIDForUpdate(purchaseID uint) (*models.Settlement, error)
	SumTotalBySellerSince(sellerID uint, since *time.Time) (decimal.Decimal, error)
	AggregatePendingBySellerInRange(sellerID uint, from, to time.Time) (SettlementAggregate, error)
	MarkRequested(ids []uint, batchID uint, settlementDate string, now time.Time) (int64, error)
	MarkCompletedByBatch(batchID uint, now time.Time) (int64, error)
	ResetRequestedByBatch(batchID uint, now time.Time) (int64, error)
	UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error)
	ListByBatchID(batchID uint) ([]models.Settlement, error)
	List(filter SettlementListFilter) ([]models.Settlement, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) SettlementRepository
}

// GormSettlementRepository GORM 实现
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository 创建结算记录仓库
func NewSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSettlementRepository) WithTx(tx *gorm.DB) SettlementRepository {
	if tx == nil {
		return r
	}
	return &GormSettlementRepository{db: tx}
}

// Transaction 执行事务
func (r *GormSettlementRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建结算记录
func (r *GormSettlementRepository) Create(settlement *models.Settlement) error {
	return r.db.Create(settlement).Error
}

// GetByID 根据 ID 获取结算记录
func (r *GormSettlementRepository) GetByID(id uint) (*models.Settlement, error) {
	if id == 0 {
		return nil, nil
	}
	var settlement models.Settlement
	if err := r.db.First(&settlement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

// GetByPurchaseID 根据购买记录获取结算
func (r *GormSettlementRepository) GetByPurchaseID(purchaseID uint) (*models.Settlement, error) {
	return r.getByPurchaseID(r.db, purchaseID)
}

// GetByPurchaseIDForUpdate 根据购买记录获取结算并加行锁
func (r *GormSettlementRepository) GetByPurchaseIDForUpdate(purchaseID uint) (*models.Settlement, error) {
	return r.getByPurchaseID(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), purchaseID)
}

func (r *GormSettlementRepository) getByPurchaseID(query *gorm.DB, purchaseID uint) (*models.Settlement, error) {
	if purchaseID == 0 {
		return nil, nil
	}
	var settlement models.Settlement
	if err := query.Where("purchase_id = ?", purchaseID).First(&settlement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settlement, nil
}

// SumTotalBySellerSince 汇总卖家未取消结算的交易总额（按结算创建时间）
// since 为空时统计全部记录。
func (r *GormSettlementRepository) SumTotalBySellerSince(sellerID uint, since *time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	query := r.db.Model(&models.Settlement{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("seller_id = ? AND status <> ?", sellerID, constants.SettlementStatusCancelled)
	if since != nil {
		query = query.Where("created_at >= ?", since.UTC())
	}
	if err := query.Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// AggregatePendingBySellerInRange 锁定并汇总卖家在 [from, to) 内创建的待结算记录
func (r *GormSettlementRepository) AggregatePendingBySellerInRange(sellerID uint, from, to time.Time) (SettlementAggregate, error) {
	aggregate := SettlementAggregate{
		IDs:              []uint{},
		TotalAmount:      decimal.Zero,
		CommissionAmount: decimal.Zero,
		SellerAmount:     decimal.Zero,
	}
	var rows []models.Settlement
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("seller_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			sellerID, constants.SettlementStatusPending, from.UTC(), to.UTC()).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return aggregate, err
	}
	for _, row := range rows {
		aggregate.IDs = append(aggregate.IDs, row.ID)
		aggregate.TotalAmount = aggregate.TotalAmount.Add(row.TotalAmount.Decimal)
		aggregate.CommissionAmount = aggregate.CommissionAmount.Add(row.CommissionAmount.Decimal)
		aggregate.SellerAmount = aggregate.SellerAmount.Add(row.SellerAmount.Decimal)
	}
	return aggregate, nil
}

// MarkRequested 将待结算记录挂入批次，仅处理仍为 pending 的记录
func (r *GormSettlementRepository) MarkRequested(ids []uint, batchID uint, settlementDate string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Settlement{}).
		Where("id IN ? AND status = ?", ids, constants.SettlementStatusPending).
		Updates(map[string]interface{}{
			"status":          constants.SettlementStatusRequested,
			"batch_id":        batchID,
			"settlement_date": settlementDate,
			"updated_at":      now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkCompletedByBatch 批次完成后将其内记录置为已完成
func (r *GormSettlementRepository) MarkCompletedByBatch(batchID uint, now time.Time) (int64, error) {
	result := r.db.Model(&models.Settlement{}).
		Where("batch_id = ? AND status = ?", batchID, constants.SettlementStatusRequested).
		Updates(map[string]interface{}{
			"status":       constants.SettlementStatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ResetRequestedByBatch 批次取消后释放其内记录回到待结算
func (r *GormSettlementRepository) ResetRequestedByBatch(batchID uint, now time.Time) (int64, error) {
	result := r.db.Model(&models.Settlement{}).
		Where("batch_id = ? AND status = ?", batchID, constants.SettlementStatusRequested).
		Updates(map[string]interface{}{
			"status":          constants.SettlementStatusPending,
			"batch_id":        gorm.Expr("NULL"),
			"settlement_date": gorm.Expr("NULL"),
			"updated_at":      now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateStatus 按原状态条件更新结算状态，返回受影响行数
func (r *GormSettlementRepository) UpdateStatus(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error) {
	values := map[string]interface{}{}
	for key, value := range updates {
		values[key] = value
	}
	values["status"] = strings.TrimSpace(toStatus)
	result := r.db.Model(&models.Settlement{}).
		Where("id = ? AND status = ?", id, strings.TrimSpace(fromStatus)).
		Updates(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListByBatchID 获取批次内结算记录
func (r *GormSettlementRepository) ListByBatchID(batchID uint) ([]models.Settlement, error) {
	if batchID == 0 {
		return []models.Settlement{}, nil
	}
	var rows []models.Settlement
	if err := r.db.Where("batch_id = ?", batchID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List 结算记录列表
func (r *GormSettlementRepository) List(filter SettlementListFilter) ([]models.Settlement, int64, error) {
	query := r.db.Model(&models.Settlement{})
	if filter.SellerID != 0 {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.BatchID != 0 {
		query = query.Where("batch_id = ?", filter.BatchID)
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

	var rows []models.Settlement
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
