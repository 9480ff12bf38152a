package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/edumarket/internal/cache"
	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/events"
	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/models"
	"github.com/edumarket/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SettlementOptions 结算服务参数
type SettlementOptions struct {
	Location      *time.Location
	MaxPeriodDays int
	LockTTL       time.Duration
}

// CreateSettlementInput 创建结算记录输入
type CreateSettlementInput struct {
	PurchaseID  uint
	ContentID   uint
	SellerID    uint
	TotalAmount decimal.Decimal
}

// BankSnapshot 申请结算时的收款信息快照
type BankSnapshot struct {
	BankName      string `json:"bank_name"`
	BankAccount   string `json:"bank_account"`
	AccountHolder string `json:"account_holder"`
}

// SettlementBatchEvent 结算批次事件载荷
type SettlementBatchEvent struct {
	BatchID         uint         `json:"batch_id"`
	SellerID        uint         `json:"seller_id"`
	PeriodStart     string       `json:"period_start"`
	PeriodEnd       string       `json:"period_end"`
	Status          string       `json:"status"`
	TotalAmount     models.Money `json:"total_amount"`
	TotalCommission models.Money `json:"total_commission"`
	SellerAmount    models.Money `json:"seller_amount"`
	SettlementCount int          `json:"settlement_count"`
	OperatorID      uint         `json:"operator_id,omitempty"`
	OccurredAt      time.Time    `json:"occurred_at"`
}

// SettlementService 结算服务
type SettlementService struct {
	sellerRepo     repository.SellerRepository
	settlementRepo repository.SettlementRepository
	batchRepo      repository.SettlementBatchRepository
	gradeService   *GradeService
	publisher      events.Publisher
	options        SettlementOptions
	now            func() time.Time
}

// NewSettlementService 创建结算服务
func NewSettlementService(
	sellerRepo repository.SellerRepository,
	settlementRepo repository.SettlementRepository,
	batchRepo repository.SettlementBatchRepository,
	gradeService *GradeService,
	publisher events.Publisher,
	options SettlementOptions,
) *SettlementService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if options.Location == nil {
		options.Location = time.Local
	}
	if options.MaxPeriodDays <= 0 {
		options.MaxPeriodDays = 366
	}
	if options.LockTTL <= 0 {
		options.LockTTL = 30 * time.Second
	}
	return &SettlementService{
		sellerRepo:     sellerRepo,
		settlementRepo: settlementRepo,
		batchRepo:      batchRepo,
		gradeService:   gradeService,
		publisher:      publisher,
		options:        options,
		now:            time.Now,
	}
}

// CreateSettlement 为一笔已完成购买创建结算记录
func (s *SettlementService) CreateSettlement(input CreateSettlementInput) (*models.Settlement, error) {
	var settlement *models.Settlement
	var change *GradeChange
	err := s.settlementRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		settlement, change, err = s.CreateSettlementTx(tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.gradeService.PublishChanges(context.Background(), change)
	return settlement, nil
}

// CreateSettlementTx 在调用方事务内创建结算记录并更新卖家等级
// 佣金率取卖家当前费率并冻结在记录上，随后的等级变化只影响之后的交易。
func (s *SettlementService) CreateSettlementTx(tx *gorm.DB, input CreateSettlementInput) (*models.Settlement, *GradeChange, error) {
	if input.TotalAmount.LessThan(decimal.Zero) {
		return nil, nil, ErrGradeAmountInvalid
	}
	seller, err := s.sellerRepo.WithTx(tx).GetByID(input.SellerID)
	if err != nil {
		return nil, nil, err
	}
	if seller == nil {
		return nil, nil, ErrSellerNotFound
	}

	now := s.now().UTC()
	total := input.TotalAmount.Round(2)
	rate := seller.CommissionRate.Decimal
	commission := models.PercentFloor(total, rate)
	settlement := &models.Settlement{
		SellerID:         seller.ID,
		ContentID:        input.ContentID,
		PurchaseID:       input.PurchaseID,
		TotalAmount:      models.NewMoneyFromDecimal(total),
		CommissionRate:   models.NewMoneyFromDecimal(rate),
		CommissionAmount: models.NewMoneyFromDecimal(commission),
		SellerAmount:     models.NewMoneyFromDecimal(total.Sub(commission)),
		Status:           constants.SettlementStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.settlementRepo.WithTx(tx).Create(settlement); err != nil {
		return nil, nil, err
	}

	change, err := s.gradeService.UpdateSellerAmountsTx(tx, seller.ID, total)
	if err != nil {
		return nil, nil, err
	}
	return settlement, change, nil
}

// RequestBatch 卖家申请结算：将周期内待结算记录汇总为一个批次
// 同一周期已有未取消批次时直接拒绝，并发插入由部分唯一索引兜底。
func (s *SettlementService) RequestBatch(ctx context.Context, sellerID uint, periodStart, periodEnd string) (*models.SettlementBatch, error) {
	start, end, from, to, err := s.parsePeriod(periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	lock, err := cache.AcquireLock(ctx, cache.SellerSettlementLockKey(sellerID), s.options.LockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockNotAcquired) {
			return nil, ErrSettlementBusy
		}
		return nil, err
	}
	defer func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil {
			logger.Warnw("settlement_lock_release_failed", "seller_id", sellerID, "error", releaseErr)
		}
	}()

	var batch *models.SettlementBatch
	err = s.batchRepo.Transaction(func(tx *gorm.DB) error {
		seller, err := s.sellerRepo.WithTx(tx).GetByIDForUpdate(sellerID)
		if err != nil {
			return err
		}
		if seller == nil {
			return ErrSellerNotFound
		}

		snapshot, err := json.Marshal(BankSnapshot{
			BankName:      seller.BankName,
			BankAccount:   seller.BankAccount,
			AccountHolder: seller.AccountHolder,
		})
		if err != nil {
			return err
		}
		batchRepo := s.batchRepo.WithTx(tx)
		existing, err := batchRepo.GetActiveBySellerAndPeriod(seller.ID, start, end)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateBatchRequest
		}

		now := s.now().UTC()
		row := &models.SettlementBatch{
			SellerID:     seller.ID,
			PeriodStart:  start,
			PeriodEnd:    end,
			Status:       constants.SettlementBatchStatusPending,
			BankSnapshot: datatypes.JSON(snapshot),
			RequestedAt:  now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := batchRepo.Create(row); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateBatchRequest
			}
			return err
		}

		settlementRepo := s.settlementRepo.WithTx(tx)
		aggregate, err := settlementRepo.AggregatePendingBySellerInRange(seller.ID, from, to)
		if err != nil {
			return err
		}
		if aggregate.Count() == 0 {
			return ErrNothingToSettle
		}
		affected, err := settlementRepo.MarkRequested(aggregate.IDs, row.ID, end, now)
		if err != nil {
			return err
		}
		if affected != int64(aggregate.Count()) {
			return ErrSettlementBusy
		}

		row.TotalAmount = models.NewMoneyFromDecimal(aggregate.TotalAmount)
		row.TotalCommission = models.NewMoneyFromDecimal(aggregate.CommissionAmount)
		row.SellerAmount = models.NewMoneyFromDecimal(aggregate.SellerAmount)
		row.SettlementCount = aggregate.Count()
		if err := batchRepo.Updates(row.ID, map[string]interface{}{
			"total_amount":     row.TotalAmount,
			"total_commission": row.TotalCommission,
			"seller_amount":    row.SellerAmount,
			"settlement_count": row.SettlementCount,
		}); err != nil {
			return err
		}
		batch = row
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateBatchRequest) && !errors.Is(err, ErrNothingToSettle) && !errors.Is(err, ErrNotFound) {
			logger.Errorw("settlement_batch_request_failed",
				"seller_id", sellerID,
				"period_start", start,
				"period_end", end,
				"error", err,
			)
		}
		return nil, err
	}

	logger.Infow("settlement_batch_requested",
		"batch_id", batch.ID,
		"seller_id", batch.SellerID,
		"period_start", batch.PeriodStart,
		"period_end", batch.PeriodEnd,
		"settlement_count", batch.SettlementCount,
		"seller_amount", batch.SellerAmount.String(),
	)
	s.publishBatchEvent(ctx, constants.EventSettlementBatchRequested, batch, 0)
	return batch, nil
}

// MarkProcessing 管理员开始处理批次（pending -> processing）
func (s *SettlementService) MarkProcessing(batchID, adminID uint) (*models.SettlementBatch, error) {
	err := s.batchRepo.Transaction(func(tx *gorm.DB) error {
		batchRepo := s.batchRepo.WithTx(tx)
		batch, err := batchRepo.GetByIDForUpdate(batchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return ErrSettlementBatchNotFound
		}
		switch batch.Status {
		case constants.SettlementBatchStatusPending:
		case constants.SettlementBatchStatusCompleted, constants.SettlementBatchStatusCancelled:
			return ErrAlreadyProcessed
		default:
			return ErrBatchStatusInvalid
		}
		now := s.now().UTC()
		affected, err := batchRepo.UpdateStatus(batchID,
			[]string{constants.SettlementBatchStatusPending},
			constants.SettlementBatchStatusProcessing,
			map[string]interface{}{
				"processed_by": adminID,
				"processed_at": now,
				"updated_at":   now,
			})
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrBatchStatusInvalid
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("settlement_batch_processing", "batch_id", batchID, "admin_id", adminID)
	return s.batchRepo.GetByID(batchID)
}

// CompleteBatch 管理员完成打款：批次与其内结算记录置为已完成
// 已完成或已取消的批次再次完成时返回 ErrAlreadyProcessed，不产生任何变更。
func (s *SettlementService) CompleteBatch(ctx context.Context, batchID, adminID uint) (*models.SettlementBatch, error) {
	var settled int64
	err := s.batchRepo.Transaction(func(tx *gorm.DB) error {
		batchRepo := s.batchRepo.WithTx(tx)
		batch, err := batchRepo.GetByIDForUpdate(batchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return ErrSettlementBatchNotFound
		}
		if !isOpenBatchStatus(batch.Status) {
			return ErrAlreadyProcessed
		}
		now := s.now().UTC()
		updates := map[string]interface{}{
			"completed_at": now,
			"updated_at":   now,
		}
		if adminID != 0 {
			updates["processed_by"] = adminID
		}
		if batch.ProcessedAt == nil {
			updates["processed_at"] = now
		}
		affected, err := batchRepo.UpdateStatus(batchID, openBatchStatuses(), constants.SettlementBatchStatusCompleted, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrAlreadyProcessed
		}
		settled, err = s.settlementRepo.WithTx(tx).MarkCompletedByBatch(batchID, now)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadyProcessed) && !errors.Is(err, ErrNotFound) {
			logger.Errorw("settlement_batch_complete_failed", "batch_id", batchID, "admin_id", adminID, "error", err)
		}
		return nil, err
	}

	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	logger.Infow("settlement_batch_completed",
		"batch_id", batchID,
		"admin_id", adminID,
		"settlement_count", settled,
		"seller_amount", batch.SellerAmount.String(),
	)
	s.publishBatchEvent(ctx, constants.EventSettlementBatchCompleted, batch, adminID)
	return batch, nil
}

// CancelBatch 取消未完成批次，批次内记录回到待结算以便重新申请
func (s *SettlementService) CancelBatch(ctx context.Context, batchID, adminID uint, reason string) (*models.SettlementBatch, error) {
	err := s.batchRepo.Transaction(func(tx *gorm.DB) error {
		batchRepo := s.batchRepo.WithTx(tx)
		batch, err := batchRepo.GetByIDForUpdate(batchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return ErrSettlementBatchNotFound
		}
		if !isOpenBatchStatus(batch.Status) {
			return ErrAlreadyProcessed
		}
		now := s.now().UTC()
		affected, err := batchRepo.UpdateStatus(batchID, openBatchStatuses(), constants.SettlementBatchStatusCancelled, map[string]interface{}{
			"remark":       strings.TrimSpace(reason),
			"processed_by": adminID,
			"cancelled_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrAlreadyProcessed
		}
		_, err = s.settlementRepo.WithTx(tx).ResetRequestedByBatch(batchID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	logger.Infow("settlement_batch_cancelled", "batch_id", batchID, "admin_id", adminID, "reason", reason)
	s.publishBatchEvent(ctx, constants.EventSettlementBatchCancelled, batch, adminID)
	return batch, nil
}

// GetBatch 获取批次详情
func (s *SettlementService) GetBatch(batchID uint) (*models.SettlementBatch, error) {
	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrSettlementBatchNotFound
	}
	return batch, nil
}

// GetSellerBatch 获取卖家自己的批次详情
func (s *SettlementService) GetSellerBatch(sellerID, batchID uint) (*models.SettlementBatch, error) {
	batch, err := s.GetBatch(batchID)
	if err != nil {
		return nil, err
	}
	if batch.SellerID != sellerID {
		return nil, ErrSettlementBatchNotFound
	}
	return batch, nil
}

// ListBatches 批次列表
func (s *SettlementService) ListBatches(filter repository.SettlementBatchListFilter) ([]models.SettlementBatch, int64, error) {
	return s.batchRepo.List(filter)
}

// ListBatchSettlements 批次内全部结算记录
func (s *SettlementService) ListBatchSettlements(batchID uint) ([]models.Settlement, error) {
	return s.settlementRepo.ListByBatchID(batchID)
}

// ListSettlements 结算记录列表
func (s *SettlementService) ListSettlements(filter repository.SettlementListFilter) ([]models.Settlement, int64, error) {
	return s.settlementRepo.List(filter)
}

// parsePeriod 解析结算周期，返回规范化日期与 [from, to) 时间区间
func (s *SettlementService) parsePeriod(periodStart, periodEnd string) (string, string, time.Time, time.Time, error) {
	loc := s.options.Location
	startDate, err := time.ParseInLocation(constants.SettlementPeriodLayout, strings.TrimSpace(periodStart), loc)
	if err != nil {
		return "", "", time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	endDate, err := time.ParseInLocation(constants.SettlementPeriodLayout, strings.TrimSpace(periodEnd), loc)
	if err != nil {
		return "", "", time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	if endDate.Before(startDate) {
		return "", "", time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	to := endDate.AddDate(0, 0, 1)
	if int(to.Sub(startDate).Hours()/24) > s.options.MaxPeriodDays {
		return "", "", time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	return startDate.Format(constants.SettlementPeriodLayout), endDate.Format(constants.SettlementPeriodLayout), startDate, to, nil
}

func (s *SettlementService) publishBatchEvent(ctx context.Context, routingKey string, batch *models.SettlementBatch, operatorID uint) {
	if batch == nil {
		return
	}
	event := SettlementBatchEvent{
		BatchID:         batch.ID,
		SellerID:        batch.SellerID,
		PeriodStart:     batch.PeriodStart,
		PeriodEnd:       batch.PeriodEnd,
		Status:          batch.Status,
		TotalAmount:     batch.TotalAmount,
		TotalCommission: batch.TotalCommission,
		SellerAmount:    batch.SellerAmount,
		SettlementCount: batch.SettlementCount,
		OperatorID:      operatorID,
		OccurredAt:      s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, constants.EventExchangeSettlement, routingKey, event); err != nil {
		logger.Warnw("settlement_event_publish_failed", "batch_id", batch.ID, "routing_key", routingKey, "error", err)
	}
}

func openBatchStatuses() []string {
	return []string{constants.SettlementBatchStatusPending, constants.SettlementBatchStatusProcessing}
}

func isOpenBatchStatus(status string) bool {
	switch strings.TrimSpace(status) {
	case constants.SettlementBatchStatusPending, constants.SettlementBatchStatusProcessing:
		return true
	default:
		return false
	}
}
