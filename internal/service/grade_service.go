package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/events"
	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/models"
	"github.com/edumarket/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const gradeSweepPageSize = 200

// GradeChange 一次等级变更，事务提交后作为领域事件发布
type GradeChange struct {
	SubjectType string       `json:"subject_type"`
	SubjectID   uint         `json:"subject_id"`
	OldTier     string       `json:"old_tier"`
	NewTier     string       `json:"new_tier"`
	OldRate     models.Money `json:"old_rate"`
	NewRate     models.Money `json:"new_rate"`
	Amount      models.Money `json:"amount"`
	ChangedAt   time.Time    `json:"changed_at"`
}

// GradeService 买家/卖家定级服务
type GradeService struct {
	buyerRepo      repository.BuyerRepository
	sellerRepo     repository.SellerRepository
	purchaseRepo   repository.PurchaseRepository
	settlementRepo repository.SettlementRepository
	historyRepo    repository.GradeHistoryRepository
	policyService  *TierPolicyService
	publisher      events.Publisher
	now            func() time.Time
}

// NewGradeService 创建定级服务
func NewGradeService(
	buyerRepo repository.BuyerRepository,
	sellerRepo repository.SellerRepository,
	purchaseRepo repository.PurchaseRepository,
	settlementRepo repository.SettlementRepository,
	historyRepo repository.GradeHistoryRepository,
	policyService *TierPolicyService,
	publisher events.Publisher,
) *GradeService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &GradeService{
		buyerRepo:      buyerRepo,
		sellerRepo:     sellerRepo,
		purchaseRepo:   purchaseRepo,
		settlementRepo: settlementRepo,
		historyRepo:    historyRepo,
		policyService:  policyService,
		publisher:      publisher,
		now:            time.Now,
	}
}

// gradeSubject 定级计算的输入快照
type gradeSubject struct {
	subjectType string
	id          uint
	tier        string
	rate        decimal.Decimal
	total       decimal.Decimal
	recent      decimal.Decimal
	window      int
}

func (g gradeSubject) effectiveAmount() decimal.Decimal {
	if g.window > 0 {
		return g.recent
	}
	return g.total
}

// ComputeTier 按当前规则计算金额对应的等级与费率
func (s *GradeService) ComputeTier(subjectType string, effectiveAmount decimal.Decimal) (TierResult, error) {
	rows, err := s.policyService.List(subjectType)
	if err != nil {
		return TierResult{}, err
	}
	result := ResolveTier(rows, effectiveAmount)
	if !result.Matched {
		logger.Warnw("grade_policy_no_match", "subject_type", subjectType, "amount", effectiveAmount.String(), "policy_count", len(rows))
	}
	return result, nil
}

// UpdateBuyerAmounts 累计买家购买金额并重新定级
func (s *GradeService) UpdateBuyerAmounts(buyerID uint, purchaseAmount decimal.Decimal) error {
	var change *GradeChange
	err := s.buyerRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = s.UpdateBuyerAmountsTx(tx, buyerID, purchaseAmount)
		return err
	})
	if err != nil {
		return err
	}
	s.PublishChanges(context.Background(), change)
	return nil
}

// UpdateBuyerAmountsTx 在调用方事务内更新买家金额与等级
// 买家不存在时不做任何处理。滚动窗口金额每次从已完成购买记录重新汇总。
func (s *GradeService) UpdateBuyerAmountsTx(tx *gorm.DB, buyerID uint, purchaseAmount decimal.Decimal) (*GradeChange, error) {
	if purchaseAmount.LessThan(decimal.Zero) {
		return nil, ErrGradeAmountInvalid
	}
	buyerRepo := s.buyerRepo.WithTx(tx)
	buyer, err := buyerRepo.GetByIDForUpdate(buyerID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, nil
	}
	policies, err := s.policyService.ListTx(tx, constants.SubjectTypeBuyer)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	subject := gradeSubject{
		subjectType: constants.SubjectTypeBuyer,
		id:          buyer.ID,
		tier:        buyer.Tier,
		rate:        buyer.DiscountRate.Decimal,
		total:       buyer.TotalPurchaseAmount.Decimal.Add(purchaseAmount).Round(2),
		window:      ResolveWindowMonths(policies),
	}
	if subject.window > 0 {
		since := windowStart(now, subject.window)
		subject.recent, err = s.purchaseRepo.WithTx(tx).SumCompletedFinalPriceByBuyerSince(buyer.ID, &since)
		if err != nil {
			return nil, err
		}
	}

	state, change, err := s.evaluate(tx, subject, policies, now)
	if err != nil {
		return nil, err
	}
	if err := buyerRepo.UpdateGradeState(buyer.ID, state); err != nil {
		return nil, err
	}
	return change, nil
}

// UpdateSellerAmounts 累计卖家销售金额并重新定级
func (s *GradeService) UpdateSellerAmounts(sellerID uint, salesAmount decimal.Decimal) error {
	var change *GradeChange
	err := s.sellerRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = s.UpdateSellerAmountsTx(tx, sellerID, salesAmount)
		return err
	})
	if err != nil {
		return err
	}
	s.PublishChanges(context.Background(), change)
	return nil
}

// UpdateSellerAmountsTx 在调用方事务内更新卖家金额与等级
// 滚动窗口金额统一按结算记录创建时间汇总未取消的结算总额。
func (s *GradeService) UpdateSellerAmountsTx(tx *gorm.DB, sellerID uint, salesAmount decimal.Decimal) (*GradeChange, error) {
	if salesAmount.LessThan(decimal.Zero) {
		return nil, ErrGradeAmountInvalid
	}
	sellerRepo := s.sellerRepo.WithTx(tx)
	seller, err := sellerRepo.GetByIDForUpdate(sellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, nil
	}
	policies, err := s.policyService.ListTx(tx, constants.SubjectTypeSeller)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	subject := gradeSubject{
		subjectType: constants.SubjectTypeSeller,
		id:          seller.ID,
		tier:        seller.Tier,
		rate:        seller.CommissionRate.Decimal,
		total:       seller.TotalSalesAmount.Decimal.Add(salesAmount).Round(2),
		window:      ResolveWindowMonths(policies),
	}
	if subject.window > 0 {
		since := windowStart(now, subject.window)
		subject.recent, err = s.settlementRepo.WithTx(tx).SumTotalBySellerSince(seller.ID, &since)
		if err != nil {
			return nil, err
		}
	}

	state, change, err := s.evaluate(tx, subject, policies, now)
	if err != nil {
		return nil, err
	}
	if err := sellerRepo.UpdateGradeState(seller.ID, state); err != nil {
		return nil, err
	}
	return change, nil
}

// evaluate 计算新等级，等级变化时追加变更记录
// 费率随规则调整而变化但等级不变时只修正费率，不写变更记录。
func (s *GradeService) evaluate(tx *gorm.DB, subject gradeSubject, policies []models.TierPolicy, now time.Time) (repository.GradeStateUpdate, *GradeChange, error) {
	effective := subject.effectiveAmount()
	result := ResolveTier(policies, effective)
	if !result.Matched {
		logger.Warnw("grade_policy_no_match",
			"subject_type", subject.subjectType,
			"subject_id", subject.id,
			"amount", effective.String(),
			"policy_count", len(policies),
		)
	}

	state := repository.GradeStateUpdate{
		Tier:         result.TierName,
		Rate:         result.Rate,
		TotalAmount:  subject.total,
		RecentAmount: subject.recent,
		WindowMonths: subject.window,
		UpdatedAt:    now,
	}
	if strings.EqualFold(strings.TrimSpace(subject.tier), result.TierName) {
		return state, nil, nil
	}

	history := &models.GradeHistory{
		SubjectType: subject.subjectType,
		SubjectID:   subject.id,
		OldTier:     subject.tier,
		NewTier:     result.TierName,
		OldRate:     models.NewMoneyFromDecimal(subject.rate),
		NewRate:     models.NewMoneyFromDecimal(result.Rate),
		Amount:      models.NewMoneyFromDecimal(effective),
		Reason:      buildGradeReason(subject, effective, result.TierName),
		CreatedAt:   now,
	}
	if err := s.historyRepo.WithTx(tx).Create(history); err != nil {
		return state, nil, err
	}
	state.LastTierUpdate = &now
	change := &GradeChange{
		SubjectType: subject.subjectType,
		SubjectID:   subject.id,
		OldTier:     history.OldTier,
		NewTier:     history.NewTier,
		OldRate:     history.OldRate,
		NewRate:     history.NewRate,
		Amount:      history.Amount,
		ChangedAt:   now,
	}
	logger.Infow("grade_tier_changed",
		"subject_type", change.SubjectType,
		"subject_id", change.SubjectID,
		"old_tier", change.OldTier,
		"new_tier", change.NewTier,
		"amount", change.Amount.String(),
	)
	return state, change, nil
}

// RecomputeSubject 不追加金额，仅按当前数据重新定级
func (s *GradeService) RecomputeSubject(subjectType string, subjectID uint) error {
	normalized, err := normalizeSubjectType(subjectType)
	if err != nil {
		return err
	}
	if normalized == constants.SubjectTypeSeller {
		return s.UpdateSellerAmounts(subjectID, decimal.Zero)
	}
	return s.UpdateBuyerAmounts(subjectID, decimal.Zero)
}

// RecomputeSubjectTx 在调用方事务内重新定级
func (s *GradeService) RecomputeSubjectTx(tx *gorm.DB, subjectType string, subjectID uint) (*GradeChange, error) {
	normalized, err := normalizeSubjectType(subjectType)
	if err != nil {
		return nil, err
	}
	if normalized == constants.SubjectTypeSeller {
		return s.UpdateSellerAmountsTx(tx, subjectID, decimal.Zero)
	}
	return s.UpdateBuyerAmountsTx(tx, subjectID, decimal.Zero)
}

// SweepSubjects 分批重算某类主体的等级，返回处理数量
// rollingOnly 为 true 时只处理按滚动窗口定级的主体。
func (s *GradeService) SweepSubjects(ctx context.Context, subjectType string, rollingOnly bool) (int, error) {
	normalized, err := normalizeSubjectType(subjectType)
	if err != nil {
		return 0, err
	}
	var afterID uint
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		var ids []uint
		if normalized == constants.SubjectTypeSeller {
			ids, err = s.sellerRepo.ListIDs(afterID, gradeSweepPageSize, rollingOnly)
		} else {
			ids, err = s.buyerRepo.ListIDs(afterID, gradeSweepPageSize, rollingOnly)
		}
		if err != nil {
			return processed, err
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if err := s.RecomputeSubject(normalized, id); err != nil {
				logger.Errorw("grade_sweep_subject_failed", "subject_type", normalized, "subject_id", id, "error", err)
				continue
			}
			processed++
		}
		afterID = ids[len(ids)-1]
	}
	logger.Infow("grade_sweep_finished", "subject_type", normalized, "rolling_only", rollingOnly, "processed", processed)
	return processed, nil
}

// SetBuyerIndividualRate 设置或清除买家个人专属折扣率
func (s *GradeService) SetBuyerIndividualRate(buyerID uint, rate *decimal.Decimal) (*models.Buyer, error) {
	buyer, err := s.buyerRepo.GetByID(buyerID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, ErrBuyerNotFound
	}
	if rate != nil {
		normalized := rate.Round(2)
		if normalized.LessThan(decimal.Zero) || normalized.GreaterThan(maxRatePercent) {
			return nil, ErrDiscountRateInvalid
		}
		rate = &normalized
	}
	if err := s.buyerRepo.UpdateIndividualRate(buyerID, rate, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.buyerRepo.GetByID(buyerID)
}

// ListHistory 等级变更记录
func (s *GradeService) ListHistory(filter repository.GradeHistoryListFilter) ([]models.GradeHistory, int64, error) {
	if strings.TrimSpace(filter.SubjectType) != "" {
		normalized, err := normalizeSubjectType(filter.SubjectType)
		if err != nil {
			return nil, 0, err
		}
		filter.SubjectType = normalized
	}
	return s.historyRepo.List(filter)
}

// PublishChanges 发布等级变更事件，发布失败只记录日志
func (s *GradeService) PublishChanges(ctx context.Context, changes ...*GradeChange) {
	for _, change := range changes {
		if change == nil {
			continue
		}
		if err := s.publisher.Publish(ctx, constants.EventExchangeGrade, constants.EventGradeTierChanged, change); err != nil {
			logger.Warnw("grade_event_publish_failed",
				"subject_type", change.SubjectType,
				"subject_id", change.SubjectID,
				"new_tier", change.NewTier,
				"error", err,
			)
		}
	}
}

func windowStart(now time.Time, months int) time.Time {
	return now.AddDate(0, -months, 0)
}

func buildGradeReason(subject gradeSubject, effective decimal.Decimal, newTier string) string {
	basis := "累计"
	if subject.window > 0 {
		basis = fmt.Sprintf("近 %d 个月", subject.window)
	}
	return fmt.Sprintf("%s金额 %s，等级由 %s 调整为 %s", basis, effective.StringFixed(2), subject.tier, newTier)
}
