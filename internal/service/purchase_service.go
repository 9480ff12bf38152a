package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/models"
	"github.com/edumarket/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseInput 购买请求（支付已由外部确认）
type PurchaseInput struct {
	BuyerID       uint
	ContentID     uint
	PaymentMethod string
}

// PurchaseResult 购买结果
type PurchaseResult struct {
	Purchase   *models.Purchase   `json:"purchase"`
	Settlement *models.Settlement `json:"settlement"`
	FinalPrice models.Money       `json:"final_price"`
}

// PurchaseQuote 价格预览
type PurchaseQuote struct {
	ContentID        uint         `json:"content_id"`
	BuyerTier        string       `json:"buyer_tier"`
	OriginalPrice    models.Money `json:"original_price"`
	DiscountRate     models.Money `json:"discount_rate"`
	DiscountAmount   models.Money `json:"discount_amount"`
	FinalPrice       models.Money `json:"final_price"`
	OnSale           bool         `json:"on_sale"`
	AlreadyPurchased bool         `json:"already_purchased"`
}

// PurchaseService 购买编排服务
type PurchaseService struct {
	buyerRepo         repository.BuyerRepository
	contentRepo       repository.ContentRepository
	purchaseRepo      repository.PurchaseRepository
	settlementRepo    repository.SettlementRepository
	gradeService      *GradeService
	settlementService *SettlementService
	location          *time.Location
	now               func() time.Time
}

// NewPurchaseService 创建购买服务
func NewPurchaseService(
	buyerRepo repository.BuyerRepository,
	contentRepo repository.ContentRepository,
	purchaseRepo repository.PurchaseRepository,
	settlementRepo repository.SettlementRepository,
	gradeService *GradeService,
	settlementService *SettlementService,
	location *time.Location,
) *PurchaseService {
	if location == nil {
		location = time.Local
	}
	return &PurchaseService{
		buyerRepo:         buyerRepo,
		contentRepo:       contentRepo,
		purchaseRepo:      purchaseRepo,
		settlementRepo:    settlementRepo,
		gradeService:      gradeService,
		settlementService: settlementService,
		location:          location,
		now:               time.Now,
	}
}

// pricing 折扣计算结果
type pricing struct {
	rate     decimal.Decimal
	discount decimal.Decimal
	final    decimal.Decimal
}

// EffectiveDiscountRate 买家实际折扣率：等级折扣与个人专属折扣取较高者
func EffectiveDiscountRate(buyer *models.Buyer) decimal.Decimal {
	if buyer == nil {
		return decimal.Zero
	}
	rate := buyer.DiscountRate.Decimal
	if buyer.IndividualDiscountRate != nil && buyer.IndividualDiscountRate.Decimal.GreaterThan(rate) {
		rate = buyer.IndividualDiscountRate.Decimal
	}
	return rate.Round(2)
}

func computePricing(price, rate decimal.Decimal) pricing {
	discount := models.PercentFloor(price, rate)
	return pricing{
		rate:     rate,
		discount: discount,
		final:    price.Sub(discount).Round(2),
	}
}

// Purchase 完成一次购买：写入购买记录、创建结算、更新买家金额，全部在同一事务内
func (s *PurchaseService) Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	paymentMethod, err := normalizePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var result *PurchaseResult
	var changes []*GradeChange
	err = s.purchaseRepo.Transaction(func(tx *gorm.DB) error {
		buyer, err := s.buyerRepo.WithTx(tx).GetByIDForUpdate(input.BuyerID)
		if err != nil {
			return err
		}
		if buyer == nil {
			return ErrBuyerNotFound
		}
		content, err := s.contentRepo.WithTx(tx).GetByID(input.ContentID)
		if err != nil {
			return err
		}
		if content == nil || content.Status != constants.ContentStatusApproved {
			return ErrContentNotFound
		}
		now := s.now().UTC()
		if !content.OnSaleAt(now.In(s.location)) {
			return ErrOutsideSaleWindow
		}

		price := content.Price.Decimal.Round(2)
		priced := computePricing(price, EffectiveDiscountRate(buyer))
		purchase := &models.Purchase{
			BuyerID:             buyer.ID,
			ContentID:           content.ID,
			SellerID:            content.SellerID,
			OriginalPrice:       models.NewMoneyFromDecimal(price),
			DiscountRateApplied: models.NewMoneyFromDecimal(priced.rate),
			DiscountAmount:      models.NewMoneyFromDecimal(priced.discount),
			FinalPrice:          models.NewMoneyFromDecimal(priced.final),
			PaymentMethod:       paymentMethod,
			Status:              constants.PurchaseStatusCompleted,
			PurchasedAt:         &now,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := s.purchaseRepo.WithTx(tx).Create(purchase); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyPurchased
			}
			return err
		}

		settlement, sellerChange, err := s.settlementService.CreateSettlementTx(tx, CreateSettlementInput{
			PurchaseID:  purchase.ID,
			ContentID:   content.ID,
			SellerID:    content.SellerID,
			TotalAmount: priced.final,
		})
		if err != nil {
			return err
		}
		buyerChange, err := s.gradeService.UpdateBuyerAmountsTx(tx, buyer.ID, priced.final)
		if err != nil {
			return err
		}

		purchase.Content = content
		result = &PurchaseResult{
			Purchase:   purchase,
			Settlement: settlement,
			FinalPrice: purchase.FinalPrice,
		}
		changes = []*GradeChange{sellerChange, buyerChange}
		return nil
	})
	if err != nil {
		if !isPurchaseRejection(err) {
			logger.Errorw("purchase_failed",
				"buyer_id", input.BuyerID,
				"content_id", input.ContentID,
				"payment_method", paymentMethod,
				"error", err,
			)
		}
		return nil, err
	}

	logger.Infow("purchase_completed",
		"purchase_id", result.Purchase.ID,
		"buyer_id", result.Purchase.BuyerID,
		"content_id", result.Purchase.ContentID,
		"seller_id", result.Purchase.SellerID,
		"final_price", result.FinalPrice.String(),
		"settlement_id", result.Settlement.ID,
	)
	s.gradeService.PublishChanges(ctx, changes...)
	return result, nil
}

// Quote 价格预览，不写入任何数据
func (s *PurchaseService) Quote(buyerID, contentID uint) (*PurchaseQuote, error) {
	buyer, err := s.buyerRepo.GetByID(buyerID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, ErrBuyerNotFound
	}
	content, err := s.contentRepo.GetByID(contentID)
	if err != nil {
		return nil, err
	}
	if content == nil || content.Status != constants.ContentStatusApproved {
		return nil, ErrContentNotFound
	}
	existing, err := s.purchaseRepo.GetCompletedByBuyerAndContent(buyer.ID, content.ID)
	if err != nil {
		return nil, err
	}

	price := content.Price.Decimal.Round(2)
	priced := computePricing(price, EffectiveDiscountRate(buyer))
	return &PurchaseQuote{
		ContentID:        content.ID,
		BuyerTier:        buyer.Tier,
		OriginalPrice:    models.NewMoneyFromDecimal(price),
		DiscountRate:     models.NewMoneyFromDecimal(priced.rate),
		DiscountAmount:   models.NewMoneyFromDecimal(priced.discount),
		FinalPrice:       models.NewMoneyFromDecimal(priced.final),
		OnSale:           content.OnSaleAt(s.now().In(s.location)),
		AlreadyPurchased: existing != nil,
	}, nil
}

// CancelPurchase 取消已完成购买，仅限结算尚未进入批次时
// 累计金额保持不变，滚动窗口金额与等级随之重算。
func (s *PurchaseService) CancelPurchase(ctx context.Context, purchaseID, adminID uint, reason string) (*models.Purchase, error) {
	var changes []*GradeChange
	err := s.purchaseRepo.Transaction(func(tx *gorm.DB) error {
		purchaseRepo := s.purchaseRepo.WithTx(tx)
		purchase, err := purchaseRepo.GetByIDForUpdate(purchaseID)
		if err != nil {
			return err
		}
		if purchase == nil {
			return ErrPurchaseNotFound
		}
		if purchase.Status != constants.PurchaseStatusCompleted {
			return ErrPurchaseStatusInvalid
		}
		settlementRepo := s.settlementRepo.WithTx(tx)
		settlement, err := settlementRepo.GetByPurchaseIDForUpdate(purchase.ID)
		if err != nil {
			return err
		}
		if settlement != nil && settlement.Status != constants.SettlementStatusPending {
			return ErrSettlementAlreadyBatched
		}

		now := s.now().UTC()
		trimmedReason := strings.TrimSpace(reason)
		affected, err := purchaseRepo.UpdateStatus(purchase.ID, constants.PurchaseStatusCompleted, constants.PurchaseStatusCancelled, map[string]interface{}{
			"cancelled_at":  now,
			"cancel_reason": trimmedReason,
			"updated_at":    now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrPurchaseStatusInvalid
		}
		if settlement != nil {
			affected, err = settlementRepo.UpdateStatus(settlement.ID, constants.SettlementStatusPending, constants.SettlementStatusCancelled, map[string]interface{}{
				"cancelled_at": now,
				"updated_at":   now,
			})
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrSettlementAlreadyBatched
			}
		}

		buyerChange, err := s.gradeService.UpdateBuyerAmountsTx(tx, purchase.BuyerID, decimal.Zero)
		if err != nil {
			return err
		}
		sellerChange, err := s.gradeService.UpdateSellerAmountsTx(tx, purchase.SellerID, decimal.Zero)
		if err != nil {
			return err
		}
		changes = []*GradeChange{buyerChange, sellerChange}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("purchase_cancelled", "purchase_id", purchaseID, "admin_id", adminID, "reason", reason)
	s.gradeService.PublishChanges(ctx, changes...)
	return s.purchaseRepo.GetByID(purchaseID)
}

// GetPurchase 获取购买记录
func (s *PurchaseService) GetPurchase(purchaseID uint) (*models.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, ErrPurchaseNotFound
	}
	return purchase, nil
}

// PurchaseDetail 购买详情
type PurchaseDetail struct {
	Purchase   *models.Purchase   `json:"purchase"`
	Settlement *models.Settlement `json:"settlement"`
}

// GetPurchaseDetail 获取购买记录及对应结算
func (s *PurchaseService) GetPurchaseDetail(purchaseID uint) (*PurchaseDetail, error) {
	purchase, err := s.GetPurchase(purchaseID)
	if err != nil {
		return nil, err
	}
	settlement, err := s.settlementRepo.GetByPurchaseID(purchase.ID)
	if err != nil {
		return nil, err
	}
	return &PurchaseDetail{Purchase: purchase, Settlement: settlement}, nil
}

// ListPurchases 购买记录列表
func (s *PurchaseService) ListPurchases(filter repository.PurchaseListFilter) ([]models.Purchase, int64, error) {
	return s.purchaseRepo.List(filter)
}

func normalizePaymentMethod(method string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(method))
	switch normalized {
	case constants.PaymentMethodCard, constants.PaymentMethodTransfer, constants.PaymentMethodWallet, constants.PaymentMethodPoint:
		return normalized, nil
	default:
		return "", ErrPaymentMethodInvalid
	}
}

func isPurchaseRejection(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyPurchased) ||
		errors.Is(err, ErrOutsideSaleWindow)
}
