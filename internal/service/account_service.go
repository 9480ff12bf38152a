package service

import (
	"strings"
	"time"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/models"
	"github.com/edumarket/internal/repository"

	"github.com/shopspring/decimal"
)

// SellerBankInput 卖家收款信息
type SellerBankInput struct {
	BankName      string `json:"bank_name"`
	BankAccount   string `json:"bank_account"`
	AccountHolder string `json:"account_holder"`
}

// AccountService 买家/卖家档案开通服务
type AccountService struct {
	userRepo      repository.UserRepository
	buyerRepo     repository.BuyerRepository
	sellerRepo    repository.SellerRepository
	policyService *TierPolicyService
	now           func() time.Time
}

// NewAccountService 创建档案服务
func NewAccountService(
	userRepo repository.UserRepository,
	buyerRepo repository.BuyerRepository,
	sellerRepo repository.SellerRepository,
	policyService *TierPolicyService,
) *AccountService {
	return &AccountService{
		userRepo:      userRepo,
		buyerRepo:     buyerRepo,
		sellerRepo:    sellerRepo,
		policyService: policyService,
		now:           time.Now,
	}
}

// RegisterBuyer 为用户开通买家档案，初始等级按 0 金额定级
func (s *AccountService) RegisterBuyer(userID uint) (*models.Buyer, error) {
	if _, err := s.loadActiveUser(userID); err != nil {
		return nil, err
	}
	existing, err := s.buyerRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}
	policies, err := s.policyService.List(constants.SubjectTypeBuyer)
	if err != nil {
		return nil, err
	}
	initial := ResolveTier(policies, decimal.Zero)
	now := s.now().UTC()
	buyer := &models.Buyer{
		UserID:       userID,
		Tier:         initial.TierName,
		DiscountRate: models.NewMoneyFromDecimal(initial.Rate),
		WindowMonths: ResolveWindowMonths(policies),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.buyerRepo.Create(buyer); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	logger.Infow("buyer_registered", "buyer_id", buyer.ID, "user_id", userID, "tier", buyer.Tier)
	return buyer, nil
}

// RegisterSeller 为用户开通卖家档案
func (s *AccountService) RegisterSeller(userID uint, bank SellerBankInput) (*models.Seller, error) {
	if _, err := s.loadActiveUser(userID); err != nil {
		return nil, err
	}
	existing, err := s.sellerRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}
	policies, err := s.policyService.List(constants.SubjectTypeSeller)
	if err != nil {
		return nil, err
	}
	initial := ResolveTier(policies, decimal.Zero)
	now := s.now().UTC()
	seller := &models.Seller{
		UserID:         userID,
		Tier:           initial.TierName,
		CommissionRate: models.NewMoneyFromDecimal(initial.Rate),
		WindowMonths:   ResolveWindowMonths(policies),
		BankName:       strings.TrimSpace(bank.BankName),
		BankAccount:    strings.TrimSpace(bank.BankAccount),
		AccountHolder:  strings.TrimSpace(bank.AccountHolder),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.sellerRepo.Create(seller); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	logger.Infow("seller_registered", "seller_id", seller.ID, "user_id", userID, "tier", seller.Tier)
	return seller, nil
}

// GetBuyerByUserID 获取用户的买家档案
func (s *AccountService) GetBuyerByUserID(userID uint) (*models.Buyer, error) {
	buyer, err := s.buyerRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, ErrBuyerNotFound
	}
	return buyer, nil
}

// GetSellerByUserID 获取用户的卖家档案
func (s *AccountService) GetSellerByUserID(userID uint) (*models.Seller, error) {
	seller, err := s.sellerRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, ErrSellerNotFound
	}
	return seller, nil
}

// UpdateSellerBank 更新卖家收款信息，已申请的批次保留申请时的快照
func (s *AccountService) UpdateSellerBank(userID uint, bank SellerBankInput) (*models.Seller, error) {
	seller, err := s.GetSellerByUserID(userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(bank.BankName) == "" || strings.TrimSpace(bank.BankAccount) == "" || strings.TrimSpace(bank.AccountHolder) == "" {
		return nil, ErrBankAccountInvalid
	}
	if err := s.sellerRepo.UpdateBankAccount(seller.ID, bank.BankName, bank.BankAccount, bank.AccountHolder, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.sellerRepo.GetByID(seller.ID)
}

// ListBuyers 买家列表
func (s *AccountService) ListBuyers(filter repository.BuyerListFilter) ([]models.Buyer, int64, error) {
	return s.buyerRepo.List(filter)
}

// ListSellers 卖家列表
func (s *AccountService) ListSellers(filter repository.SellerListFilter) ([]models.Seller, int64, error) {
	return s.sellerRepo.List(filter)
}

func (s *AccountService) loadActiveUser(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if strings.TrimSpace(user.Status) != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}
	return user, nil
}
