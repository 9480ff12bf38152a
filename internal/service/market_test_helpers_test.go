package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/models"
	"github.com/edumarket/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type marketTestEnv struct {
	db         *gorm.DB
	now        time.Time
	policies   *TierPolicyService
	grade      *GradeService
	settlement *SettlementService
	purchase   *PurchaseService
	account    *AccountService
	content    *ContentService
}

func setupMarketServiceTest(t *testing.T) *marketTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:market_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{NowFunc: models.UTCNow, TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	userRepo := repository.NewUserRepository(db)
	buyerRepo := repository.NewBuyerRepository(db)
	sellerRepo := repository.NewSellerRepository(db)
	policyRepo := repository.NewTierPolicyRepository(db)
	contentRepo := repository.NewContentRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	batchRepo := repository.NewSettlementBatchRepository(db)
	historyRepo := repository.NewGradeHistoryRepository(db)

	env := &marketTestEnv{
		db:  db,
		now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }

	env.policies = NewTierPolicyService(policyRepo, 0)
	env.grade = NewGradeService(buyerRepo, sellerRepo, purchaseRepo, settlementRepo, historyRepo, env.policies, nil)
	env.grade.now = clock
	env.settlement = NewSettlementService(sellerRepo, settlementRepo, batchRepo, env.grade, nil, SettlementOptions{Location: time.UTC})
	env.settlement.now = clock
	env.purchase = NewPurchaseService(buyerRepo, contentRepo, purchaseRepo, settlementRepo, env.grade, env.settlement, time.UTC)
	env.purchase.now = clock
	env.account = NewAccountService(userRepo, buyerRepo, sellerRepo, env.policies)
	env.account.now = clock
	env.content = NewContentService(contentRepo, sellerRepo)
	env.content.now = clock

	env.replacePolicies(t, constants.SubjectTypeBuyer, constants.WindowTypeTotal, 0, []policyBracket{
		{name: constants.TierBronze, min: 0, max: 100000, rate: 0},
		{name: constants.TierSilver, min: 100000, max: 500000, rate: 5},
		{name: constants.TierGold, min: 500000, rate: 10},
	})
	env.replacePolicies(t, constants.SubjectTypeSeller, constants.WindowTypeTotal, 0, []policyBracket{
		{name: constants.TierBronze, min: 0, max: 1000000, rate: 10},
		{name: constants.TierGold, min: 1000000, rate: 5},
	})
	return env
}

type policyBracket struct {
	name string
	min  int64
	max  int64
	rate int64
}

func (e *marketTestEnv) replacePolicies(t *testing.T, subjectType, windowType string, windowMonths int, brackets []policyBracket) {
	t.Helper()
	inputs := make([]TierPolicyInput, 0, len(brackets))
	for _, item := range brackets {
		input := TierPolicyInput{
			TierName:     item.name,
			MinAmount:    decimal.NewFromInt(item.min),
			Rate:         decimal.NewFromInt(item.rate),
			WindowType:   windowType,
			WindowMonths: windowMonths,
		}
		if item.max > 0 {
			maxAmount := decimal.NewFromInt(item.max)
			input.MaxAmount = &maxAmount
		}
		inputs = append(inputs, input)
	}
	if _, err := e.policies.Replace(subjectType, inputs); err != nil {
		t.Fatalf("replace %s policies failed: %v", subjectType, err)
	}
}

func (e *marketTestEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     email,
		Status:    constants.UserStatusActive,
		CreatedAt: e.now,
		UpdatedAt: e.now,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (e *marketTestEnv) createBuyer(t *testing.T, email string) *models.Buyer {
	t.Helper()
	buyer, err := e.account.RegisterBuyer(e.createUser(t, email).ID)
	if err != nil {
		t.Fatalf("register buyer failed: %v", err)
	}
	return buyer
}

func (e *marketTestEnv) createSeller(t *testing.T, email string) *models.Seller {
	t.Helper()
	seller, err := e.account.RegisterSeller(e.createUser(t, email).ID, SellerBankInput{
		BankName:      "测试银行",
		BankAccount:   "6222000011112222",
		AccountHolder: "测试卖家",
	})
	if err != nil {
		t.Fatalf("register seller failed: %v", err)
	}
	return seller
}

func (e *marketTestEnv) createApprovedContent(t *testing.T, sellerID uint, price int64) *models.Content {
	t.Helper()
	content, err := e.content.Create(sellerID, CreateContentInput{
		Title:        fmt.Sprintf("课程-%d-%d", sellerID, time.Now().UnixNano()),
		Price:        decimal.NewFromInt(price),
		AlwaysOnSale: true,
	})
	if err != nil {
		t.Fatalf("create content failed: %v", err)
	}
	approved, err := e.content.UpdateStatus(content.ID, constants.ContentStatusApproved)
	if err != nil {
		t.Fatalf("approve content failed: %v", err)
	}
	return approved
}

func (e *marketTestEnv) setBuyerTotal(t *testing.T, buyerID uint, total int64) {
	t.Helper()
	if err := e.db.Model(&models.Buyer{}).Where("id = ?", buyerID).
		Update("total_purchase_amount", models.NewMoneyFromInt(total)).Error; err != nil {
		t.Fatalf("set buyer total failed: %v", err)
	}
}

func (e *marketTestEnv) mustBuy(t *testing.T, buyerID, contentID uint) *PurchaseResult {
	t.Helper()
	result, err := e.purchase.Purchase(context.Background(), PurchaseInput{
		BuyerID:       buyerID,
		ContentID:     contentID,
		PaymentMethod: constants.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	return result
}

func (e *marketTestEnv) reloadBuyer(t *testing.T, buyerID uint) models.Buyer {
	t.Helper()
	var buyer models.Buyer
	if err := e.db.First(&buyer, buyerID).Error; err != nil {
		t.Fatalf("reload buyer failed: %v", err)
	}
	return buyer
}

func (e *marketTestEnv) reloadSeller(t *testing.T, sellerID uint) models.Seller {
	t.Helper()
	var seller models.Seller
	if err := e.db.First(&seller, sellerID).Error; err != nil {
		t.Fatalf("reload seller failed: %v", err)
	}
	return seller
}

func (e *marketTestEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var total int64
	db := e.db.Model(model)
	if query != "" {
		db = db.Where(query, args...)
	}
	if err := db.Count(&total).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return total
}

func mustDecimalEqual(t *testing.T, name string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("%s = %s, want %d", name, got.String(), want)
	}
}
