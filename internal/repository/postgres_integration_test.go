//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	all := models.AllModels()
	_ = db.Migrator().DropTable(all...)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(all...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func seedPostgresSellerContent(t *testing.T, db *gorm.DB) (*models.Buyer, *models.Seller, *models.Content) {
	t.Helper()
	buyerUser := &models.User{Email: "pg_buyer@example.com", Status: constants.UserStatusActive}
	sellerUser := &models.User{Email: "pg_seller@example.com", Status: constants.UserStatusActive}
	for _, user := range []*models.User{buyerUser, sellerUser} {
		if err := db.Create(user).Error; err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}
	buyer := &models.Buyer{UserID: buyerUser.ID, Tier: constants.TierBronze}
	if err := db.Create(buyer).Error; err != nil {
		t.Fatalf("create buyer failed: %v", err)
	}
	seller := &models.Seller{UserID: sellerUser.ID, Tier: constants.TierBronze, CommissionRate: models.NewMoneyFromInt(20)}
	if err := db.Create(seller).Error; err != nil {
		t.Fatalf("create seller failed: %v", err)
	}
	content := &models.Content{
		SellerID:     seller.ID,
		Title:        "PostgreSQL Indexing",
		Description:  "Partial Index 实战",
		Price:        models.NewMoneyFromInt(30000),
		Status:       constants.ContentStatusApproved,
		AlwaysOnSale: true,
	}
	if err := db.Create(content).Error; err != nil {
		t.Fatalf("create content failed: %v", err)
	}
	return buyer, seller, content
}

func TestPostgresContentKeywordIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	seedPostgresSellerContent(t, db)

	rows, total, err := NewContentRepository(db).List(ContentListFilter{Page: 1, PageSize: 10, Keyword: "partial index"})
	if err != nil {
		t.Fatalf("list contents failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("ILIKE search want 1 got total=%d rows=%d", total, len(rows))
	}
}

func TestPostgresPartialUniqueIndexes(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	buyer, seller, content := seedPostgresSellerContent(t, db)
	now := time.Now().UTC()

	purchaseRepo := NewPurchaseRepository(db)
	first := &models.Purchase{BuyerID: buyer.ID, ContentID: content.ID, SellerID: seller.ID, FinalPrice: content.Price, Status: constants.PurchaseStatusCompleted, PurchasedAt: &now}
	if err := purchaseRepo.Create(first); err != nil {
		t.Fatalf("create purchase failed: %v", err)
	}
	dup := &models.Purchase{BuyerID: buyer.ID, ContentID: content.ID, SellerID: seller.ID, Status: constants.PurchaseStatusCompleted, PurchasedAt: &now}
	if err := purchaseRepo.Create(dup); err == nil {
		t.Fatalf("duplicate completed purchase should fail on postgres")
	}

	batchRepo := NewSettlementBatchRepository(db)
	batch := &models.SettlementBatch{SellerID: seller.ID, PeriodStart: "2026-04-01", PeriodEnd: "2026-04-30", Status: constants.SettlementBatchStatusPending, RequestedAt: now}
	if err := batchRepo.Create(batch); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	other := &models.SettlementBatch{SellerID: seller.ID, PeriodStart: "2026-04-01", PeriodEnd: "2026-04-30", Status: constants.SettlementBatchStatusPending, RequestedAt: now}
	if err := batchRepo.Create(other); err == nil {
		t.Fatalf("duplicate active batch should fail on postgres")
	}
}

func TestPostgresAggregatePendingLocksRows(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	_, seller, content := seedPostgresSellerContent(t, db)
	repo := NewSettlementRepository(db)
	created := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

	for i, amount := range []int64{10000, 25000} {
		row := &models.Settlement{
			SellerID:         seller.ID,
			ContentID:        content.ID,
			PurchaseID:       uint(9000 + i),
			TotalAmount:      models.NewMoneyFromInt(amount),
			CommissionRate:   models.NewMoneyFromInt(20),
			CommissionAmount: models.NewMoneyFromDecimal(models.PercentFloor(decimal.NewFromInt(amount), decimal.NewFromInt(20))),
			SellerAmount:     models.NewMoneyFromDecimal(decimal.NewFromInt(amount).Sub(models.PercentFloor(decimal.NewFromInt(amount), decimal.NewFromInt(20)))),
			Status:           constants.SettlementStatusPending,
			CreatedAt:        created,
			UpdatedAt:        created,
		}
		if err := repo.Create(row); err != nil {
			t.Fatalf("create settlement failed: %v", err)
		}
	}

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	err := repo.Transaction(func(tx *gorm.DB) error {
		aggregate, err := repo.WithTx(tx).AggregatePendingBySellerInRange(seller.ID, from, to)
		if err != nil {
			return err
		}
		if aggregate.Count() != 2 || !aggregate.TotalAmount.Equal(decimal.NewFromInt(35000)) {
			t.Fatalf("aggregate mismatch: count=%d total=%s", aggregate.Count(), aggregate.TotalAmount)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("aggregate tx failed: %v", err)
	}
}
