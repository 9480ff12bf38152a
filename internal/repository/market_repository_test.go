package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupMarketRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:market_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	return db
}

func newSettlementRow(sellerID, purchaseID uint, total int64, status string, createdAt time.Time) *models.Settlement {
	commission := models.PercentFloor(decimal.NewFromInt(total), decimal.NewFromInt(20))
	return &models.Settlement{
		SellerID:         sellerID,
		ContentID:        1,
		PurchaseID:       purchaseID,
		TotalAmount:      models.NewMoneyFromInt(total),
		CommissionRate:   models.NewMoneyFromInt(20),
		CommissionAmount: models.NewMoneyFromDecimal(commission),
		SellerAmount:     models.NewMoneyFromDecimal(decimal.NewFromInt(total).Sub(commission)),
		Status:           status,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestPurchaseRepositoryCompletedUniqueness(t *testing.T) {
	db := setupMarketRepositoryTest(t)
	repo := NewPurchaseRepository(db)
	now := time.Now().UTC()

	first := &models.Purchase{BuyerID: 1, ContentID: 2, SellerID: 3, Status: constants.PurchaseStatusCompleted, PurchasedAt: &now}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create first purchase failed: %v", err)
	}
	dup := &models.Purchase{BuyerID: 1, ContentID: 2, SellerID: 3, Status: constants.PurchaseStatusCompleted, PurchasedAt: &now}
	if err := repo.Create(dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("second completed purchase should fail with ErrDuplicatedKey, got %v", err)
	}

	cancelled := &models.Purchase{BuyerID: 1, ContentID: 2, SellerID: 3, Status: constants.PurchaseStatusCancelled}
	if err := repo.Create(cancelled); err != nil {
		t.Fatalf("cancelled purchase should not be constrained: %v", err)
	}

	found, err := repo.GetCompletedByBuyerAndContent(1, 2)
	if err != nil {
		t.Fatalf("get completed purchase failed: %v", err)
	}
	if found == nil || found.ID != first.ID {
		t.Fatalf("completed purchase want id %d got %+v", first.ID, found)
	}
	missing, err := repo.GetCompletedByBuyerAndContent(1, 99)
	if err != nil || missing != nil {
		t.Fatalf("missing purchase want (nil, nil) got (%+v, %v)", missing, err)
	}
}

func TestPurchaseRepositorySumCompletedSince(t *testing.T) {
	db := setupMarketRepositoryTest(t)
	repo := NewPurchaseRepository(db)
	now := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	old := now.AddDate(0, -7, 0)

	rows := []*models.Purchase{
		{BuyerID: 1, ContentID: 1, SellerID: 9, FinalPrice: models.NewMoneyFromInt(10000), Status: constants.PurchaseStatusCompleted, PurchasedAt: &old},
		{BuyerID: 1, ContentID: 2, SellerID: 9, FinalPrice: models.NewMoneyFromInt(25000), Status: constants.PurchaseStatusCompleted, PurchasedAt: &now},
		{BuyerID: 1, ContentID: 3, SellerID: 9, FinalPrice: models.NewMoneyFromInt(50000), Status: constants.PurchaseStatusCancelled, PurchasedAt: &now},
		{BuyerID: 2, ContentID: 1, SellerID: 9, FinalPrice: models.NewMoneyFromInt(70000), Status: constants.PurchaseStatusCompleted, PurchasedAt: &now},
	}
	for _, row := range rows {
		if err := repo.Create(row); err != nil {
			t.Fatalf("create purchase failed: %v", err)
		}
	}

	total, err := repo.SumCompletedFinalPriceByBuyerSince(1, nil)
	if err != nil {
		t.Fatalf("sum total failed: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(35000)) {
		t.Fatalf("total want 35000 got %s", total)
	}
	since := now.AddDate(0, -6, 0)
	recent, err := repo.SumCompletedFinalPriceByBuyerSince(1, &since)
	if err != nil {
		t.Fatalf("sum recent failed: %v", err)
	}
	if !recent.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("recent want 25000 got %s", recent)
	}
}

func TestSettlementRepositoryAggregateAndBatchLifecycle(t *testing.T) {
	db := setupMarketRepositoryTest(t)
	repo := NewSettlementRepository(db)
	day := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

	rows := []*models.Settlement{
		newSettlementRow(1, 101, 10000, constants.SettlementStatusPending, day),
		newSettlementRow(1, 102, 20000, constants.SettlementStatusPending, day.Add(12*time.Hour)),
		newSettlementRow(1, 103, 40000, constants.SettlementStatusPending, day.AddDate(0, 0, 5)),
		newSettlementRow(1, 104, 80000, constants.SettlementStatusRequested, day),
		newSettlementRow(2, 105, 90000, constants.SettlementStatusPending, day),
	}
	for _, row := range rows {
		if err := repo.Create(row); err != nil {
			t.Fatalf("create settlement failed: %v", err)
		}
	}

	from := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	var aggregate SettlementAggregate
	err := repo.Transaction(func(tx *gorm.DB) error {
		var err error
		aggregate, err = repo.WithTx(tx).AggregatePendingBySellerInRange(1, from, to)
		return err
	})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if aggregate.Count() != 2 {
		t.Fatalf("aggregate count want 2 got %d", aggregate.Count())
	}
	if !aggregate.TotalAmount.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("aggregate total want 30000 got %s", aggregate.TotalAmount)
	}
	if !aggregate.CommissionAmount.Equal(decimal.NewFromInt(6000)) || !aggregate.SellerAmount.Equal(decimal.NewFromInt(24000)) {
		t.Fatalf("aggregate split mismatch: commission=%s seller=%s", aggregate.CommissionAmount, aggregate.SellerAmount)
	}

	affected, err := repo.MarkRequested(aggregate.IDs, 7, "2026-04-10", day)
	if err != nil || affected != 2 {
		t.Fatalf("mark requested want 2 got %d err=%v", affected, err)
	}
	again, err := repo.AggregatePendingBySellerInRange(1, from, to)
	if err != nil {
		t.Fatalf("aggregate after request failed: %v", err)
	}
	if again.Count() != 0 {
		t.Fatalf("requested rows should not be aggregated again, got %d", again.Count())
	}

	batchRows, err := repo.ListByBatchID(7)
	if err != nil || len(batchRows) != 2 {
		t.Fatalf("list by batch want 2 got %d err=%v", len(batchRows), err)
	}

	reset, err := repo.ResetRequestedByBatch(7, day)
	if err != nil || reset != 2 {
		t.Fatalf("reset want 2 got %d err=%v", reset, err)
	}
	released, err := repo.GetByPurchaseID(101)
	if err != nil || released == nil {
		t.Fatalf("get released settlement failed: %v", err)
	}
	if released.Status != constants.SettlementStatusPending || released.BatchID != nil || released.SettlementDate != nil {
		t.Fatalf("released settlement should be pending without batch, got %+v", released)
	}

	if _, err := repo.MarkRequested([]uint{released.ID}, 8, "2026-04-10", day); err != nil {
		t.Fatalf("re-request failed: %v", err)
	}
	completed, err := repo.MarkCompletedByBatch(8, day)
	if err != nil || completed != 1 {
		t.Fatalf("complete want 1 got %d err=%v", completed, err)
	}

	sum, err := repo.SumTotalBySellerSince(1, nil)
	if err != nil {
		t.Fatalf("sum by seller failed: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("seller total want 150000 got %s", sum)
	}
}

func TestSettlementRepositoryPurchaseUnique(t *testing.T) {
	db := setupMarketRepositoryTest(t)
	repo := NewSettlementRepository(db)
	now := time.Now().UTC()

	if err := repo.Create(newSettlementRow(1, 500, 1000, constants.SettlementStatusPending, now)); err != nil {
		t.Fatalf("create settlement failed: %v", err)
	}
	if err := repo.Create(newSettlementRow(1, 500, 1000, constants.SettlementStatusPending, now)); err == nil {
		t.Fatalf("second settlement for same purchase should fail")
	}
}

func TestSettlementBatchRepositoryActivePeriodUnique(t *testing.T) {
	db := setupMarketRepositoryTest(t)
	repo := NewSettlementBatchRepository(db)
	now := time.Now().UTC()

	first := &models.SettlementBatch{SellerID: 1, PeriodStart: "2026-04-01", PeriodEnd: "2026-04-30", Status: constants.SettlementBatchStatusPending, RequestedAt: now}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	dup := &models.SettlementBatch{SellerID: 1, PeriodStart: "2026-04-01", PeriodEnd: "2026-04-30", Status: constants.SettlementBatchStatusPending, RequestedAt: now}
	if err := repo.Create(dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate active batch should fail with ErrDuplicatedKey, got %v", err)
	}

	active, err := repo.GetActiveBySellerAndPeriod(1, "2026-04-01", "2026-04-30")
	if err != nil || active == nil || active.ID != first.ID {
		t.Fatalf("active batch want id %d got %+v err=%v", first.ID, active, err)
	}

	affected, err := repo.UpdateStatus(first.ID, []string{constants.SettlementBatchStatusPending, constants.SettlementBatchStatusProcessing}, constants.SettlementBatchStatusCancelled, map[string]interface{}{"cancelled_at": now})
	if err != nil || affected != 1 {
		t.Fatalf("cancel batch want 1 got %d err=%v", affected, err)
	}
	again, err := repo.UpdateStatus(first.ID, []string{constants.SettlementBatchStatusPending}, constants.SettlementBatchStatusCompleted, nil)
	if err != nil || again != 0 {
		t.Fatalf("transition from cancelled should be rejected, got %d err=%v", again, err)
	}

	retry := &models.SettlementBatch{SellerID: 1, PeriodStart: "2026-04-01", PeriodEnd: "2026-04-30", Status: constants.SettlementBatchStatusPending, RequestedAt: now}
	if err := repo.Create(retry); err != nil {
		t.Fatalf("batch after cancellation should be allowed: %v", err)
	}

	rows, total, err := repo.List(SettlementBatchListFilter{Page: 1, PageSize: 10, SellerID: 1, Statuses: []string{constants.SettlementBatchStatusPending, " ", constants.SettlementBatchStatusPending}})
	if err != nil {
		t.Fatalf("list batches failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != retry.ID {
		t.Fatalf("pending batches want [%d] got total=%d rows=%+v", retry.ID, total, rows)
	}
}

func TestContentRepositoryKeywordSearch(t *testing.T) {
	db := setupMarketRepositoryTest(t)
	repo := NewContentRepository(db)

	for _, item := range []models.Content{
		{SellerID: 1, Title: "Go 并发编程", Description: "goroutine 与 channel", Status: constants.ContentStatusApproved, AlwaysOnSale: true},
		{SellerID: 1, Title: "数据库原理", Description: "事务与索引", Status: constants.ContentStatusApproved, AlwaysOnSale: true},
		{SellerID: 2, Title: "Rust 入门", Description: "所有权", Status: constants.ContentStatusPending, AlwaysOnSale: true},
	} {
		content := item
		if err := repo.Create(&content); err != nil {
			t.Fatalf("create content failed: %v", err)
		}
	}

	rows, total, err := repo.List(ContentListFilter{Page: 1, PageSize: 10, Status: constants.ContentStatusApproved, Keyword: "事务"})
	if err != nil {
		t.Fatalf("list contents failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Title != "数据库原理" {
		t.Fatalf("keyword search mismatch: total=%d rows=%+v", total, rows)
	}

	_, total, err = repo.List(ContentListFilter{Page: 1, PageSize: 10, SellerID: 2})
	if err != nil || total != 1 {
		t.Fatalf("seller filter want 1 got %d err=%v", total, err)
	}
}

func TestAdminRepositoryEnsureStaff(t *testing.T) {
	db := setupMarketRepositoryTest(t)
	repo := NewAdminRepository(db)

	created, isNew, err := repo.EnsureStaff(" finance ", "财务审核")
	if err != nil || !isNew {
		t.Fatalf("first ensure should create staff, got new=%v err=%v", isNew, err)
	}
	if created.Username != "finance" || created.IsSuper {
		t.Fatalf("unexpected staff: %+v", created)
	}
	again, isNew, err := repo.EnsureStaff("finance", "其他名称")
	if err != nil || isNew || again.ID != created.ID || again.DisplayName != "财务审核" {
		t.Fatalf("second ensure should return existing staff, got %+v new=%v err=%v", again, isNew, err)
	}
	if _, _, err := repo.EnsureStaff(" ", ""); err == nil {
		t.Fatalf("empty username should be rejected")
	}
	missing, err := repo.GetByUsername("nobody")
	if err != nil || missing != nil {
		t.Fatalf("missing staff want (nil, nil) got (%+v, %v)", missing, err)
	}
}
