package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/models"

	"github.com/shopspring/decimal"
)

type recordedEvent struct {
	exchange   string
	routingKey string
	payload    interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{exchange: exchange, routingKey: routingKey, payload: payload})
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) byRoutingKey(key string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedEvent
	for _, event := range p.events {
		if event.routingKey == key {
			out = append(out, event)
		}
	}
	return out
}

func TestComputeTierBoundaries(t *testing.T) {
	env := setupMarketServiceTest(t)

	cases := []struct {
		name     string
		subject  string
		amount   string
		wantTier string
		wantRate int64
	}{
		{name: "zero", subject: constants.SubjectTypeBuyer, amount: "0", wantTier: constants.TierBronze, wantRate: 0},
		{name: "just below silver", subject: constants.SubjectTypeBuyer, amount: "99999.99", wantTier: constants.TierBronze, wantRate: 0},
		{name: "silver lower bound", subject: constants.SubjectTypeBuyer, amount: "100000", wantTier: constants.TierSilver, wantRate: 5},
		{name: "gold lower bound", subject: constants.SubjectTypeBuyer, amount: "500000", wantTier: constants.TierGold, wantRate: 10},
		{name: "unbounded top", subject: constants.SubjectTypeBuyer, amount: "90000000", wantTier: constants.TierGold, wantRate: 10},
		{name: "seller base", subject: constants.SubjectTypeSeller, amount: "999999", wantTier: constants.TierBronze, wantRate: 10},
		{name: "seller gold", subject: constants.SubjectTypeSeller, amount: "1000000", wantTier: constants.TierGold, wantRate: 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := env.grade.ComputeTier(tc.subject, decimal.RequireFromString(tc.amount))
			if err != nil {
				t.Fatalf("compute tier failed: %v", err)
			}
			if result.TierName != tc.wantTier {
				t.Fatalf("tier = %s, want %s", result.TierName, tc.wantTier)
			}
			mustDecimalEqual(t, "rate", result.Rate, tc.wantRate)
		})
	}

	if _, err := env.grade.ComputeTier("agent", decimal.Zero); !errors.Is(err, ErrSubjectTypeInvalid) {
		t.Fatalf("expected ErrSubjectTypeInvalid, got %v", err)
	}
}

func TestResolveTierFallsBackWithoutMatch(t *testing.T) {
	result := ResolveTier(nil, decimal.NewFromInt(123))
	if result.Matched || result.TierName != constants.TierBronze || !result.Rate.IsZero() {
		t.Fatalf("unexpected fallback result: %+v", result)
	}

	maxAmount := models.NewMoneyFromInt(1000)
	rows := []models.TierPolicy{
		{TierName: "STARTER", MinAmount: models.NewMoneyFromInt(500), MaxAmount: &maxAmount, Rate: models.NewMoneyFromInt(3)},
	}
	result = ResolveTier(rows, decimal.NewFromInt(100))
	if result.Matched || result.TierName != constants.TierBronze {
		t.Fatalf("amount below every bracket should fall back, got %+v", result)
	}
	result = ResolveTier(rows, decimal.NewFromInt(500))
	if !result.Matched || result.TierName != "STARTER" {
		t.Fatalf("expected STARTER match, got %+v", result)
	}
}

func TestUpdateBuyerAmountsIgnoresUnknownBuyer(t *testing.T) {
	env := setupMarketServiceTest(t)
	if err := env.grade.UpdateBuyerAmounts(9999, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("unknown buyer should be a no-op, got %v", err)
	}
	if err := env.grade.UpdateSellerAmounts(9999, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("unknown seller should be a no-op, got %v", err)
	}
	if got := env.count(t, &models.GradeHistory{}, ""); got != 0 {
		t.Fatalf("expected no grade history, got %d", got)
	}
	if err := env.grade.UpdateBuyerAmounts(9999, decimal.NewFromInt(-1)); !errors.Is(err, ErrGradeAmountInvalid) {
		t.Fatalf("expected ErrGradeAmountInvalid, got %v", err)
	}
}

func TestUpdateSellerAmountsAccumulatesTotals(t *testing.T) {
	env := setupMarketServiceTest(t)
	seller := env.createSeller(t, "seller_accumulate@example.com")

	if err := env.grade.UpdateSellerAmounts(seller.ID, decimal.NewFromInt(600000)); err != nil {
		t.Fatalf("update seller amounts failed: %v", err)
	}
	reloaded := env.reloadSeller(t, seller.ID)
	if reloaded.Tier != constants.TierBronze {
		t.Fatalf("expected BRONZE, got %s", reloaded.Tier)
	}
	mustDecimalEqual(t, "seller total", reloaded.TotalSalesAmount.Decimal, 600000)

	if err := env.grade.UpdateSellerAmounts(seller.ID, decimal.NewFromInt(400000)); err != nil {
		t.Fatalf("update seller amounts failed: %v", err)
	}
	reloaded = env.reloadSeller(t, seller.ID)
	if reloaded.Tier != constants.TierGold {
		t.Fatalf("expected GOLD, got %s", reloaded.Tier)
	}
	mustDecimalEqual(t, "seller rate", reloaded.CommissionRate.Decimal, 5)
	if got := env.count(t, &models.GradeHistory{}, "subject_type = ? AND subject_id = ?", constants.SubjectTypeSeller, seller.ID); got != 1 {
		t.Fatalf("expected one seller history row, got %d", got)
	}
}

func TestRecomputeSubjectIsIdempotent(t *testing.T) {
	env := setupMarketServiceTest(t)
	seller := env.createSeller(t, "seller_idem@example.com")
	buyer := env.createBuyer(t, "buyer_idem@example.com")
	env.mustBuy(t, buyer.ID, env.createApprovedContent(t, seller.ID, 200000).ID)

	before := env.reloadBuyer(t, buyer.ID)
	for i := 0; i < 3; i++ {
		if err := env.grade.RecomputeSubject(constants.SubjectTypeBuyer, buyer.ID); err != nil {
			t.Fatalf("recompute failed: %v", err)
		}
	}
	after := env.reloadBuyer(t, buyer.ID)
	if after.Tier != before.Tier || !after.TotalPurchaseAmount.Decimal.Equal(before.TotalPurchaseAmount.Decimal) {
		t.Fatalf("recompute changed state: %s/%s -> %s/%s", before.Tier, before.TotalPurchaseAmount.String(), after.Tier, after.TotalPurchaseAmount.String())
	}
	if got := env.count(t, &models.GradeHistory{}, "subject_type = ?", constants.SubjectTypeBuyer); got != 1 {
		t.Fatalf("expected one buyer history row, got %d", got)
	}
}

func TestRollingWindowRecomputesFromPurchases(t *testing.T) {
	env := setupMarketServiceTest(t)
	env.replacePolicies(t, constants.SubjectTypeBuyer, constants.WindowTypeRecent, 1, []policyBracket{
		{name: constants.TierBronze, min: 0, max: 100000, rate: 0},
		{name: constants.TierSilver, min: 100000, rate: 5},
	})
	seller := env.createSeller(t, "seller_window_grade@example.com")
	buyer := env.createBuyer(t, "buyer_window_grade@example.com")
	env.mustBuy(t, buyer.ID, env.createApprovedContent(t, seller.ID, 150000).ID)

	reloaded := env.reloadBuyer(t, buyer.ID)
	if reloaded.Tier != constants.TierSilver || reloaded.WindowMonths != 1 {
		t.Fatalf("expected SILVER with 1 month window, got %s/%d", reloaded.Tier, reloaded.WindowMonths)
	}
	mustDecimalEqual(t, "recent amount", reloaded.RecentPurchaseAmount.Decimal, 150000)

	env.now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	processed, err := env.grade.SweepSubjects(context.Background(), constants.SubjectTypeBuyer, true)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected one rolling buyer processed, got %d", processed)
	}
	reloaded = env.reloadBuyer(t, buyer.ID)
	if reloaded.Tier != constants.TierBronze {
		t.Fatalf("expected BRONZE after window expiry, got %s", reloaded.Tier)
	}
	mustDecimalEqual(t, "recent amount after expiry", reloaded.RecentPurchaseAmount.Decimal, 0)
	mustDecimalEqual(t, "total stays monotonic", reloaded.TotalPurchaseAmount.Decimal, 150000)
	if got := env.count(t, &models.GradeHistory{}, "subject_type = ? AND subject_id = ?", constants.SubjectTypeBuyer, buyer.ID); got != 2 {
		t.Fatalf("expected two history rows, got %d", got)
	}
}

func TestRateDriftWithoutTierChangeSkipsHistory(t *testing.T) {
	env := setupMarketServiceTest(t)
	buyer := env.createBuyer(t, "buyer_drift@example.com")
	env.setBuyerTotal(t, buyer.ID, 200000)
	if err := env.grade.RecomputeSubject(constants.SubjectTypeBuyer, buyer.ID); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}

	env.replacePolicies(t, constants.SubjectTypeBuyer, constants.WindowTypeTotal, 0, []policyBracket{
		{name: constants.TierBronze, min: 0, max: 100000, rate: 0},
		{name: constants.TierSilver, min: 100000, max: 500000, rate: 7},
		{name: constants.TierGold, min: 500000, rate: 10},
	})
	if err := env.grade.RecomputeSubject(constants.SubjectTypeBuyer, buyer.ID); err != nil {
		t.Fatalf("recompute after policy change failed: %v", err)
	}
	reloaded := env.reloadBuyer(t, buyer.ID)
	if reloaded.Tier != constants.TierSilver {
		t.Fatalf("expected SILVER, got %s", reloaded.Tier)
	}
	mustDecimalEqual(t, "drifted rate", reloaded.DiscountRate.Decimal, 7)
	if got := env.count(t, &models.GradeHistory{}, "subject_id = ?", buyer.ID); got != 1 {
		t.Fatalf("expected one history row, got %d", got)
	}
}

func TestGradeChangesPublishedAfterPurchase(t *testing.T) {
	env := setupMarketServiceTest(t)
	publisher := &recordingPublisher{}
	env.grade.publisher = publisher
	env.settlement.publisher = publisher

	seller := env.createSeller(t, "seller_events@example.com")
	buyer := env.createBuyer(t, "buyer_events@example.com")
	env.mustBuy(t, buyer.ID, env.createApprovedContent(t, seller.ID, 120000).ID)

	changes := publisher.byRoutingKey(constants.EventGradeTierChanged)
	if len(changes) != 1 {
		t.Fatalf("expected one grade change event, got %d", len(changes))
	}
	change, ok := changes[0].payload.(*GradeChange)
	if !ok {
		t.Fatalf("unexpected payload type %T", changes[0].payload)
	}
	if change.SubjectID != buyer.ID || change.NewTier != constants.TierSilver || changes[0].exchange != constants.EventExchangeGrade {
		t.Fatalf("unexpected grade change: %+v", change)
	}

	if _, err := env.settlement.RequestBatch(context.Background(), seller.ID, "2024-01-01", "2024-01-31"); err != nil {
		t.Fatalf("request batch failed: %v", err)
	}
	requested := publisher.byRoutingKey(constants.EventSettlementBatchRequested)
	if len(requested) != 1 {
		t.Fatalf("expected one batch requested event, got %d", len(requested))
	}
	payload, ok := requested[0].payload.(SettlementBatchEvent)
	if !ok || payload.SellerID != seller.ID || payload.SettlementCount != 1 {
		t.Fatalf("unexpected batch event payload: %#v", requested[0].payload)
	}
}

func TestSetBuyerIndividualRateClears(t *testing.T) {
	env := setupMarketServiceTest(t)
	buyer := env.createBuyer(t, "buyer_clear@example.com")
	rate := decimal.NewFromInt(12)
	updated, err := env.grade.SetBuyerIndividualRate(buyer.ID, &rate)
	if err != nil {
		t.Fatalf("set rate failed: %v", err)
	}
	if updated.IndividualDiscountRate == nil {
		t.Fatalf("expected individual rate to be set")
	}
	mustDecimalEqual(t, "effective rate", EffectiveDiscountRate(updated), 12)

	updated, err = env.grade.SetBuyerIndividualRate(buyer.ID, nil)
	if err != nil {
		t.Fatalf("clear rate failed: %v", err)
	}
	if updated.IndividualDiscountRate != nil {
		t.Fatalf("expected individual rate cleared")
	}
	if _, err := env.grade.SetBuyerIndividualRate(9999, nil); !errors.Is(err, ErrBuyerNotFound) {
		t.Fatalf("expected ErrBuyerNotFound, got %v", err)
	}
}
