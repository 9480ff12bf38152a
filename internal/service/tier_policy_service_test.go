package service

import (
	"errors"
	"testing"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/models"
	"github.com/edumarket/internal/repository"

	"github.com/shopspring/decimal"
)

func policyRow(name string, min, max, rate int64) models.TierPolicy {
	row := models.TierPolicy{
		SubjectType: constants.SubjectTypeBuyer,
		TierName:    name,
		MinAmount:   models.NewMoneyFromInt(min),
		Rate:        models.NewMoneyFromInt(rate),
		WindowType:  constants.WindowTypeTotal,
	}
	if max > 0 {
		maxAmount := models.NewMoneyFromInt(max)
		row.MaxAmount = &maxAmount
	}
	return row
}

func TestValidateTierPolicies(t *testing.T) {
	recent := policyRow("SILVER", 100, 0, 5)
	recent.WindowType = constants.WindowTypeRecent
	recent.WindowMonths = 3

	cases := []struct {
		name    string
		rows    []models.TierPolicy
		wantErr bool
	}{
		{name: "valid", rows: []models.TierPolicy{policyRow("BRONZE", 0, 100, 0), policyRow("SILVER", 100, 0, 5)}},
		{name: "single unbounded", rows: []models.TierPolicy{policyRow("BRONZE", 0, 0, 0)}},
		{name: "empty", rows: nil, wantErr: true},
		{name: "not starting at zero", rows: []models.TierPolicy{policyRow("BRONZE", 10, 100, 0), policyRow("SILVER", 100, 0, 5)}, wantErr: true},
		{name: "gap", rows: []models.TierPolicy{policyRow("BRONZE", 0, 90, 0), policyRow("SILVER", 100, 0, 5)}, wantErr: true},
		{name: "overlap", rows: []models.TierPolicy{policyRow("BRONZE", 0, 120, 0), policyRow("SILVER", 100, 0, 5)}, wantErr: true},
		{name: "unbounded middle", rows: []models.TierPolicy{policyRow("BRONZE", 0, 0, 0), policyRow("SILVER", 100, 0, 5)}, wantErr: true},
		{name: "bounded top", rows: []models.TierPolicy{policyRow("BRONZE", 0, 100, 0), policyRow("SILVER", 100, 200, 5)}, wantErr: true},
		{name: "rate over 100", rows: []models.TierPolicy{policyRow("BRONZE", 0, 0, 101)}, wantErr: true},
		{name: "duplicate name", rows: []models.TierPolicy{policyRow("BRONZE", 0, 100, 0), policyRow("BRONZE", 100, 0, 5)}, wantErr: true},
		{name: "mixed window", rows: []models.TierPolicy{policyRow("BRONZE", 0, 100, 0), recent}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTierPolicies(tc.rows)
			if tc.wantErr {
				if !errors.Is(err, ErrTierPolicyInvalid) {
					t.Fatalf("expected ErrTierPolicyInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestResolveWindowMonths(t *testing.T) {
	if got := ResolveWindowMonths(nil); got != 0 {
		t.Fatalf("empty policies should use total window, got %d", got)
	}
	row := policyRow("BRONZE", 0, 0, 0)
	if got := ResolveWindowMonths([]models.TierPolicy{row}); got != 0 {
		t.Fatalf("total window should resolve to 0, got %d", got)
	}
	row.WindowType = constants.WindowTypeRecent
	row.WindowMonths = 6
	if got := ResolveWindowMonths([]models.TierPolicy{row}); got != 6 {
		t.Fatalf("expected 6 months, got %d", got)
	}
}

func TestReplaceSortsAndNormalizesPolicies(t *testing.T) {
	env := setupMarketServiceTest(t)
	silverMax := decimal.NewFromInt(800)
	bronzeMax := decimal.NewFromInt(200)
	rows, err := env.policies.Replace(" Buyer ", []TierPolicyInput{
		{TierName: "gold", MinAmount: decimal.NewFromInt(800), Rate: decimal.NewFromInt(9)},
		{TierName: "silver", MinAmount: decimal.NewFromInt(200), MaxAmount: &silverMax, Rate: decimal.NewFromInt(4)},
		{TierName: " bronze ", MinAmount: decimal.Zero, MaxAmount: &bronzeMax, Rate: decimal.Zero},
	})
	if err != nil {
		t.Fatalf("replace policies failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected three policies, got %d", len(rows))
	}
	want := []string{constants.TierBronze, constants.TierSilver, constants.TierGold}
	for i, row := range rows {
		if row.TierName != want[i] || row.WindowType != constants.WindowTypeTotal {
			t.Fatalf("policy %d = %s/%s, want %s/total", i, row.TierName, row.WindowType, want[i])
		}
	}
	if got := env.count(t, &models.TierPolicy{}, "subject_type = ?", constants.SubjectTypeBuyer); got != 3 {
		t.Fatalf("expected old buyer policies replaced, got %d rows", got)
	}
	if got := env.count(t, &models.TierPolicy{}, "subject_type = ?", constants.SubjectTypeSeller); got != 2 {
		t.Fatalf("seller policies should be untouched, got %d rows", got)
	}

	if _, err := env.policies.Replace(constants.SubjectTypeBuyer, []TierPolicyInput{
		{TierName: "bronze", MinAmount: decimal.NewFromInt(5), Rate: decimal.Zero},
	}); !errors.Is(err, ErrTierPolicyInvalid) {
		t.Fatalf("expected ErrTierPolicyInvalid, got %v", err)
	}
	if got := env.count(t, &models.TierPolicy{}, "subject_type = ?", constants.SubjectTypeBuyer); got != 3 {
		t.Fatalf("invalid replace should keep existing policies, got %d rows", got)
	}
}

func TestEnsureDefaultsOnlyWhenEmpty(t *testing.T) {
	env := setupMarketServiceTest(t)
	if err := env.policies.EnsureDefaults(); err != nil {
		t.Fatalf("ensure defaults failed: %v", err)
	}
	if got := env.count(t, &models.TierPolicy{}, "subject_type = ?", constants.SubjectTypeBuyer); got != 3 {
		t.Fatalf("existing policies should be kept, got %d rows", got)
	}

	if err := env.db.Where("1 = 1").Delete(&models.TierPolicy{}).Error; err != nil {
		t.Fatalf("clear policies failed: %v", err)
	}
	if err := env.policies.EnsureDefaults(); err != nil {
		t.Fatalf("ensure defaults failed: %v", err)
	}
	for _, subjectType := range []string{constants.SubjectTypeBuyer, constants.SubjectTypeSeller} {
		rows, err := repository.NewTierPolicyRepository(env.db).ListBySubjectType(subjectType)
		if err != nil {
			t.Fatalf("list %s policies failed: %v", subjectType, err)
		}
		if err := ValidateTierPolicies(rows); err != nil {
			t.Fatalf("default %s policies invalid: %v", subjectType, err)
		}
	}
}
