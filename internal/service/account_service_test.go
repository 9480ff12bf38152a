package service

import (
	"errors"
	"testing"
	"time"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/models"
	"github.com/edumarket/internal/repository"

	"github.com/shopspring/decimal"
)

func TestRegisterBuyerStartsAtLowestTier(t *testing.T) {
	env := setupMarketServiceTest(t)
	user := env.createUser(t, "new_buyer@example.com")

	buyer, err := env.account.RegisterBuyer(user.ID)
	if err != nil {
		t.Fatalf("register buyer failed: %v", err)
	}
	if buyer.Tier != constants.TierBronze || !buyer.DiscountRate.Decimal.IsZero() {
		t.Fatalf("new buyer should be BRONZE/0, got %s/%s", buyer.Tier, buyer.DiscountRate.String())
	}
	if _, err := env.account.RegisterBuyer(user.ID); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("second registration should fail with ErrAccountExists, got %v", err)
	}
	if _, err := env.account.RegisterBuyer(999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user should fail with ErrUserNotFound, got %v", err)
	}
	if !errors.Is(ErrUserNotFound, ErrNotFound) {
		t.Fatalf("ErrUserNotFound should wrap ErrNotFound")
	}
}

func TestRegisterRejectsDisabledUser(t *testing.T) {
	env := setupMarketServiceTest(t)
	user := env.createUser(t, "disabled@example.com")
	if err := env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, err := env.account.RegisterBuyer(user.ID); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user buyer registration want ErrUserDisabled, got %v", err)
	}
	if _, err := env.account.RegisterSeller(user.ID, SellerBankInput{}); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user seller registration want ErrUserDisabled, got %v", err)
	}
}

func TestRegisterSellerUsesLowestCommission(t *testing.T) {
	env := setupMarketServiceTest(t)
	seller := env.createSeller(t, "seller@example.com")

	if seller.Tier != constants.TierBronze {
		t.Fatalf("new seller tier want BRONZE got %s", seller.Tier)
	}
	mustDecimalEqual(t, "commission_rate", seller.CommissionRate.Decimal, 10)
	if seller.BankAccount != "6222000011112222" {
		t.Fatalf("bank account not stored: %q", seller.BankAccount)
	}

	got, err := env.account.GetSellerByUserID(seller.UserID)
	if err != nil || got.ID != seller.ID {
		t.Fatalf("get seller by user failed: %v", err)
	}
	if _, err := env.account.GetBuyerByUserID(seller.UserID); !errors.Is(err, ErrBuyerNotFound) {
		t.Fatalf("seller without buyer profile want ErrBuyerNotFound, got %v", err)
	}
}

func TestUpdateSellerBankRequiresAllFields(t *testing.T) {
	env := setupMarketServiceTest(t)
	seller := env.createSeller(t, "bank@example.com")

	if _, err := env.account.UpdateSellerBank(seller.UserID, SellerBankInput{BankName: "新银行"}); !errors.Is(err, ErrBankAccountInvalid) {
		t.Fatalf("partial bank info want ErrBankAccountInvalid, got %v", err)
	}
	updated, err := env.account.UpdateSellerBank(seller.UserID, SellerBankInput{
		BankName:      " 新银行 ",
		BankAccount:   "6222999988887777",
		AccountHolder: "新户名",
	})
	if err != nil {
		t.Fatalf("update bank failed: %v", err)
	}
	if updated.BankName != "新银行" || updated.BankAccount != "6222999988887777" {
		t.Fatalf("bank info not updated: %+v", updated)
	}
}

func TestContentCreateValidatesSaleWindow(t *testing.T) {
	env := setupMarketServiceTest(t)
	seller := env.createSeller(t, "content_seller@example.com")
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	cases := []struct {
		name  string
		input CreateContentInput
		want  error
	}{
		{name: "empty title", input: CreateContentInput{Title: " ", Price: decimal.NewFromInt(100), AlwaysOnSale: true}, want: ErrContentInvalid},
		{name: "negative price", input: CreateContentInput{Title: "课程", Price: decimal.NewFromInt(-1), AlwaysOnSale: true}, want: ErrContentInvalid},
		{name: "missing window", input: CreateContentInput{Title: "课程", Price: decimal.NewFromInt(100)}, want: ErrSaleWindowInvalid},
		{name: "end before start", input: CreateContentInput{Title: "课程", Price: decimal.NewFromInt(100), SaleStartDate: &start, SaleEndDate: &end}, want: ErrSaleWindowInvalid},
	}
	for _, tc := range cases {
		if _, err := env.content.Create(seller.ID, tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, err)
		}
	}

	if _, err := env.content.Create(999, CreateContentInput{Title: "课程", AlwaysOnSale: true}); !errors.Is(err, ErrSellerNotFound) {
		t.Fatalf("unknown seller want ErrSellerNotFound, got %v", err)
	}
}

func TestContentPublicVisibilityFollowsStatus(t *testing.T) {
	env := setupMarketServiceTest(t)
	seller := env.createSeller(t, "visibility@example.com")
	content, err := env.content.Create(seller.ID, CreateContentInput{Title: "待审核课程", Price: decimal.NewFromInt(5000), AlwaysOnSale: true})
	if err != nil {
		t.Fatalf("create content failed: %v", err)
	}
	if content.Status != constants.ContentStatusPending {
		t.Fatalf("new content should be pending, got %s", content.Status)
	}
	if _, err := env.content.GetPublic(content.ID); !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("pending content should be hidden, got %v", err)
	}
	if _, err := env.content.UpdateStatus(content.ID, "published"); !errors.Is(err, ErrContentStatusInvalid) {
		t.Fatalf("unknown status want ErrContentStatusInvalid, got %v", err)
	}
	if _, err := env.content.UpdateStatus(999, constants.ContentStatusApproved); !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("missing content want ErrContentNotFound, got %v", err)
	}
	if _, err := env.content.UpdateStatus(content.ID, " APPROVED "); err != nil {
		t.Fatalf("approve content failed: %v", err)
	}
	if _, err := env.content.GetPublic(content.ID); err != nil {
		t.Fatalf("approved content should be visible: %v", err)
	}

	rows, total, err := env.content.ListBySeller(seller.ID, repository.ContentListFilter{Page: 1, PageSize: 10})
	if err != nil || total != 1 || len(rows) != 1 {
		t.Fatalf("seller list want 1 got total=%d err=%v", total, err)
	}
}
