package shared

import (
	"github.com/edumarket/internal/http/response"
	"github.com/edumarket/internal/service"
)

// AccountErrorRules 买家/卖家档案相关错误
var AccountErrorRules = []MappedError{
	{Target: service.ErrUserNotFound, Code: response.CodeNotFound, Key: "error.user_not_found"},
	{Target: service.ErrUserDisabled, Code: response.CodeForbidden, Key: "error.user_disabled"},
	{Target: service.ErrAccountExists, Code: response.CodeConflict, Key: "error.account_exists"},
	{Target: service.ErrBuyerNotFound, Code: response.CodeNotFound, Key: "error.buyer_not_found"},
	{Target: service.ErrSellerNotFound, Code: response.CodeNotFound, Key: "error.seller_not_found"},
	{Target: service.ErrBankAccountInvalid, Code: response.CodeBadRequest, Key: "error.bank_account_invalid"},
}

// ContentErrorRules 课程相关错误
var ContentErrorRules = []MappedError{
	{Target: service.ErrContentNotFound, Code: response.CodeNotFound, Key: "error.content_not_found"},
	{Target: service.ErrContentInvalid, Code: response.CodeBadRequest, Key: "error.content_invalid"},
	{Target: service.ErrContentStatusInvalid, Code: response.CodeBadRequest, Key: "error.content_status_invalid"},
	{Target: service.ErrSaleWindowInvalid, Code: response.CodeBadRequest, Key: "error.sale_window_invalid"},
	{Target: service.ErrSellerNotFound, Code: response.CodeNotFound, Key: "error.seller_not_found"},
}

// PurchaseErrorRules 购买相关错误
var PurchaseErrorRules = []MappedError{
	{Target: service.ErrAlreadyPurchased, Code: response.CodeConflict, Key: "error.already_purchased"},
	{Target: service.ErrOutsideSaleWindow, Code: response.CodeBadRequest, Key: "error.outside_sale_window"},
	{Target: service.ErrContentNotFound, Code: response.CodeNotFound, Key: "error.content_not_found"},
	{Target: service.ErrBuyerNotFound, Code: response.CodeNotFound, Key: "error.buyer_not_found"},
	{Target: service.ErrSellerNotFound, Code: response.CodeNotFound, Key: "error.seller_not_found"},
	{Target: service.ErrPurchaseNotFound, Code: response.CodeNotFound, Key: "error.purchase_not_found"},
	{Target: service.ErrPaymentMethodInvalid, Code: response.CodeBadRequest, Key: "error.payment_method_invalid"},
	{Target: service.ErrDiscountRateInvalid, Code: response.CodeBadRequest, Key: "error.discount_rate_invalid"},
	{Target: service.ErrPurchaseStatusInvalid, Code: response.CodeConflict, Key: "error.purchase_status_invalid"},
	{Target: service.ErrSettlementAlreadyBatched, Code: response.CodeConflict, Key: "error.settlement_already_batched"},
}

// SettlementErrorRules 结算相关错误
var SettlementErrorRules = []MappedError{
	{Target: service.ErrDuplicateBatchRequest, Code: response.CodeConflict, Key: "error.settlement_duplicate_request"},
	{Target: service.ErrNothingToSettle, Code: response.CodeBadRequest, Key: "error.settlement_nothing_to_settle"},
	{Target: service.ErrAlreadyProcessed, Code: response.CodeConflict, Key: "error.settlement_batch_processed"},
	{Target: service.ErrBatchStatusInvalid, Code: response.CodeConflict, Key: "error.settlement_batch_status"},
	{Target: service.ErrSettlementBusy, Code: response.CodeTooManyRequests, Key: "error.settlement_busy"},
	{Target: service.ErrInvalidPeriod, Code: response.CodeBadRequest, Key: "error.settlement_period_invalid"},
	{Target: service.ErrSettlementBatchNotFound, Code: response.CodeNotFound, Key: "error.settlement_batch_not_found"},
	{Target: service.ErrSellerNotFound, Code: response.CodeNotFound, Key: "error.seller_not_found"},
}

// GradeErrorRules 定级与等级规则相关错误
var GradeErrorRules = []MappedError{
	{Target: service.ErrTierPolicyInvalid, Code: response.CodeBadRequest, Key: "error.tier_policy_invalid"},
	{Target: service.ErrSubjectTypeInvalid, Code: response.CodeBadRequest, Key: "error.subject_type_invalid"},
	{Target: service.ErrDiscountRateInvalid, Code: response.CodeBadRequest, Key: "error.discount_rate_invalid"},
	{Target: service.ErrBuyerNotFound, Code: response.CodeNotFound, Key: "error.buyer_not_found"},
	{Target: service.ErrSellerNotFound, Code: response.CodeNotFound, Key: "error.seller_not_found"},
}
