package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound 资源不存在，各类不存在错误均包装该错误
var ErrNotFound = errors.New("资源不存在")

var (
	ErrUserNotFound            = fmt.Errorf("%w: 用户不存在", ErrNotFound)
	ErrBuyerNotFound           = fmt.Errorf("%w: 买家不存在", ErrNotFound)
	ErrSellerNotFound          = fmt.Errorf("%w: 卖家不存在", ErrNotFound)
	ErrContentNotFound         = fmt.Errorf("%w: 课程不存在或不可购买", ErrNotFound)
	ErrPurchaseNotFound        = fmt.Errorf("%w: 购买记录不存在", ErrNotFound)
	ErrSettlementNotFound      = fmt.Errorf("%w: 结算记录不存在", ErrNotFound)
	ErrSettlementBatchNotFound = fmt.Errorf("%w: 结算批次不存在", ErrNotFound)
)

var (
	ErrAlreadyPurchased         = errors.New("已购买该课程")
	ErrDuplicateBatchRequest    = errors.New("该周期已存在结算申请")
	ErrOutsideSaleWindow        = errors.New("课程不在销售期内")
	ErrNothingToSettle          = errors.New("该周期没有待结算记录")
	ErrAlreadyProcessed         = errors.New("结算批次已处理")
	ErrBatchStatusInvalid       = errors.New("结算批次状态不允许该操作")
	ErrSettlementBusy           = errors.New("结算申请处理中，请稍后重试")
	ErrSettlementAlreadyBatched = errors.New("结算记录已进入结算流程")
	ErrInvalidPeriod            = errors.New("结算周期无效")
	ErrTierPolicyInvalid        = errors.New("等级规则配置无效")
	ErrSubjectTypeInvalid       = errors.New("等级主体类型无效")
	ErrGradeAmountInvalid       = errors.New("定级金额无效")
	ErrDiscountRateInvalid      = errors.New("折扣率无效")
	ErrPurchaseStatusInvalid    = errors.New("购买记录状态不允许该操作")
	ErrPaymentMethodInvalid     = errors.New("支付方式无效")
	ErrAccountExists            = errors.New("账户已开通")
	ErrUserDisabled             = errors.New("用户已被禁用")
	ErrContentInvalid           = errors.New("课程信息无效")
	ErrContentStatusInvalid     = errors.New("课程状态无效")
	ErrSaleWindowInvalid        = errors.New("销售时间配置无效")
	ErrBankAccountInvalid       = errors.New("收款信息无效")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 未开启 TranslateError 的连接按驱动原始报错识别
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "sqlstate 23505")
}
