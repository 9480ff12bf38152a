package constants

// 等级主体类型
const (
	SubjectTypeBuyer  = "buyer"
	SubjectTypeSeller = "seller"
)

// 等级名称
const (
	TierBronze   = "BRONZE"
	TierSilver   = "SILVER"
	TierGold     = "GOLD"
	TierPlatinum = "PLATINUM"
)

// 等级统计窗口类型
const (
	WindowTypeTotal  = "total"
	WindowTypeRecent = "recent"
)

// 购买状态常量
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusCancelled = "cancelled"
)

// 结算记录状态常量
const (
	SettlementStatusPending   = "pending"
	SettlementStatusRequested = "requested"
	SettlementStatusCompleted = "completed"
	SettlementStatusCancelled = "cancelled"
)

// 结算批次状态常量
const (
	SettlementBatchStatusPending    = "pending"
	SettlementBatchStatusProcessing = "processing"
	SettlementBatchStatusCompleted  = "completed"
	SettlementBatchStatusCancelled  = "cancelled"
)

// 课程内容审核状态
const (
	ContentStatusPending  = "pending"
	ContentStatusApproved = "approved"
	ContentStatusRejected = "rejected"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 支付方式常量
const (
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodWallet   = "wallet"
	PaymentMethodPoint    = "point"
)

// 结算周期日期格式
const SettlementPeriodLayout = "2006-01-02"

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskGradeRecompute = "grade:recompute"
	TaskGradeSweep     = "grade:sweep"
)

// 领域事件交换机与路由键
const (
	EventExchangeSettlement       = "settlement_events"
	EventExchangeGrade            = "grade_events"
	EventSettlementBatchRequested = "settlement.batch.requested"
	EventSettlementBatchCompleted = "settlement.batch.completed"
	EventSettlementBatchCancelled = "settlement.batch.cancelled"
	EventGradeTierChanged         = "grade.tier.changed"
)
