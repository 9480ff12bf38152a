package models

import (
	"time"
)

// Settlement 单笔交易结算记录
type Settlement struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                           // 主键
	SellerID         uint       `gorm:"not null;index" json:"seller_id"`                                // 卖家ID
	ContentID        uint       `gorm:"not null;index" json:"content_id"`                               // 课程ID
	PurchaseID       uint       `gorm:"not null;uniqueIndex" json:"purchase_id"`                        // 购买记录ID（一笔购买对应一条结算）
	BatchID          *uint      `gorm:"index" json:"batch_id,omitempty"`                                // 所属结算批次
	TotalAmount      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`      // 交易总额
	CommissionRate   Money      `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`    // 创建时冻结的佣金率
	CommissionAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount"` // 平台佣金
	SellerAmount     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"seller_amount"`     // 卖家应得
	Status           string     `gorm:"type:varchar(20);not null;index" json:"status"`                  // 结算状态
	SettlementDate   *string    `gorm:"type:varchar(10);index" json:"settlement_date,omitempty"`        // 结算日（批次周期结束日）
	CompletedAt      *time.Time `json:"completed_at,omitempty"`                                         // 打款完成时间
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`                                         // 取消时间
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                                     // 更新时间
}

// TableName 指定表名
func (Settlement) TableName() string {
	return "settlements"
}
