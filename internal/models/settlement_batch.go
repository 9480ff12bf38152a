package models

import (
	"time"

	"gorm.io/datatypes"
)

// SettlementBatch 卖家结算申请批次
// 同一卖家同一周期至多存在一个未取消的批次，由部分唯一索引保证。
type SettlementBatch struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                                                                                      // 主键
	SellerID        uint           `gorm:"not null;index;index:idx_settlement_batch_seller_period,unique,where:status <> 'cancelled'" json:"seller_id"`               // 卖家ID
	PeriodStart     string         `gorm:"type:varchar(10);not null;index:idx_settlement_batch_seller_period,unique,where:status <> 'cancelled'" json:"period_start"` // 周期开始日（含）
	PeriodEnd       string         `gorm:"type:varchar(10);not null;index:idx_settlement_batch_seller_period,unique,where:status <> 'cancelled'" json:"period_end"`   // 周期结束日（含）
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`                                                                 // 交易总额合计
	TotalCommission Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_commission"`                                                             // 佣金合计
	SellerAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"seller_amount"`                                                                // 卖家应得合计
	SettlementCount int            `gorm:"not null;default:0" json:"settlement_count"`                                                                                // 结算记录数
	Status          string         `gorm:"type:varchar(20);not null;index" json:"status"`                                                                             // 批次状态
	BankSnapshot    datatypes.JSON `gorm:"type:json" json:"bank_snapshot"`                                                                                            // 申请时的收款信息快照
	Remark          string         `gorm:"type:varchar(255);not null;default:''" json:"remark"`                                                                       // 备注（取消原因等）
	ProcessedBy     *uint          `gorm:"index" json:"processed_by,omitempty"`                                                                                       // 处理管理员
	RequestedAt     time.Time      `gorm:"index" json:"requested_at"`                                                                                                 // 申请时间
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`                                                                                                    // 开始处理时间
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`                                                                                                    // 完成时间
	CancelledAt     *time.Time     `json:"cancelled_at,omitempty"`                                                                                                    // 取消时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                                                                                   // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                                                                                // 更新时间

	Seller      *Seller      `gorm:"foreignKey:SellerID" json:"seller,omitempty"`     // 卖家
	Settlements []Settlement `gorm:"foreignKey:BatchID" json:"settlements,omitempty"` // 批次内结算记录
}

// TableName 指定表名
func (SettlementBatch) TableName() string {
	return "settlement_batches"
}
