package models

import (
	"time"
)

// Purchase 课程购买记录
// 同一买家对同一课程至多存在一条已完成记录，由部分唯一索引保证。
type Purchase struct {
	ID                  uint       `gorm:"primarykey" json:"id"`                                                                                          // 主键
	BuyerID             uint       `gorm:"not null;index;index:idx_purchase_buyer_content_completed,unique,where:status = 'completed'" json:"buyer_id"`   // 买家ID
	ContentID           uint       `gorm:"not null;index;index:idx_purchase_buyer_content_completed,unique,where:status = 'completed'" json:"content_id"` // 课程ID
	SellerID            uint       `gorm:"not null;index" json:"seller_id"`                                                                               // 卖家ID
	OriginalPrice       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"original_price"`                                                   // 原价
	DiscountRateApplied Money      `gorm:"type:decimal(5,2);not null;default:0" json:"discount_rate_applied"`                                             // 实际折扣率（百分比）
	DiscountAmount      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`                                                  // 折扣金额
	FinalPrice          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"final_price"`                                                      // 实付金额
	PaymentMethod       string     `gorm:"type:varchar(32);not null;default:''" json:"payment_method"`                                                    // 支付方式
	Status              string     `gorm:"type:varchar(20);not null;index" json:"status"`                                                                 // 购买状态
	PurchasedAt         *time.Time `gorm:"index" json:"purchased_at,omitempty"`                                                                           // 完成时间
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`                                                                                        // 取消时间
	CancelReason        string     `gorm:"type:varchar(255);not null;default:''" json:"cancel_reason"`                                                    // 取消原因
	CreatedAt           time.Time  `gorm:"index" json:"created_at"`                                                                                       // 创建时间
	UpdatedAt           time.Time  `json:"updated_at"`                                                                                                    // 更新时间

	Content *Content `gorm:"foreignKey:ContentID" json:"content,omitempty"` // 课程
}

// TableName 指定表名
func (Purchase) TableName() string {
	return "purchases"
}
