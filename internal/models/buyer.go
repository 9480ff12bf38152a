package models

import (
	"time"
)

// Buyer 买家等级档案
type Buyer struct {
	ID                     uint       `gorm:"primarykey" json:"id"`                                                // 主键
	UserID                 uint       `gorm:"not null;uniqueIndex" json:"user_id"`                                 // 用户ID
	Tier                   string     `gorm:"type:varchar(20);not null;default:'BRONZE';index" json:"tier"`        // 当前等级
	DiscountRate           Money      `gorm:"type:decimal(5,2);not null;default:0" json:"discount_rate"`           // 等级折扣率（百分比）
	IndividualDiscountRate *Money     `gorm:"type:decimal(5,2)" json:"individual_discount_rate,omitempty"`         // 个人专属折扣率（百分比，可空）
	TotalPurchaseAmount    Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_purchase_amount"`  // 累计购买金额（只增不减）
	RecentPurchaseAmount   Money      `gorm:"type:decimal(20,2);not null;default:0" json:"recent_purchase_amount"` // 滚动窗口购买金额（每次重算）
	WindowMonths           int        `gorm:"not null;default:0" json:"window_months"`                             // 滚动窗口月数（0 表示按累计金额定级）
	LastTierUpdate         *time.Time `json:"last_tier_update,omitempty"`                                          // 最近一次等级变更时间
	CreatedAt              time.Time  `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt              time.Time  `json:"updated_at"`                                                          // 更新时间

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 关联用户
}

// TableName 指定表名
func (Buyer) TableName() string {
	return "buyers"
}

// EffectiveAmount 返回定级使用的金额
func (b Buyer) EffectiveAmount() Money {
	if b.WindowMonths > 0 {
		return b.RecentPurchaseAmount
	}
	return b.TotalPurchaseAmount
}
