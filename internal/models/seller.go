package models

import (
	"time"
)

// Seller 卖家等级档案
type Seller struct {
	ID                uint       `gorm:"primarykey" json:"id"`                                             // 主键
	UserID            uint       `gorm:"not null;uniqueIndex" json:"user_id"`                              // 用户ID
	Tier              string     `gorm:"type:varchar(20);not null;default:'BRONZE';index" json:"tier"`     // 当前等级
	CommissionRate    Money      `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`      // 平台佣金率（百分比）
	TotalSalesAmount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_sales_amount"`  // 累计销售金额（只增不减）
	RecentSalesAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"recent_sales_amount"` // 滚动窗口销售金额（每次重算）
	WindowMonths      int        `gorm:"not null;default:0" json:"window_months"`                          // 滚动窗口月数（0 表示按累计金额定级）
	LastTierUpdate    *time.Time `json:"last_tier_update,omitempty"`                                       // 最近一次等级变更时间
	BankName          string     `gorm:"type:varchar(100);not null;default:''" json:"bank_name"`           // 收款银行
	BankAccount       string     `gorm:"type:varchar(64);not null;default:''" json:"bank_account"`         // 收款账号
	AccountHolder     string     `gorm:"type:varchar(100);not null;default:''" json:"account_holder"`      // 开户名
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt         time.Time  `json:"updated_at"`                                                       // 更新时间

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 关联用户
}

// TableName 指定表名
func (Seller) TableName() string {
	return "sellers"
}

// EffectiveAmount 返回定级使用的金额
func (s Seller) EffectiveAmount() Money {
	if s.WindowMonths > 0 {
		return s.RecentSalesAmount
	}
	return s.TotalSalesAmount
}
