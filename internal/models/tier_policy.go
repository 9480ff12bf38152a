package models

import (
	"time"
)

// TierPolicy 等级规则表
// 同一主体类型的区间按 min_amount 升序连续且不重叠，仅最高档 max_amount 为空。
type TierPolicy struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                                                   // 主键
	SubjectType  string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_tier_policy_subject_tier" json:"subject_type"` // 主体类型（buyer/seller）
	TierName     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_tier_policy_subject_tier" json:"tier_name"`    // 等级名称
	MinAmount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"min_amount"`                                // 区间下限（含）
	MaxAmount    *Money    `gorm:"type:decimal(20,2)" json:"max_amount"`                                                   // 区间上限（不含，空表示无上限）
	Rate         Money     `gorm:"type:decimal(5,2);not null;default:0" json:"rate"`                                       // 买家折扣率或卖家佣金率（百分比）
	WindowType   string    `gorm:"type:varchar(20);not null;default:'total'" json:"window_type"`                           // 统计窗口类型（total/recent）
	WindowMonths int       `gorm:"not null;default:0" json:"window_months"`                                                // 滚动窗口月数
	CreatedAt    time.Time `json:"created_at"`                                                                             // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`                                                                             // 更新时间
}

// TableName 指定表名
func (TierPolicy) TableName() string {
	return "tier_policies"
}
