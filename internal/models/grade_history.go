package models

import (
	"time"
)

// GradeHistory 等级变更审计记录（只追加）
type GradeHistory struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                                          // 主键
	SubjectType string    `gorm:"type:varchar(20);not null;index:idx_grade_history_subject" json:"subject_type"` // 主体类型
	SubjectID   uint      `gorm:"not null;index:idx_grade_history_subject" json:"subject_id"`                    // 主体ID
	OldTier     string    `gorm:"type:varchar(20);not null;default:''" json:"old_tier"`                          // 原等级
	NewTier     string    `gorm:"type:varchar(20);not null" json:"new_tier"`                                     // 新等级
	OldRate     Money     `gorm:"type:decimal(5,2);not null;default:0" json:"old_rate"`                          // 原费率
	NewRate     Money     `gorm:"type:decimal(5,2);not null;default:0" json:"new_rate"`                          // 新费率
	Amount      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                           // 变更时的定级金额
	Reason      string    `gorm:"type:varchar(255);not null;default:''" json:"reason"`                           // 变更原因
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                                       // 变更时间
}

// TableName 指定表名
func (GradeHistory) TableName() string {
	return "grade_histories"
}
