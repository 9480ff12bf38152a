package models

import (
	"time"

	"gorm.io/gorm"
)

// Admin 平台后台人员（运营、财务、审计），角色由 casbin 分配
type Admin struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                  // 主键
	Username           string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"` // 后台账号
	DisplayName        string         `gorm:"type:varchar(100)" json:"display_name"`                 // 展示名称
	IsSuper            bool           `gorm:"not null;default:false;index" json:"is_super"`          // 超级管理员跳过角色校验
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                           // 递增后旧 Token 全部失效
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                                        // 早于该时间签发的 Token 失效
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt          time.Time      `json:"updated_at"`                                            // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间
}

// TableName 指定表名
func (Admin) TableName() string {
	return "admins"
}
