package models

import (
	"errors"
	"strings"

	"github.com/edumarket/internal/logger"

	"gorm.io/gorm"
)

// EnsureSuperAdmin 确保存在指定用户名的超级管理员
// 登录签发由外部身份系统负责，这里只维护管理员记录。
func EnsureSuperAdmin(db *gorm.DB, username string) (*Admin, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = "admin"
	}
	var admin Admin
	err := db.Where("username = ?", username).First(&admin).Error
	if err == nil {
		if !admin.IsSuper {
			if err := db.Model(&admin).Update("is_super", true).Error; err != nil {
				return nil, err
			}
			admin.IsSuper = true
			logger.Warnw("super_admin_promoted", "username", username)
		}
		return &admin, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	admin = Admin{Username: username, IsSuper: true}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	logger.Infow("super_admin_created", "username", username, "admin_id", admin.ID)
	return &admin, nil
}
