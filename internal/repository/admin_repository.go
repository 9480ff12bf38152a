package repository

import (
	"errors"
	"strings"

	"github.com/edumarket/internal/models"

	"gorm.io/gorm"
)

// AdminRepository 后台人员数据访问接口
type AdminRepository interface {
	GetByID(id uint) (*models.Admin, error)
	GetByUsername(username string) (*models.Admin, error)
	EnsureStaff(username, displayName string) (*models.Admin, bool, error)
}

// GormAdminRepository GORM 实现
type GormAdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository 创建后台人员仓库
func NewAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

// GetByID 根据 ID 获取后台人员
func (r *GormAdminRepository) GetByID(id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// GetByUsername 根据账号获取后台人员
func (r *GormAdminRepository) GetByUsername(username string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.Where("username = ?", strings.TrimSpace(username)).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// EnsureStaff 按账号获取非超级管理员人员，不存在时创建；第二个返回值表示是否新建
func (r *GormAdminRepository) EnsureStaff(username, displayName string) (*models.Admin, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, false, errors.New("username is empty")
	}
	existing, err := r.GetByUsername(username)
	if err != nil || existing != nil {
		return existing, false, err
	}
	admin := &models.Admin{Username: username, DisplayName: strings.TrimSpace(displayName)}
	if err := r.db.Create(admin).Error; err != nil {
		return nil, false, err
	}
	return admin, true, nil
}
