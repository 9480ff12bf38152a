package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/edumarket/internal/models"

	"gorm.io/gorm"
)

// ContentRepository 课程内容数据访问接口
type ContentRepository interface {
	GetByID(id uint) (*models.Content, error)
	Create(content *models.Content) error
	UpdateStatus(id uint, status string, updatedAt time.Time) (int64, error)
	List(filter ContentListFilter) ([]models.Content, int64, error)
	WithTx(tx *gorm.DB) ContentRepository
}

// GormContentRepository GORM 实现
type GormContentRepository struct {
	db *gorm.DB
}

// NewContentRepository 创建课程仓库
func NewContentRepository(db *gorm.DB) *GormContentRepository {
	return &GormContentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormContentRepository) WithTx(tx *gorm.DB) ContentRepository {
	if tx == nil {
		return r
	}
	return &GormContentRepository{db: tx}
}

// GetByID 根据 ID 获取课程
func (r *GormContentRepository) GetByID(id uint) (*models.Content, error) {
	if id == 0 {
		return nil, nil
	}
	var content models.Content
	if err := r.db.First(&content, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &content, nil
}

// Create 创建课程
func (r *GormContentRepository) Create(content *models.Content) error {
	return r.db.Create(content).Error
}

// UpdateStatus 更新审核状态
func (r *GormContentRepository) UpdateStatus(id uint, status string, updatedAt time.Time) (int64, error) {
	result := r.db.Model(&models.Content{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.TrimSpace(status),
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// List 课程列表
func (r *GormContentRepository) List(filter ContentListFilter) ([]models.Content, int64, error) {
	query := r.db.Model(&models.Content{})
	if filter.SellerID != 0 {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildKeywordCondition(r.db, []string{"title", "description"})
		query = query.Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Content
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
