package repository

import (
	"strings"

	"github.com/edumarket/internal/models"

	"gorm.io/gorm"
)

// GradeHistoryRepository 等级变更记录数据访问接口（只追加）
type GradeHistoryRepository interface {
	Create(history *models.GradeHistory) error
	List(filter GradeHistoryListFilter) ([]models.GradeHistory, int64, error)
	WithTx(tx *gorm.DB) GradeHistoryRepository
}

// GormGradeHistoryRepository GORM 实现
type GormGradeHistoryRepository struct {
	db *gorm.DB
}

// NewGradeHistoryRepository 创建等级变更记录仓库
func NewGradeHistoryRepository(db *gorm.DB) *GormGradeHistoryRepository {
	return &GormGradeHistoryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGradeHistoryRepository) WithTx(tx *gorm.DB) GradeHistoryRepository {
	if tx == nil {
		return r
	}
	return &GormGradeHistoryRepository{db: tx}
}

// Create 追加变更记录
func (r *GormGradeHistoryRepository) Create(history *models.GradeHistory) error {
	return r.db.Create(history).Error
}

// List 变更记录列表
func (r *GormGradeHistoryRepository) List(filter GradeHistoryListFilter) ([]models.GradeHistory, int64, error) {
	query := r.db.Model(&models.GradeHistory{})
	if subjectType := strings.TrimSpace(filter.SubjectType); subjectType != "" {
		query = query.Where("subject_type = ?", subjectType)
	}
	if filter.SubjectID != 0 {
		query = query.Where("subject_id = ?", filter.SubjectID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.GradeHistory
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
