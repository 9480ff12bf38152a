package service

import (
	"strings"
	"time"

	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/models"
	"github.com/edumarket/internal/repository"

	"github.com/shopspring/decimal"
)

// CreateContentInput 卖家创建课程输入
type CreateContentInput struct {
	Title         string
	Description   string
	Price         decimal.Decimal
	AlwaysOnSale  bool
	SaleStartDate *time.Time
	SaleEndDate   *time.Time
}

// ContentService 课程内容服务
type ContentService struct {
	contentRepo repository.ContentRepository
	sellerRepo  repository.SellerRepository
	now         func() time.Time
}

// NewContentService 创建课程服务
func NewContentService(contentRepo repository.ContentRepository, sellerRepo repository.SellerRepository) *ContentService {
	return &ContentService{
		contentRepo: contentRepo,
		sellerRepo:  sellerRepo,
		now:         time.Now,
	}
}

// Create 卖家创建课程，初始为待审核
func (s *ContentService) Create(sellerID uint, input CreateContentInput) (*models.Content, error) {
	seller, err := s.sellerRepo.GetByID(sellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, ErrSellerNotFound
	}
	title := strings.TrimSpace(input.Title)
	if title == "" || input.Price.LessThan(decimal.Zero) {
		return nil, ErrContentInvalid
	}
	if !input.AlwaysOnSale {
		if input.SaleStartDate == nil || input.SaleEndDate == nil || input.SaleEndDate.Before(*input.SaleStartDate) {
			return nil, ErrSaleWindowInvalid
		}
	}
	now := s.now().UTC()
	content := &models.Content{
		SellerID:     seller.ID,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Price:        models.NewMoneyFromDecimal(input.Price),
		Status:       constants.ContentStatusPending,
		AlwaysOnSale: input.AlwaysOnSale,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !input.AlwaysOnSale {
		start := input.SaleStartDate.UTC()
		end := input.SaleEndDate.UTC()
		content.SaleStartDate = &start
		content.SaleEndDate = &end
	}
	if err := s.contentRepo.Create(content); err != nil {
		return nil, err
	}
	logger.Infow("content_created", "content_id", content.ID, "seller_id", seller.ID)
	return content, nil
}

// UpdateStatus 管理员审核课程
func (s *ContentService) UpdateStatus(contentID uint, status string) (*models.Content, error) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	switch normalized {
	case constants.ContentStatusPending, constants.ContentStatusApproved, constants.ContentStatusRejected:
	default:
		return nil, ErrContentStatusInvalid
	}
	affected, err := s.contentRepo.UpdateStatus(contentID, normalized, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrContentNotFound
	}
	return s.contentRepo.GetByID(contentID)
}

// GetPublic 获取已上架课程
func (s *ContentService) GetPublic(contentID uint) (*models.Content, error) {
	content, err := s.contentRepo.GetByID(contentID)
	if err != nil {
		return nil, err
	}
	if content == nil || content.Status != constants.ContentStatusApproved {
		return nil, ErrContentNotFound
	}
	return content, nil
}

// ListPublic 已上架课程列表
func (s *ContentService) ListPublic(filter repository.ContentListFilter) ([]models.Content, int64, error) {
	filter.Status = constants.ContentStatusApproved
	return s.contentRepo.List(filter)
}

// ListBySeller 卖家自己的课程列表
func (s *ContentService) ListBySeller(sellerID uint, filter repository.ContentListFilter) ([]models.Content, int64, error) {
	filter.SellerID = sellerID
	return s.contentRepo.List(filter)
}
