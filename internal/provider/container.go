package provider

import (
	"errors"

	"github.com/edumarket/internal/authz"
	"github.com/edumarket/internal/cache"
	"github.com/edumarket/internal/config"
	"github.com/edumarket/internal/events"
	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/queue"
	"github.com/edumarket/internal/repository"
	"github.com/edumarket/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
// 数据库句柄由进程入口创建后注入，容器内不读取全局连接。
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	Publisher   events.Publisher

	// Repositories
	AdminRepo           repository.AdminRepository
	UserRepo            repository.UserRepository
	BuyerRepo           repository.BuyerRepository
	SellerRepo          repository.SellerRepository
	ContentRepo         repository.ContentRepository
	PurchaseRepo        repository.PurchaseRepository
	SettlementRepo      repository.SettlementRepository
	SettlementBatchRepo repository.SettlementBatchRepository
	GradeHistoryRepo    repository.GradeHistoryRepository
	TierPolicyRepo      repository.TierPolicyRepository

	// Services
	AuthzService      *authz.Service
	TokenService      *service.TokenService
	TierPolicyService *service.TierPolicyService
	GradeService      *service.GradeService
	SettlementService *service.SettlementService
	PurchaseService   *service.PurchaseService
	AccountService    *service.AccountService
	ContentService    *service.ContentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("db is nil")
	}

	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		return nil, err
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
		Publisher:   newPublisher(cfg.RabbitMQ),
	}
	c.initRepositories()
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Publisher != nil {
		c.Publisher.Close()
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

func newPublisher(cfg config.RabbitMQConfig) events.Publisher {
	if !cfg.Enabled {
		return events.NoopPublisher{}
	}
	publisher, err := events.NewAMQPPublisher(cfg.URL, cfg.DialTimeout())
	if err != nil {
		logger.Warnw("provider_init_rabbitmq_failed", "error", err)
		return events.NoopPublisher{}
	}
	return publisher
}

func (c *Container) initRepositories() {
	db := c.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.BuyerRepo = repository.NewBuyerRepository(db)
	c.SellerRepo = repository.NewSellerRepository(db)
	c.ContentRepo = repository.NewContentRepository(db)
	c.PurchaseRepo = repository.NewPurchaseRepository(db)
	c.SettlementRepo = repository.NewSettlementRepository(db)
	c.SettlementBatchRepo = repository.NewSettlementBatchRepository(db)
	c.GradeHistoryRepo = repository.NewGradeHistoryRepository(db)
	c.TierPolicyRepo = repository.NewTierPolicyRepository(db)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}
	c.AuthzService = authzService

	location := c.Config.Grade.Location()
	c.TokenService = service.NewTokenService(c.Config.JWT, c.Config.UserJWT)
	c.TierPolicyService = service.NewTierPolicyService(c.TierPolicyRepo, c.Config.Grade.PolicyCacheTTL())
	if err := c.TierPolicyService.EnsureDefaults(); err != nil {
		logger.Errorw("provider_ensure_tier_policies_failed", "error", err)
		return err
	}
	c.GradeService = service.NewGradeService(
		c.BuyerRepo,
		c.SellerRepo,
		c.PurchaseRepo,
		c.SettlementRepo,
		c.GradeHistoryRepo,
		c.TierPolicyService,
		c.Publisher,
	)
	c.SettlementService = service.NewSettlementService(
		c.SellerRepo,
		c.SettlementRepo,
		c.SettlementBatchRepo,
		c.GradeService,
		c.Publisher,
		service.SettlementOptions{
			Location:      location,
			MaxPeriodDays: c.Config.Settlement.MaxPeriodDays,
			LockTTL:       c.Config.Settlement.LockTTL(),
		},
	)
	c.PurchaseService = service.NewPurchaseService(
		c.BuyerRepo,
		c.ContentRepo,
		c.PurchaseRepo,
		c.SettlementRepo,
		c.GradeService,
		c.SettlementService,
		location,
	)
	c.AccountService = service.NewAccountService(c.UserRepo, c.BuyerRepo, c.SellerRepo, c.TierPolicyService)
	c.ContentService = service.NewContentService(c.ContentRepo, c.SellerRepo)
	return nil
}
