package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edumarket/internal/authz"
	"github.com/edumarket/internal/cache"
	"github.com/edumarket/internal/config"
	adminhandlers "github.com/edumarket/internal/http/handlers/admin"
	publichandlers "github.com/edumarket/internal/http/handlers/public"
	"github.com/edumarket/internal/http/response"
	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "edm"
	}
	redisClient := cache.Client()
	purchaseRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:purchase", redisPrefix),
		WindowSeconds: cfg.Security.PurchaseRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.PurchaseRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.PurchaseRateLimit.BlockSeconds,
	}
	settlementRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:settlement", redisPrefix),
		WindowSeconds: cfg.Security.SettlementRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.SettlementRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.SettlementRateLimit.BlockSeconds,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/contents", publicHandler.ListContents)
			public.GET("/contents/:id", publicHandler.GetContent)
			public.GET("/tier-policies", publicHandler.ListTierPolicies)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("/user")
		user.Use(UserJWTAuthMiddleware(c.TokenService, c.UserRepo))
		{
			// 买家
			user.POST("/buyer", publicHandler.RegisterBuyer)
			user.GET("/buyer", publicHandler.GetBuyer)
			user.POST("/purchases/quote", publicHandler.QuotePurchase)
			user.POST("/purchases", RateLimitMiddleware(redisClient, purchaseRule, KeyByUser), publicHandler.CreatePurchase)
			user.GET("/purchases", publicHandler.ListPurchases)

			// 卖家
			user.POST("/seller", publicHandler.RegisterSeller)
			user.GET("/seller", publicHandler.GetSeller)
			user.PUT("/seller/bank", publicHandler.UpdateSellerBank)
			user.POST("/seller/contents", publicHandler.CreateSellerContent)
			user.GET("/seller/contents", publicHandler.ListSellerContents)
			user.GET("/seller/settlements", publicHandler.ListSellerSettlements)
			user.POST("/seller/settlement-batches", RateLimitMiddleware(redisClient, settlementRule, KeyByUser), publicHandler.RequestSettlementBatch)
			user.GET("/seller/settlement-batches", publicHandler.ListSellerBatches)
			user.GET("/seller/settlement-batches/:id", publicHandler.GetSellerBatch)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(c.TokenService, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/me", adminHandler.AdminMe)
			admin.GET("/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})

			// 结算批次
			admin.GET("/settlement-batches", adminHandler.AdminListSettlementBatches)
			admin.GET("/settlement-batches/:id", adminHandler.AdminGetSettlementBatch)
			admin.POST("/settlement-batches/:id/process", adminHandler.AdminProcessSettlementBatch)
			admin.POST("/settlement-batches/:id/complete", adminHandler.AdminCompleteSettlementBatch)
			admin.POST("/settlement-batches/:id/cancel", adminHandler.AdminCancelSettlementBatch)

			// 等级策略与定级
			admin.GET("/tier-policies/:subject_type", adminHandler.AdminGetTierPolicies)
			admin.PUT("/tier-policies/:subject_type", adminHandler.AdminReplaceTierPolicies)
			admin.GET("/grades/history", adminHandler.AdminListGradeHistory)
			admin.POST("/grades/recompute", adminHandler.AdminRecomputeGrades)
			admin.PUT("/buyers/:id/discount-rate", adminHandler.AdminSetBuyerDiscountRate)

			// 购买记录
			admin.GET("/purchases", adminHandler.AdminListPurchases)
			admin.GET("/purchases/:id", adminHandler.AdminGetPurchase)
			admin.POST("/purchases/:id/cancel", adminHandler.AdminCancelPurchase)

			// 课程审核
			admin.PUT("/contents/:id/status", adminHandler.AdminUpdateContentStatus)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

// deriveAdminPermissionModule 取 /admin/ 之后的首段作为模块名
func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 || segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
