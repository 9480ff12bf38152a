package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/edumarket/internal/authz"
	"github.com/edumarket/internal/config"
	"github.com/edumarket/internal/constants"
	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/models"
	"github.com/edumarket/internal/provider"
	"github.com/edumarket/internal/repository"
	"github.com/edumarket/internal/service"

	"github.com/shopspring/decimal"
)

type demoStaffMember struct {
	username    string
	displayName string
	role        string
}

var demoStaff = []demoStaffMember{
	{username: "finance", displayName: "财务审核", role: authz.RoleFinance},
	{username: "operator", displayName: "内容运营", role: authz.RoleOperator},
}

type demoContent struct {
	title string
	price int64
	days  int
}

func main() {
	cfg := config.Load()
	logOptions := cfg.Log.ToLoggerOptions()
	logOptions.Component = "seed"
	logger.Init(cfg.Server.Mode, logOptions)
	stdLog := logger.StdLogger()

	db, err := models.NewDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false)
	if err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	defer func() { _ = models.CloseDB(db) }()

	if err := models.AutoMigrate(db); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 容器初始化时会写入默认等级规则与内置角色
	c, err := provider.NewContainer(cfg, db)
	if err != nil {
		stdLog.Fatalf("Failed to init container: %v", err)
	}
	defer c.Close()

	admin, err := models.EnsureSuperAdmin(db, "root")
	if err != nil {
		stdLog.Fatalf("Failed to ensure super admin: %v", err)
	}
	staffTokens := map[string]string{}
	for _, staff := range demoStaff {
		member, created, err := c.AdminRepo.EnsureStaff(staff.username, staff.displayName)
		if err != nil {
			stdLog.Fatalf("Failed to ensure staff %s: %v", staff.username, err)
		}
		if err := c.AuthzService.SetAdminRoles(member.ID, []string{staff.role}); err != nil {
			stdLog.Fatalf("Failed to assign role %s: %v", staff.role, err)
		}
		if created {
			stdLog.Printf("Created staff: %s (role=%s)", staff.username, staff.role)
		}
		token, _, err := c.TokenService.GenerateAdminJWT(member)
		if err != nil {
			stdLog.Fatalf("Failed to sign staff token: %v", err)
		}
		staffTokens[staff.username] = token
	}

	buyerUser := ensureUser(c, "buyer@edumarket.local", "Demo Buyer")
	sellerUser := ensureUser(c, "seller@edumarket.local", "Demo Seller")

	if _, err := c.AccountService.RegisterBuyer(buyerUser.ID); err != nil && !errors.Is(err, service.ErrAccountExists) {
		stdLog.Fatalf("Failed to register buyer: %v", err)
	}
	if _, err := c.AccountService.RegisterSeller(sellerUser.ID, service.SellerBankInput{
		BankName:      "Demo Bank",
		BankAccount:   "6222-0000-0000-0001",
		AccountHolder: "Demo Seller",
	}); err != nil && !errors.Is(err, service.ErrAccountExists) {
		stdLog.Fatalf("Failed to register seller: %v", err)
	}
	seller, err := c.AccountService.GetSellerByUserID(sellerUser.ID)
	if err != nil {
		stdLog.Fatalf("Failed to load seller: %v", err)
	}

	_, total, err := c.ContentService.ListBySeller(seller.ID, repository.ContentListFilter{Page: 1, PageSize: 1})
	if err != nil {
		stdLog.Fatalf("Failed to list contents: %v", err)
	}
	if total == 0 {
		loc := cfg.Grade.Location()
		today := time.Now().In(loc)
		start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
		contents := []demoContent{
			{title: "Go 并发编程入门", price: 29000},
			{title: "数据库事务与隔离级别", price: 45000},
			{title: "限时：分布式系统设计", price: 99000, days: 30},
		}
		for _, item := range contents {
			input := service.CreateContentInput{
				Title:        item.title,
				Description:  item.title + " 演示课程",
				Price:        decimal.NewFromInt(item.price),
				AlwaysOnSale: item.days == 0,
			}
			if item.days > 0 {
				end := start.AddDate(0, 0, item.days)
				input.SaleStartDate = &start
				input.SaleEndDate = &end
			}
			content, err := c.ContentService.Create(seller.ID, input)
			if err != nil {
				stdLog.Printf("Failed to create content %s: %v", item.title, err)
				continue
			}
			if _, err := c.ContentService.UpdateStatus(content.ID, constants.ContentStatusApproved); err != nil {
				stdLog.Printf("Failed to approve content %s: %v", item.title, err)
				continue
			}
			stdLog.Printf("Created content: %s (id=%d)", item.title, content.ID)
		}
	} else {
		stdLog.Printf("Seller contents already exist, skipped")
	}

	// 开发环境用 token，登录流程在外部身份系统
	adminToken, _, err := c.TokenService.GenerateAdminJWT(admin)
	if err != nil {
		stdLog.Fatalf("Failed to sign admin token: %v", err)
	}
	buyerToken, _, err := c.TokenService.GenerateUserJWT(buyerUser)
	if err != nil {
		stdLog.Fatalf("Failed to sign buyer token: %v", err)
	}
	sellerToken, _, err := c.TokenService.GenerateUserJWT(sellerUser)
	if err != nil {
		stdLog.Fatalf("Failed to sign seller token: %v", err)
	}
	fmt.Println("admin  token:", adminToken)
	fmt.Println("buyer  token:", buyerToken)
	fmt.Println("seller token:", sellerToken)
	for _, staff := range demoStaff {
		fmt.Printf("%s token: %s\n", staff.username, staffTokens[staff.username])
	}
}

func ensureUser(c *provider.Container, email, name string) *models.User {
	stdLog := logger.StdLogger()
	user, err := c.UserRepo.GetByEmail(email)
	if err != nil {
		stdLog.Fatalf("Failed to load user %s: %v", email, err)
	}
	if user != nil {
		return user
	}
	user = &models.User{
		Email:       email,
		DisplayName: name,
		Locale:      "zh-CN",
		Status:      constants.UserStatusActive,
	}
	if err := c.UserRepo.Create(user); err != nil {
		stdLog.Fatalf("Failed to create user %s: %v", email, err)
	}
	stdLog.Printf("Created user: %s", email)
	return user
}
