package service

import (
	"errors"
	"strings"
	"time"

	"github.com/edumarket/internal/config"
	"github.com/edumarket/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken token 无效
var ErrInvalidToken = errors.New("无效的 token")

// AdminClaims 管理员 JWT 声明
type AdminClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// UserClaims 用户 JWT 声明
type UserClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// TokenService 签发与校验 JWT
// 登录流程在外部身份系统，这里只负责校验以及为种子数据签发开发用 token。
type TokenService struct {
	adminCfg config.JWTConfig
	userCfg  config.JWTConfig
}

// NewTokenService 创建 token 服务
func NewTokenService(adminCfg, userCfg config.JWTConfig) *TokenService {
	return &TokenService{adminCfg: adminCfg, userCfg: userCfg}
}

// GenerateAdminJWT 签发管理员 token
func (s *TokenService) GenerateAdminJWT(admin *models.Admin) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(resolveExpireHours(s.adminCfg))
	claims := AdminClaims{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.adminCfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// GenerateUserJWT 签发用户 token
func (s *TokenService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(resolveExpireHours(s.userCfg))
	claims := UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.userCfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseAdminJWT 解析管理员 token
func (s *TokenService) ParseAdminJWT(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	if err := parseHS256(tokenString, s.adminCfg.SecretKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseUserJWT 解析用户 token
func (s *TokenService) ParseUserJWT(tokenString string) (*UserClaims, error) {
	claims := &UserClaims{}
	if err := parseHS256(tokenString, s.userCfg.SecretKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func parseHS256(tokenString, secret string, claims jwt.Claims) error {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func resolveExpireHours(cfg config.JWTConfig) time.Duration {
	if cfg.ExpireHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(cfg.ExpireHours) * time.Hour
}
