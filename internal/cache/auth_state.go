package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/edumarket/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// 鉴权主体类型
const (
	AuthKindUser  = "user"
	AuthKindAdmin = "admin"
)

// AuthState 鉴权快照，避免每个请求都回查用户/管理员表
// TokenInvalidBefore 为 Unix 秒，0 表示未设置。
type AuthState struct {
	Kind               string `json:"kind"`
	SubjectID          uint   `json:"subject_id"`
	Status             string `json:"status,omitempty"`
	IsSuper            bool   `json:"is_super,omitempty"`
	TokenVersion       uint64 `json:"token_version"`
	TokenInvalidBefore int64  `json:"token_invalid_before"`
}

// IssuedBeforeInvalidation 判断签发时间是否早于失效时间点
func (s *AuthState) IssuedBeforeInvalidation(issuedAt time.Time) bool {
	if s == nil || s.TokenInvalidBefore <= 0 {
		return false
	}
	return issuedAt.Unix() < s.TokenInvalidBefore
}

func authStateKey(kind string, id uint) string {
	return fmt.Sprintf("auth:%s:%d", kind, id)
}

// UserAuthState 从用户构建快照
func UserAuthState(user *models.User) *AuthState {
	if user == nil {
		return nil
	}
	return &AuthState{
		Kind:               AuthKindUser,
		SubjectID:          user.ID,
		Status:             user.Status,
		TokenVersion:       user.TokenVersion,
		TokenInvalidBefore: unixOrZero(user.TokenInvalidBefore),
	}
}

// AdminAuthState 从管理员构建快照
func AdminAuthState(admin *models.Admin) *AuthState {
	if admin == nil {
		return nil
	}
	return &AuthState{
		Kind:               AuthKindAdmin,
		SubjectID:          admin.ID,
		IsSuper:            admin.IsSuper,
		TokenVersion:       admin.TokenVersion,
		TokenInvalidBefore: unixOrZero(admin.TokenInvalidBefore),
	}
}

// GetAuthState 读取鉴权快照
func GetAuthState(ctx context.Context, kind string, id uint) (*AuthState, bool, error) {
	if id == 0 {
		return nil, false, nil
	}
	var state AuthState
	hit, err := GetJSON(ctx, authStateKey(kind, id), &state)
	if err != nil || !hit {
		return nil, false, err
	}
	return &state, true, nil
}

// SetAuthState 写入鉴权快照
func SetAuthState(ctx context.Context, state *AuthState) error {
	if state == nil || state.SubjectID == 0 {
		return nil
	}
	return SetJSON(ctx, authStateKey(state.Kind, state.SubjectID), state, authStateCacheTTL)
}

// DelAuthState 删除鉴权快照
func DelAuthState(ctx context.Context, kind string, id uint) error {
	if id == 0 {
		return nil
	}
	return Del(ctx, authStateKey(kind, id))
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}
