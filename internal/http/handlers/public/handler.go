package public

import "github.com/edumarket/internal/provider"

// Handler 前台接口处理器入口
// 说明：公开课程浏览与登录用户的买家/卖家接口。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
