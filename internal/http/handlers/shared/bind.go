package shared

import "github.com/gin-gonic/gin"

// BindOptionalJSON 请求体为空时跳过绑定，保留结构体零值。
func BindOptionalJSON(c *gin.Context, dest interface{}) error {
	if c.Request == nil || c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dest)
}
