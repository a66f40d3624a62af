package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/j-neeley/DawgPound/pkg/response"
)

// pathID 解析路径参数中的资源 ID 并规范为小写形式。
// 非法 UUID 按资源不存在处理，交给模块自己的错误映射写响应。
func pathID(c *gin.Context, key string, notFound error, fail func(*gin.Context, error)) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(key)))
	if err != nil {
		fail(c, notFound)
		return "", false
	}
	return id.String(), true
}

// bodyIDs 就地规范请求体/查询参数中的 ID 字段；空值跳过，非法时写入 400
func bodyIDs(c *gin.Context, ids ...*string) bool {
	for _, p := range ids {
		if p == nil || strings.TrimSpace(*p) == "" {
			continue
		}
		id, err := uuid.Parse(strings.TrimSpace(*p))
		if err != nil {
			response.BadRequest(c, 10001, "Invalid identifier")
			return false
		}
		*p = id.String()
	}
	return true
}

// bodyIDList 同 bodyIDs，作用于 ID 切片
func bodyIDList(c *gin.Context, ids []string) bool {
	ptrs := make([]*string, len(ids))
	for i := range ids {
		ptrs[i] = &ids[i]
	}
	return bodyIDs(c, ptrs...)
}
