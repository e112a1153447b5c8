package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// parsePageQuery 读取 page/limit 查询参数，缺省返回 0 交由服务端归一化；
// 非数字输入视为校验失败
func parsePageQuery(c *gin.Context) (page, limit int, ok bool) {
	page, ok = parseIntQuery(c, "page")
	if !ok {
		return 0, 0, false
	}
	limit, ok = parseIntQuery(c, "limit")
	if !ok {
		return 0, 0, false
	}
	return page, limit, true
}

func parseIntQuery(c *gin.Context, key string) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid %s parameter", key))
		return 0, false
	}
	return value, true
}

func parseUintQuery(c *gin.Context, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid %s parameter", key))
		return 0, false
	}
	return uint(value), true
}
