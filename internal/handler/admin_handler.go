package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResetHistory 清空学习历史：复习计数、会话与单词全局计数器
// 词库本身（单词/词组/练习类型）保持不动
func (a *API) ResetHistory(c *gin.Context) {
	if err := a.admin.ResetHistory(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to reset study history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Study history has been reset",
	})
}

// FullReset 清空全部数据，破坏半径远大于 ResetHistory，因此单独暴露
func (a *API) FullReset(c *gin.Context) {
	if err := a.admin.FullReset(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to reset the system",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "System has been fully reset",
	})
}
