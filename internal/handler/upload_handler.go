package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadActivityThumbnail 处理练习类型缩略图上传
// 文件落盘到上传目录，可访问地址写回 StudyActivity.ThumbnailURL
func (a *API) UploadActivityThumbnail(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid study activity id")
		return
	}

	if _, err := a.activities.Get(id); err != nil {
		handleActivityError(c, err)
		return
	}

	file, err := c.FormFile("thumbnail")
	if err != nil {
		respondError(c, http.StatusBadRequest, "thumbnail file is required")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "only image uploads are allowed")
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to prepare upload directory")
		return
	}

	// 生成唯一文件名
	ext := filepath.Ext(file.Filename)
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	filePath := filepath.Join(a.uploadDir, newFilename)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save thumbnail")
		return
	}

	fileURL := fmt.Sprintf("%s/%s", strings.TrimRight(a.uploadURL, "/"), newFilename)
	record, err := a.activities.SetThumbnail(id, fileURL)
	if err != nil {
		handleActivityError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"thumbnail_url": record.ThumbnailURL,
	})
}
