package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/langportal/internal/service"
)

type activityRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	LaunchURL    string `json:"url"`
}

type activityUpdateRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnail_url"`
	LaunchURL    *string `json:"url"`
}

// toActivityPayload 定义练习类型的响应形态
func toActivityPayload(record service.ActivityRecord) gin.H {
	return gin.H{
		"id":                  record.ID,
		"name":                record.Name,
		"description":         record.Description,
		"thumbnail_url":       record.ThumbnailURL,
		"url":                 record.LaunchURL,
		"study_session_count": record.StudySessionCount,
	}
}

// ListActivities 返回分页练习类型列表
func (a *API) ListActivities(c *gin.Context) {
	page, limit, ok := parsePageQuery(c)
	if !ok {
		return
	}

	records, pagination, err := a.activities.List(page, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list study activities")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, toActivityPayload(record))
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": pagination})
}

// GetActivity 返回练习类型详情
func (a *API) GetActivity(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid study activity id")
		return
	}

	record, err := a.activities.Get(id)
	if err != nil {
		handleActivityError(c, err)
		return
	}

	c.JSON(http.StatusOK, toActivityPayload(*record))
}

// CreateActivity 新建练习类型
func (a *API) CreateActivity(c *gin.Context) {
	var req activityRequest
	if !bindJSON(c, &req, "invalid study activity payload") {
		return
	}

	activity, err := a.activities.Create(service.ActivityInput{
		Name:         req.Name,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		LaunchURL:    req.LaunchURL,
	})
	if err != nil {
		handleActivityError(c, err)
		return
	}

	record, err := a.activities.Get(activity.ID)
	if err != nil {
		handleActivityError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toActivityPayload(*record))
}

// UpdateActivity 部分更新练习类型
func (a *API) UpdateActivity(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid study activity id")
		return
	}

	var req activityUpdateRequest
	if !bindJSON(c, &req, "invalid study activity payload") {
		return
	}

	if _, err := a.activities.Update(id, service.ActivityUpdateInput{
		Name:         req.Name,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		LaunchURL:    req.LaunchURL,
	}); err != nil {
		handleActivityError(c, err)
		return
	}

	record, err := a.activities.Get(id)
	if err != nil {
		handleActivityError(c, err)
		return
	}

	c.JSON(http.StatusOK, toActivityPayload(*record))
}

// DeleteActivity 删除练习类型
func (a *API) DeleteActivity(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid study activity id")
		return
	}

	if err := a.activities.Delete(id); err != nil {
		handleActivityError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListActivitySessions 返回练习类型关联的学习会话，分页
func (a *API) ListActivitySessions(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid study activity id")
		return
	}

	if _, err := a.activities.Get(id); err != nil {
		handleActivityError(c, err)
		return
	}

	page, limit, ok := parsePageQuery(c)
	if !ok {
		return
	}

	records, pagination, err := a.sessions.List(page, limit, service.SessionFilter{ActivityID: id})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list activity study sessions")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, toSessionView(record))
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": pagination})
}

func handleActivityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		respondError(c, http.StatusNotFound, "Study activity not found")
	case errors.Is(err, service.ErrActivityInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrActivityDuplicate):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
