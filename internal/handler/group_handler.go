package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/langportal/internal/service"
)

type groupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type groupUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type groupWordsRequest struct {
	WordIDs []uint `json:"word_ids"`
}

// toGroupPayload 定义词组的响应形态
func toGroupPayload(record service.GroupRecord) gin.H {
	return gin.H{
		"id":                  record.ID,
		"name":                record.Name,
		"description":         record.Description,
		"word_count":          record.WordCount,
		"study_session_count": record.StudySessionCount,
	}
}

// ListGroups 返回分页词组列表
func (a *API) ListGroups(c *gin.Context) {
	page, limit, ok := parsePageQuery(c)
	if !ok {
		return
	}

	records, pagination, err := a.groups.List(page, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list groups")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, toGroupPayload(record))
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": pagination})
}

// GetGroup 返回词组详情
func (a *API) GetGroup(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid group id")
		return
	}

	record, err := a.groups.Get(id)
	if err != nil {
		handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupPayload(*record))
}

// CreateGroup 新建词组
func (a *API) CreateGroup(c *gin.Context) {
	var req groupRequest
	if !bindJSON(c, &req, "invalid group payload") {
		return
	}

	group, err := a.groups.Create(service.GroupInput{Name: req.Name, Description: req.Description})
	if err != nil {
		handleGroupError(c, err)
		return
	}

	record, err := a.groups.Get(group.ID)
	if err != nil {
		handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toGroupPayload(*record))
}

// UpdateGroup 部分更新词组
func (a *API) UpdateGroup(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid group id")
		return
	}

	var req groupUpdateRequest
	if !bindJSON(c, &req, "invalid group payload") {
		return
	}

	if _, err := a.groups.Update(id, service.GroupUpdateInput{
		Name:        req.Name,
		Description: req.Description,
	}); err != nil {
		handleGroupError(c, err)
		return
	}

	record, err := a.groups.Get(id)
	if err != nil {
		handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupPayload(*record))
}

// DeleteGroup 删除词组并清理成员关联，组内单词保持可查
func (a *API) DeleteGroup(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid group id")
		return
	}

	if err := a.groups.Delete(id); err != nil {
		handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListGroupWords 返回词组内的单词，分页
func (a *API) ListGroupWords(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid group id")
		return
	}

	page, limit, ok := parsePageQuery(c)
	if !ok {
		return
	}

	words, pagination, err := a.groups.Words(id, page, limit)
	if err != nil {
		handleGroupError(c, err)
		return
	}

	items := make([]gin.H, 0, len(words))
	for _, word := range words {
		items = append(items, toWordPayload(word))
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": pagination})
}

// AddGroupWords 将单词加入词组，重复加入保持幂等
func (a *API) AddGroupWords(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid group id")
		return
	}

	var req groupWordsRequest
	if !bindJSON(c, &req, "invalid word ids payload") {
		return
	}

	added, err := a.groups.AddWords(id, req.WordIDs)
	if err != nil {
		handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "added": added})
}

// RemoveGroupWords 将单词移出词组
func (a *API) RemoveGroupWords(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid group id")
		return
	}

	var req groupWordsRequest
	if !bindJSON(c, &req, "invalid word ids payload") {
		return
	}

	if err := a.groups.RemoveWords(id, req.WordIDs); err != nil {
		handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListGroupSessions 返回词组关联的学习会话，分页
func (a *API) ListGroupSessions(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid group id")
		return
	}

	if _, err := a.groups.Get(id); err != nil {
		handleGroupError(c, err)
		return
	}

	page, limit, ok := parsePageQuery(c)
	if !ok {
		return
	}

	records, pagination, err := a.sessions.List(page, limit, service.SessionFilter{GroupID: id})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list group study sessions")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, toSessionView(record))
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": pagination})
}

func handleGroupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		respondError(c, http.StatusNotFound, "Group not found")
	case errors.Is(err, service.ErrGroupInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrGroupDuplicate):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
