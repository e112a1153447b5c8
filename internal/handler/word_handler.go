package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/langportal/internal/db"
	"github.com/langportal/internal/service"
)

type wordRequest struct {
	Thai      string `json:"thai"`
	English   string `json:"english"`
	Romanized string `json:"romanized"`
	IPA       string `json:"ipa"`
	Example   string `json:"example"`
}

type wordUpdateRequest struct {
	Thai      *string `json:"thai"`
	English   *string `json:"english"`
	Romanized *string `json:"romanized"`
	IPA       *string `json:"ipa"`
	Example   *string `json:"example"`
}

// toWordPayload 定义单词的响应形态，全部出口共用
func toWordPayload(word db.Word) gin.H {
	return gin.H{
		"id":            word.ID,
		"thai":          word.Thai,
		"english":       word.English,
		"romanized":     word.Romanized,
		"ipa":           word.IPA,
		"example":       word.Example,
		"correct_count": word.CorrectCount,
		"wrong_count":   word.WrongCount,
		"created_at":    word.CreatedAt.Format(time.RFC3339),
		"updated_at":    word.UpdatedAt.Format(time.RFC3339),
	}
}

// ListWords 返回分页单词列表，支持 search 模糊匹配
func (a *API) ListWords(c *gin.Context) {
	page, limit, ok := parsePageQuery(c)
	if !ok {
		return
	}

	words, pagination, err := a.words.List(page, limit, c.Query("search"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list words")
		return
	}

	items := make([]gin.H, 0, len(words))
	for _, word := range words {
		items = append(items, toWordPayload(word))
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": pagination})
}

// GetWord 返回单词详情及其所属词组
func (a *API) GetWord(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid word id")
		return
	}

	word, err := a.words.Get(id)
	if err != nil {
		handleWordError(c, err)
		return
	}

	groups, err := a.words.Groups(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load word groups")
		return
	}

	groupItems := make([]gin.H, 0, len(groups))
	for _, group := range groups {
		groupItems = append(groupItems, gin.H{"id": group.ID, "name": group.Name})
	}

	payload := toWordPayload(*word)
	payload["groups"] = groupItems
	c.JSON(http.StatusOK, payload)
}

// CreateWord 新建单词
func (a *API) CreateWord(c *gin.Context) {
	var req wordRequest
	if !bindJSON(c, &req, "invalid word payload") {
		return
	}

	word, err := a.words.Create(service.WordInput{
		Thai:      req.Thai,
		English:   req.English,
		Romanized: req.Romanized,
		IPA:       req.IPA,
		Example:   req.Example,
	})
	if err != nil {
		handleWordError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toWordPayload(*word))
}

// UpdateWord 部分更新单词
func (a *API) UpdateWord(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid word id")
		return
	}

	var req wordUpdateRequest
	if !bindJSON(c, &req, "invalid word payload") {
		return
	}

	word, err := a.words.Update(id, service.WordUpdateInput{
		Thai:      req.Thai,
		English:   req.English,
		Romanized: req.Romanized,
		IPA:       req.IPA,
		Example:   req.Example,
	})
	if err != nil {
		handleWordError(c, err)
		return
	}

	c.JSON(http.StatusOK, toWordPayload(*word))
}

// DeleteWord 删除单词
func (a *API) DeleteWord(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid word id")
		return
	}

	if err := a.words.Delete(id); err != nil {
		handleWordError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func handleWordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWordNotFound):
		respondError(c, http.StatusNotFound, "Word not found")
	case errors.Is(err, service.ErrWordInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWordDuplicate):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
