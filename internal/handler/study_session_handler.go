package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/langportal/internal/service"
)

const (
	unknownActivityName = "Unknown Activity"
	unknownGroupName    = "Unknown Group"
)

type createSessionRequest struct {
	GroupID         uint `json:"group_id"`
	StudyActivityID uint `json:"study_activity_id"`
}

type reviewRequest struct {
	// 指针区分"未提供"与 false
	Correct *bool `json:"correct"`
}

// toSessionView 定义会话的响应形态，列表与详情共用
// 关联的练习类型/词组缺失时回退到占位名称而非报错
func toSessionView(record service.SessionRecord) gin.H {
	activityName := record.ActivityName
	if activityName == "" {
		activityName = unknownActivityName
	}
	groupName := record.GroupName
	if groupName == "" {
		groupName = unknownGroupName
	}

	var endTime interface{}
	if record.EndTime != nil {
		endTime = record.EndTime.Format(time.RFC3339)
	}

	return gin.H{
		"id":                 record.ID,
		"activity_name":      activityName,
		"group_name":         groupName,
		"start_time":         record.StartTime.Format(time.RFC3339),
		"end_time":           endTime,
		"review_items_count": record.ReviewItemsCount,
	}
}

// ListStudySessions 返回分页会话列表，activityId/groupId 过滤条件取 AND
func (a *API) ListStudySessions(c *gin.Context) {
	page, limit, ok := parsePageQuery(c)
	if !ok {
		return
	}

	activityID, ok := parseUintQuery(c, "activityId")
	if !ok {
		return
	}
	groupID, ok := parseUintQuery(c, "groupId")
	if !ok {
		return
	}

	records, pagination, err := a.sessions.List(page, limit, service.SessionFilter{
		ActivityID: activityID,
		GroupID:    groupID,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list study sessions")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, toSessionView(record))
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": pagination})
}

// GetStudySession 返回会话详情，形态与列表项一致
func (a *API) GetStudySession(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid study session id")
		return
	}

	record, err := a.sessions.Get(id)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionView(*record))
}

// CreateStudySession 针对词组开启一次练习会话
func (a *API) CreateStudySession(c *gin.Context) {
	var req createSessionRequest
	if !bindJSON(c, &req, "invalid study session payload") {
		return
	}
	if req.GroupID == 0 || req.StudyActivityID == 0 {
		respondError(c, http.StatusBadRequest, "group_id and study_activity_id are required")
		return
	}

	session, err := a.sessions.Create(req.GroupID, req.StudyActivityID)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	record, err := a.sessions.Get(session.ID)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSessionView(*record))
}

// EndStudySession 结束会话，重复结束返回 409
func (a *API) EndStudySession(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid study session id")
		return
	}

	if _, err := a.sessions.End(id); err != nil {
		handleSessionError(c, err)
		return
	}

	record, err := a.sessions.Get(id)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionView(*record))
}

// ListSessionWords 返回会话内复习过的单词及其会话内累计计数
func (a *API) ListSessionWords(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid study session id")
		return
	}

	page, limit, ok := parsePageQuery(c)
	if !ok {
		return
	}

	records, pagination, err := a.sessions.Words(id, page, limit)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, gin.H{
			"thai":          record.Thai,
			"romanized":     record.Romanized,
			"english":       record.English,
			"correct_count": record.CorrectCount,
			"wrong_count":   record.WrongCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": pagination})
}

// GetSessionStats 返回会话的作答统计
func (a *API) GetSessionStats(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid study session id")
		return
	}

	stats, err := a.sessions.Stats(id)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_questions":   stats.TotalQuestions,
		"correct_answers":   stats.CorrectAnswers,
		"incorrect_answers": stats.IncorrectAnswers,
		"accuracy":          stats.Accuracy,
	})
}

// ReviewWord 记录会话内对单词的一次复习，成功返回 201
func (a *API) ReviewWord(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid study session id")
		return
	}

	wordID, err := parseUintParam(c, "word_id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid word id")
		return
	}

	var req reviewRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	if req.Correct == nil {
		respondError(c, http.StatusBadRequest, "correct field is required")
		return
	}

	result, err := a.sessions.RecordReview(sessionID, wordID, *req.Correct)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":          true,
		"word_id":          result.WordID,
		"study_session_id": result.StudySessionID,
		"correct":          result.Correct,
		"created_at":       result.RecordedAt.Format(time.RFC3339),
	})
}

func handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "Study session not found")
	case errors.Is(err, service.ErrWordNotFound):
		respondError(c, http.StatusNotFound, "Word not found")
	case errors.Is(err, service.ErrGroupNotFound):
		respondError(c, http.StatusNotFound, "Group not found")
	case errors.Is(err, service.ErrActivityNotFound):
		respondError(c, http.StatusNotFound, "Study activity not found")
	case errors.Is(err, service.ErrSessionEnded):
		respondError(c, http.StatusConflict, "Study session has already ended")
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
