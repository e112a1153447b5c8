package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/langportal/internal/service"
)

// GetLastStudySession 返回最近一次会话，没有任何会话时返回 404
func (a *API) GetLastStudySession(c *gin.Context) {
	record, err := a.sessions.Last()
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			respondError(c, http.StatusNotFound, "No study session found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load last study session")
		return
	}

	c.JSON(http.StatusOK, toSessionView(*record))
}

// GetStudyProgress 返回学习进度统计
func (a *API) GetStudyProgress(c *gin.Context) {
	progress, err := a.dashboard.StudyProgress()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load study progress")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_words_studied":   progress.TotalWordsStudied,
		"total_available_words": progress.TotalAvailableWords,
	})
}

// GetQuickStats 返回首页速览统计
func (a *API) GetQuickStats(c *gin.Context) {
	stats, err := a.dashboard.QuickStats(time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load quick stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success_rate":         stats.SuccessRate,
		"total_study_sessions": stats.TotalStudySessions,
		"total_active_groups":  stats.TotalActiveGroups,
		"study_streak_days":    stats.StudyStreakDays,
	})
}
