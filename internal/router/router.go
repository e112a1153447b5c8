package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/langportal/internal/config"
	"github.com/langportal/internal/handler"
	"gorm.io/gorm"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	// React SPA 跑在独立域名/端口，需要放行跨域
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowOrigins
	r.Use(cors.New(corsConfig))

	// 静态文件服务（练习类型缩略图等上传内容）
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	api := handler.NewAPI(gdb, cfg.UploadDir, cfg.UploadURLPath)

	r.GET("/health", api.HealthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/words", api.ListWords)
		v1.POST("/words", api.CreateWord)
		v1.GET("/words/:id", api.GetWord)
		v1.PATCH("/words/:id", api.UpdateWord)
		v1.DELETE("/words/:id", api.DeleteWord)

		v1.GET("/groups", api.ListGroups)
		v1.POST("/groups", api.CreateGroup)
		v1.GET("/groups/:id", api.GetGroup)
		v1.PATCH("/groups/:id", api.UpdateGroup)
		v1.DELETE("/groups/:id", api.DeleteGroup)
		v1.GET("/groups/:id/words", api.ListGroupWords)
		v1.POST("/groups/:id/words", api.AddGroupWords)
		v1.DELETE("/groups/:id/words", api.RemoveGroupWords)
		v1.GET("/groups/:id/study-sessions", api.ListGroupSessions)

		v1.GET("/study-activities", api.ListActivities)
		v1.POST("/study-activities", api.CreateActivity)
		v1.GET("/study-activities/:id", api.GetActivity)
		v1.PATCH("/study-activities/:id", api.UpdateActivity)
		v1.DELETE("/study-activities/:id", api.DeleteActivity)
		v1.GET("/study-activities/:id/study-sessions", api.ListActivitySessions)
		v1.POST("/study-activities/:id/thumbnail", api.UploadActivityThumbnail)

		v1.GET("/study-sessions", api.ListStudySessions)
		v1.POST("/study-sessions", api.CreateStudySession)
		v1.GET("/study-sessions/:id", api.GetStudySession)
		v1.POST("/study-sessions/:id/end", api.EndStudySession)
		v1.GET("/study-sessions/:id/words", api.ListSessionWords)
		v1.GET("/study-sessions/:id/stats", api.GetSessionStats)
		v1.POST("/study-sessions/:id/words/:word_id/review", api.ReviewWord)

		v1.GET("/dashboard/last_study_session", api.GetLastStudySession)
		v1.GET("/dashboard/study-progress", api.GetStudyProgress)
		v1.GET("/dashboard/quick-stats", api.GetQuickStats)

		v1.POST("/reset-history", api.ResetHistory)
		v1.POST("/full-reset", api.FullReset)
	}

	return r
}
