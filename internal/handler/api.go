package handler

import (
	"github.com/langportal/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	words      *service.WordService
	groups     *service.GroupService
	activities *service.StudyActivityService
	sessions   *service.StudySessionService
	dashboard  *service.DashboardService
	admin      *service.AdminService
	uploadDir  string
	uploadURL  string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, uploadDir, uploadURL string) *API {
	return &API{
		db:         gdb,
		words:      service.NewWordService(gdb),
		groups:     service.NewGroupService(gdb),
		activities: service.NewStudyActivityService(gdb),
		sessions:   service.NewStudySessionService(gdb),
		dashboard:  service.NewDashboardService(gdb),
		admin:      service.NewAdminService(gdb),
		uploadDir:  uploadDir,
		uploadURL:  uploadURL,
	}
}
