package db

import "gorm.io/gorm"

// StudyActivity 定义了可复用的练习类型，例如词汇测验、打字练习
// ThumbnailURL 为卡片缩略图，LaunchURL 为前端启动练习的入口地址
type StudyActivity struct {
	gorm.Model
	Name         string `gorm:"unique;not null"`
	Description  string
	ThumbnailURL string
	LaunchURL    string
}
