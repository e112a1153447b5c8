package db

import (
	"time"

	"gorm.io/gorm"
)

// StudySession 记录一次针对词组的练习会话
// EndTime 在会话开启期间为 nil，结束时只允许设置一次；结束后拒绝新的复习
type StudySession struct {
	gorm.Model
	GroupID         uint `gorm:"index"`
	Group           Group
	StudyActivityID uint `gorm:"index"`
	StudyActivity   StudyActivity
	StartTime       time.Time `gorm:"index"`
	EndTime         *time.Time
}

// WordReview 是会话内单词的复习计数行
// StudySessionID + WordID 采用唯一索引：同一会话内对同一词的重复复习在该行累加，
// 绝不插入重复行；LastReviewed 记录最近一次复习时间，供统计窗口使用
type WordReview struct {
	gorm.Model
	StudySessionID uint `gorm:"index;index:idx_session_word_unique,unique"`
	StudySession   StudySession
	WordID         uint `gorm:"index:idx_session_word_unique,unique"`
	Word           Word
	CorrectCount   int
	WrongCount     int
	LastReviewed   *time.Time
}
