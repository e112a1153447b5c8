package db

import "gorm.io/gorm"

// Word 定义了词汇模型
// Thai 为泰文原词，唯一；Romanized/IPA 辅助发音，Example 为示例句
// CorrectCount/WrongCount 是全局生命周期计数器，只允许复习记录与管理重置两条写路径修改，
// 任何时刻都应等于该词所有会话级 WordReview 计数之和
type Word struct {
	gorm.Model
	Thai         string `gorm:"unique;not null"`
	English      string
	Romanized    string
	IPA          string
	Example      string
	CorrectCount int
	WrongCount   int
}
