package db

import "gorm.io/gorm"

// Group 定义了词组模型，词与词组通过 WordGroup 关联
type Group struct {
	gorm.Model
	Name        string `gorm:"unique;not null"`
	Description string
}

// WordGroup 记录词与词组的关联
// WordID + GroupID 采用唯一索引，保证幂等；CreatedAt 即加入时间
// 无级联所有权：删除关联不影响词与词组本身
type WordGroup struct {
	gorm.Model
	WordID  uint  `gorm:"index;index:idx_word_group_unique,unique"`
	Word    Word  `gorm:"constraint:OnDelete:CASCADE"`
	GroupID uint  `gorm:"index:idx_word_group_unique,unique"`
	Group   Group `gorm:"constraint:OnDelete:CASCADE"`
}

// TableName 重写确保唯一索引作用到 word_id + group_id
func (WordGroup) TableName() string {
	return "word_groups"
}
