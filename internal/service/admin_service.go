package service

import (
	"fmt"

	"github.com/langportal/internal/db"
	"gorm.io/gorm"
)

// AdminService 提供两档不可逆的清理操作
// ResetHistory 只清学习历史，FullReset 连词库一起清空，两者都是单事务：要么全部生效要么全不生效

type AdminService struct {
	db *gorm.DB
}

// NewAdminService 构造 AdminService
func NewAdminService(gdb *gorm.DB) *AdminService {
	return &AdminService{db: gdb}
}

func purge(tx *gorm.DB, model interface{}) error {
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error
}

// ResetHistory 删除全部复习计数与会话，并把所有单词的全局计数器清零
// 单词、词组与练习类型保持不动
func (s *AdminService) ResetHistory() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := purge(tx, &db.WordReview{}); err != nil {
			return fmt.Errorf("delete word reviews: %w", err)
		}
		if err := purge(tx, &db.StudySession{}); err != nil {
			return fmt.Errorf("delete study sessions: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Model(&db.Word{}).
			Updates(map[string]interface{}{"correct_count": 0, "wrong_count": 0}).Error; err != nil {
			return fmt.Errorf("reset word counters: %w", err)
		}
		return nil
	})
}

// FullReset 在清空学习历史的基础上，删除全部练习类型、词组关联、词组与单词
func (s *AdminService) FullReset() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, step := range []struct {
			name  string
			model interface{}
		}{
			{"word reviews", &db.WordReview{}},
			{"study sessions", &db.StudySession{}},
			{"study activities", &db.StudyActivity{}},
			{"word group links", &db.WordGroup{}},
			{"groups", &db.Group{}},
			{"words", &db.Word{}},
		} {
			if err := purge(tx, step.model); err != nil {
				return fmt.Errorf("delete %s: %w", step.name, err)
			}
		}
		return nil
	})
}
