package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/langportal/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrGroupNotFound 在指定词组不存在时返回
	ErrGroupNotFound = errors.New("group not found")
	// ErrGroupInvalid 当词组名称缺失时返回
	ErrGroupInvalid = errors.New("invalid group input")
	// ErrGroupDuplicate 当名称与既有词组冲突时返回
	ErrGroupDuplicate = errors.New("group already exists")
)

// GroupService 负责词组及其成员关系的管理
// 词与词组互不拥有：删除词组只清理关联行，单词本身保持可查

type GroupService struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
}

// GroupInput 定义创建词组时的字段
type GroupInput struct {
	Name        string
	Description string
}

// GroupUpdateInput 定义部分更新时可选的字段，nil 表示不修改
type GroupUpdateInput struct {
	Name        *string
	Description *string
}

// GroupRecord 是词组列表/详情的查询行，计数通过子查询解析
type GroupRecord struct {
	ID                uint
	Name              string
	Description       string
	WordCount         int64
	StudySessionCount int64
}

// NewGroupService 构造 GroupService
func NewGroupService(gdb *gorm.DB) *GroupService {
	return &GroupService{db: gdb, sanitizer: bluemonday.StrictPolicy()}
}

func (s *GroupService) clean(raw string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(raw))
}

const groupSelect = `groups.id, groups.name, groups.description,
(SELECT COUNT(*) FROM word_groups
 WHERE word_groups.group_id = groups.id AND word_groups.deleted_at IS NULL) AS word_count,
(SELECT COUNT(*) FROM study_sessions
 WHERE study_sessions.group_id = groups.id AND study_sessions.deleted_at IS NULL) AS study_session_count`

// List 返回分页的词组列表，按名称升序，附带单词数与会话数
func (s *GroupService) List(page, limit int) ([]GroupRecord, Pagination, error) {
	page, limit = normalizePageQuery(page, limit)

	var total int64
	if err := s.db.Model(&db.Group{}).Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("count groups: %w", err)
	}

	var records []GroupRecord
	if err := s.db.Model(&db.Group{}).
		Select(groupSelect).
		Order("groups.name ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&records).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("list groups: %w", err)
	}

	return records, paginationFor(total, page, limit), nil
}

// Get 根据 ID 获取词组详情
func (s *GroupService) Get(id uint) (*GroupRecord, error) {
	var record GroupRecord
	if err := s.db.Model(&db.Group{}).
		Select(groupSelect).
		Where("groups.id = ?", id).
		Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &record, nil
}

// Create 新建词组
func (s *GroupService) Create(input GroupInput) (*db.Group, error) {
	group := db.Group{
		Name:        s.clean(input.Name),
		Description: s.clean(input.Description),
	}

	if group.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrGroupInvalid)
	}

	if err := s.db.Create(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: name %q is taken", ErrGroupDuplicate, group.Name)
		}
		return nil, fmt.Errorf("create group: %w", err)
	}
	return &group, nil
}

// Update 部分更新词组
func (s *GroupService) Update(id uint, input GroupUpdateInput) (*db.Group, error) {
	var group db.Group
	if err := s.db.First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("find group: %w", err)
	}

	if input.Name != nil {
		group.Name = s.clean(*input.Name)
	}
	if input.Description != nil {
		group.Description = s.clean(*input.Description)
	}

	if group.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrGroupInvalid)
	}

	if err := s.db.Save(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: name %q is taken", ErrGroupDuplicate, group.Name)
		}
		return nil, fmt.Errorf("update group: %w", err)
	}
	return &group, nil
}

// Delete 删除词组，并在同一事务内清理成员关联；
// 既有会话保留 group_id，由会话视图兜底显示占位名称。
// 必须硬删除：软删除行会继续占用 name 唯一索引，同名词组将无法重建
func (s *GroupService) Delete(id uint) error {
	var group db.Group
	if err := s.db.First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("find group: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("group_id = ?", id).Delete(&db.WordGroup{}).Error; err != nil {
			return fmt.Errorf("delete group word links: %w", err)
		}
		if err := tx.Unscoped().Delete(&group).Error; err != nil {
			return fmt.Errorf("delete group: %w", err)
		}
		return nil
	})
}

// AddWords 将若干单词加入词组，已存在的关联保持不变（幂等）
// 不存在的 wordID 会被静默跳过，返回实际新建的关联数
func (s *GroupService) AddWords(groupID uint, wordIDs []uint) (int64, error) {
	if err := s.db.First(&db.Group{}, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrGroupNotFound
		}
		return 0, fmt.Errorf("load group: %w", err)
	}

	var existing []uint
	if err := s.db.Model(&db.Word{}).
		Where("id IN ?", wordIDs).
		Pluck("id", &existing).Error; err != nil {
		return 0, fmt.Errorf("load words: %w", err)
	}
	if len(existing) == 0 {
		return 0, nil
	}

	links := make([]db.WordGroup, 0, len(existing))
	for _, wordID := range existing {
		links = append(links, db.WordGroup{WordID: wordID, GroupID: groupID})
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "word_id"}, {Name: "group_id"}},
		DoNothing: true,
	}).Create(&links)
	if result.Error != nil {
		return 0, fmt.Errorf("add words to group: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// RemoveWords 将若干单词移出词组
// 关联行必须硬删除：软删除行会继续占用复合唯一索引，导致同一单词无法重新入组
func (s *GroupService) RemoveWords(groupID uint, wordIDs []uint) error {
	if err := s.db.First(&db.Group{}, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("load group: %w", err)
	}

	if len(wordIDs) == 0 {
		return nil
	}

	if err := s.db.Unscoped().
		Where("group_id = ? AND word_id IN ?", groupID, wordIDs).
		Delete(&db.WordGroup{}).Error; err != nil {
		return fmt.Errorf("remove words from group: %w", err)
	}
	return nil
}

// Words 返回词组内的单词，按泰文升序，分页
func (s *GroupService) Words(groupID uint, page, limit int) ([]db.Word, Pagination, error) {
	if err := s.db.First(&db.Group{}, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Pagination{}, ErrGroupNotFound
		}
		return nil, Pagination{}, fmt.Errorf("load group: %w", err)
	}

	page, limit = normalizePageQuery(page, limit)

	var total int64
	if err := s.db.Model(&db.WordGroup{}).
		Where("group_id = ?", groupID).
		Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("count group words: %w", err)
	}

	var words []db.Word
	if err := s.db.Model(&db.Word{}).
		Joins("JOIN word_groups ON word_groups.word_id = words.id AND word_groups.deleted_at IS NULL").
		Where("word_groups.group_id = ?", groupID).
		Order("words.thai ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&words).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("list group words: %w", err)
	}

	return words, paginationFor(total, page, limit), nil
}
