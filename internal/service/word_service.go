package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/langportal/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	// ErrWordNotFound 在指定单词不存在时返回
	ErrWordNotFound = errors.New("word not found")
	// ErrWordInvalid 当必填字段缺失时返回
	ErrWordInvalid = errors.New("invalid word input")
	// ErrWordDuplicate 当泰文与既有单词冲突时返回
	ErrWordDuplicate = errors.New("word already exists")
)

// WordService 负责词汇的增删改查
// 全局计数器 CorrectCount/WrongCount 不在这里修改，写路径见 StudySessionService.RecordReview

type WordService struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
}

// WordInput 定义创建单词时的字段
type WordInput struct {
	Thai      string
	English   string
	Romanized string
	IPA       string
	Example   string
}

// WordUpdateInput 定义部分更新时可选的字段，nil 表示不修改
type WordUpdateInput struct {
	Thai      *string
	English   *string
	Romanized *string
	IPA       *string
	Example   *string
}

// NewWordService 构造 WordService，用户输入中的 HTML 一律剥离后落库
func NewWordService(gdb *gorm.DB) *WordService {
	return &WordService{db: gdb, sanitizer: bluemonday.StrictPolicy()}
}

func (s *WordService) clean(raw string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(raw))
}

// List 返回分页的单词列表，按泰文升序，search 同时匹配泰文/英文/罗马音
func (s *WordService) List(page, limit int, search string) ([]db.Word, Pagination, error) {
	page, limit = normalizePageQuery(page, limit)

	query := s.db.Model(&db.Word{})
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		like := fmt.Sprintf("%%%s%%", trimmed)
		query = query.Where("thai LIKE ? OR english LIKE ? OR romanized LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("count words: %w", err)
	}

	var words []db.Word
	if err := query.
		Order("thai ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&words).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("list words: %w", err)
	}

	return words, paginationFor(total, page, limit), nil
}

// Get 根据 ID 获取单词
func (s *WordService) Get(id uint) (*db.Word, error) {
	var word db.Word
	if err := s.db.First(&word, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWordNotFound
		}
		return nil, fmt.Errorf("get word: %w", err)
	}
	return &word, nil
}

// Groups 返回单词所属的词组，按名称升序
func (s *WordService) Groups(wordID uint) ([]db.Group, error) {
	var groups []db.Group
	if err := s.db.Model(&db.Group{}).
		Joins("JOIN word_groups ON word_groups.group_id = groups.id AND word_groups.deleted_at IS NULL").
		Where("word_groups.word_id = ?", wordID).
		Order("groups.name ASC").
		Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list word groups: %w", err)
	}
	return groups, nil
}

// Create 新建单词
func (s *WordService) Create(input WordInput) (*db.Word, error) {
	word := db.Word{
		Thai:      s.clean(input.Thai),
		English:   s.clean(input.English),
		Romanized: s.clean(input.Romanized),
		IPA:       s.clean(input.IPA),
		Example:   s.clean(input.Example),
	}

	if word.Thai == "" || word.English == "" || word.Romanized == "" || word.IPA == "" {
		return nil, fmt.Errorf("%w: thai, english, romanized and ipa are required", ErrWordInvalid)
	}

	if err := s.db.Create(&word).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: thai %q is taken", ErrWordDuplicate, word.Thai)
		}
		return nil, fmt.Errorf("create word: %w", err)
	}
	return &word, nil
}

// Update 部分更新单词，只覆盖调用方提供的字段
func (s *WordService) Update(id uint, input WordUpdateInput) (*db.Word, error) {
	var word db.Word
	if err := s.db.First(&word, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWordNotFound
		}
		return nil, fmt.Errorf("find word: %w", err)
	}

	if input.Thai != nil {
		word.Thai = s.clean(*input.Thai)
	}
	if input.English != nil {
		word.English = s.clean(*input.English)
	}
	if input.Romanized != nil {
		word.Romanized = s.clean(*input.Romanized)
	}
	if input.IPA != nil {
		word.IPA = s.clean(*input.IPA)
	}
	if input.Example != nil {
		word.Example = s.clean(*input.Example)
	}

	if word.Thai == "" || word.English == "" || word.Romanized == "" || word.IPA == "" {
		return nil, fmt.Errorf("%w: thai, english, romanized and ipa are required", ErrWordInvalid)
	}

	if err := s.db.Save(&word).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: thai %q is taken", ErrWordDuplicate, word.Thai)
		}
		return nil, fmt.Errorf("update word: %w", err)
	}
	return &word, nil
}

// Delete 删除单词，并在同一事务内清理其词组关联与复习计数行，避免悬挂引用
// 必须硬删除：软删除行会继续占用 thai 唯一索引，同名单词将无法重建
func (s *WordService) Delete(id uint) error {
	var word db.Word
	if err := s.db.First(&word, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWordNotFound
		}
		return fmt.Errorf("find word: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("word_id = ?", id).Delete(&db.WordGroup{}).Error; err != nil {
			return fmt.Errorf("delete word group links: %w", err)
		}
		if err := tx.Unscoped().Where("word_id = ?", id).Delete(&db.WordReview{}).Error; err != nil {
			return fmt.Errorf("delete word reviews: %w", err)
		}
		if err := tx.Unscoped().Delete(&word).Error; err != nil {
			return fmt.Errorf("delete word: %w", err)
		}
		return nil
	})
}
