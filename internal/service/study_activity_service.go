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
	// ErrActivityNotFound 在指定练习类型不存在时返回
	ErrActivityNotFound = errors.New("study activity not found")
	// ErrActivityInvalid 当必填字段缺失时返回
	ErrActivityInvalid = errors.New("invalid study activity input")
	// ErrActivityDuplicate 当名称与既有练习类型冲突时返回
	ErrActivityDuplicate = errors.New("study activity already exists")
)

// StudyActivityService 负责练习类型的增删改查

type StudyActivityService struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
}

// ActivityInput 定义创建练习类型时的字段
type ActivityInput struct {
	Name         string
	Description  string
	ThumbnailURL string
	LaunchURL    string
}

// ActivityUpdateInput 定义部分更新时可选的字段，nil 表示不修改
type ActivityUpdateInput struct {
	Name         *string
	Description  *string
	ThumbnailURL *string
	LaunchURL    *string
}

// ActivityRecord 是练习类型列表/详情的查询行
type ActivityRecord struct {
	ID                uint
	Name              string
	Description       string
	ThumbnailURL      string
	LaunchURL         string
	StudySessionCount int64
}

// NewStudyActivityService 构造 StudyActivityService
func NewStudyActivityService(gdb *gorm.DB) *StudyActivityService {
	return &StudyActivityService{db: gdb, sanitizer: bluemonday.StrictPolicy()}
}

func (s *StudyActivityService) clean(raw string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(raw))
}

const activitySelect = `study_activities.id, study_activities.name, study_activities.description,
study_activities.thumbnail_url, study_activities.launch_url,
(SELECT COUNT(*) FROM study_sessions
 WHERE study_sessions.study_activity_id = study_activities.id
   AND study_sessions.deleted_at IS NULL) AS study_session_count`

// List 返回分页的练习类型列表，按名称升序，附带会话数
func (s *StudyActivityService) List(page, limit int) ([]ActivityRecord, Pagination, error) {
	page, limit = normalizePageQuery(page, limit)

	var total int64
	if err := s.db.Model(&db.StudyActivity{}).Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("count study activities: %w", err)
	}

	var records []ActivityRecord
	if err := s.db.Model(&db.StudyActivity{}).
		Select(activitySelect).
		Order("study_activities.name ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&records).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("list study activities: %w", err)
	}

	return records, paginationFor(total, page, limit), nil
}

// Get 根据 ID 获取练习类型
func (s *StudyActivityService) Get(id uint) (*ActivityRecord, error) {
	var record ActivityRecord
	if err := s.db.Model(&db.StudyActivity{}).
		Select(activitySelect).
		Where("study_activities.id = ?", id).
		Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("get study activity: %w", err)
	}
	return &record, nil
}

// Create 新建练习类型
func (s *StudyActivityService) Create(input ActivityInput) (*db.StudyActivity, error) {
	activity := db.StudyActivity{
		Name:         s.clean(input.Name),
		Description:  s.clean(input.Description),
		ThumbnailURL: strings.TrimSpace(input.ThumbnailURL),
		LaunchURL:    strings.TrimSpace(input.LaunchURL),
	}

	if activity.Name == "" || activity.Description == "" {
		return nil, fmt.Errorf("%w: name and description are required", ErrActivityInvalid)
	}

	if err := s.db.Create(&activity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: name %q is taken", ErrActivityDuplicate, activity.Name)
		}
		return nil, fmt.Errorf("create study activity: %w", err)
	}
	return &activity, nil
}

// Update 部分更新练习类型
func (s *StudyActivityService) Update(id uint, input ActivityUpdateInput) (*db.StudyActivity, error) {
	var activity db.StudyActivity
	if err := s.db.First(&activity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("find study activity: %w", err)
	}

	if input.Name != nil {
		activity.Name = s.clean(*input.Name)
	}
	if input.Description != nil {
		activity.Description = s.clean(*input.Description)
	}
	if input.ThumbnailURL != nil {
		activity.ThumbnailURL = strings.TrimSpace(*input.ThumbnailURL)
	}
	if input.LaunchURL != nil {
		activity.LaunchURL = strings.TrimSpace(*input.LaunchURL)
	}

	if activity.Name == "" || activity.Description == "" {
		return nil, fmt.Errorf("%w: name and description are required", ErrActivityInvalid)
	}

	if err := s.db.Save(&activity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: name %q is taken", ErrActivityDuplicate, activity.Name)
		}
		return nil, fmt.Errorf("update study activity: %w", err)
	}
	return &activity, nil
}

// Delete 删除练习类型；既有会话保留 study_activity_id，由会话视图兜底显示占位名称。
// 必须硬删除：软删除行会继续占用 name 唯一索引，同名练习类型将无法重建
func (s *StudyActivityService) Delete(id uint) error {
	var activity db.StudyActivity
	if err := s.db.First(&activity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		return fmt.Errorf("find study activity: %w", err)
	}

	if err := s.db.Unscoped().Delete(&activity).Error; err != nil {
		return fmt.Errorf("delete study activity: %w", err)
	}
	return nil
}

// SetThumbnail 保存上传后生成的缩略图地址
func (s *StudyActivityService) SetThumbnail(id uint, url string) (*db.StudyActivity, error) {
	var activity db.StudyActivity
	if err := s.db.First(&activity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("find study activity: %w", err)
	}

	activity.ThumbnailURL = strings.TrimSpace(url)
	if err := s.db.Save(&activity).Error; err != nil {
		return nil, fmt.Errorf("update study activity thumbnail: %w", err)
	}
	return &activity, nil
}
