package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/langportal/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrSessionNotFound 在指定学习会话不存在时返回
	ErrSessionNotFound = errors.New("study session not found")
	// ErrSessionEnded 在会话已结束后继续写入时返回
	ErrSessionEnded = errors.New("study session already ended")
)

// StudySessionService 负责学习会话的生命周期、复习记录与关联查询
// 复习计数行与单词全局计数器必须在同一事务内更新，两者要么都成功要么都失败

type StudySessionService struct {
	db *gorm.DB
}

// SessionFilter 描述会话列表的过滤条件，零值表示不过滤，条件之间取 AND
type SessionFilter struct {
	ActivityID uint
	GroupID    uint
}

// SessionRecord 是会话列表/详情的查询行
// ActivityName/GroupName 通过 LEFT JOIN 解析，关联缺失时为空字符串，由视图层兜底
type SessionRecord struct {
	ID               uint
	StartTime        time.Time
	EndTime          *time.Time
	ActivityName     string
	GroupName        string
	ReviewItemsCount int64
}

// SessionWordRecord 是会话内单词的聚合行，计数为该词在本会话内的累计值
type SessionWordRecord struct {
	Thai         string
	Romanized    string
	English      string
	CorrectCount int
	WrongCount   int
}

// SessionStats 汇总单个会话的作答统计
type SessionStats struct {
	TotalQuestions   int
	CorrectAnswers   int
	IncorrectAnswers int
	Accuracy         float64
}

// ReviewResult 是一次复习记录的确认回执
type ReviewResult struct {
	WordID         uint
	StudySessionID uint
	Correct        bool
	RecordedAt     time.Time
}

// NewStudySessionService 构造 StudySessionService
func NewStudySessionService(gdb *gorm.DB) *StudySessionService {
	return &StudySessionService{db: gdb}
}

const sessionSelect = `study_sessions.id, study_sessions.start_time, study_sessions.end_time,
study_activities.name AS activity_name, groups.name AS group_name,
(SELECT COUNT(*) FROM word_reviews
 WHERE word_reviews.study_session_id = study_sessions.id
   AND word_reviews.deleted_at IS NULL) AS review_items_count`

func (s *StudySessionService) sessionQuery() *gorm.DB {
	return s.db.Model(&db.StudySession{}).
		Select(sessionSelect).
		Joins("LEFT JOIN study_activities ON study_activities.id = study_sessions.study_activity_id AND study_activities.deleted_at IS NULL").
		Joins("LEFT JOIN groups ON groups.id = study_sessions.group_id AND groups.deleted_at IS NULL")
}

func applySessionFilter(query *gorm.DB, filter SessionFilter) *gorm.DB {
	if filter.ActivityID != 0 {
		query = query.Where("study_sessions.study_activity_id = ?", filter.ActivityID)
	}
	if filter.GroupID != 0 {
		query = query.Where("study_sessions.group_id = ?", filter.GroupID)
	}
	return query
}

// List 返回分页的会话列表，按开始时间倒序
func (s *StudySessionService) List(page, limit int, filter SessionFilter) ([]SessionRecord, Pagination, error) {
	page, limit = normalizePageQuery(page, limit)

	var total int64
	if err := applySessionFilter(s.db.Model(&db.StudySession{}), filter).Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("count study sessions: %w", err)
	}

	var records []SessionRecord
	if err := applySessionFilter(s.sessionQuery(), filter).
		Order("study_sessions.start_time DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&records).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("list study sessions: %w", err)
	}

	return records, paginationFor(total, page, limit), nil
}

// Get 返回单个会话，形态与列表项一致
func (s *StudySessionService) Get(id uint) (*SessionRecord, error) {
	var record SessionRecord
	if err := s.sessionQuery().Where("study_sessions.id = ?", id).Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get study session: %w", err)
	}
	return &record, nil
}

// Last 返回最近开始的会话，没有任何会话时返回 ErrSessionNotFound
func (s *StudySessionService) Last() (*SessionRecord, error) {
	var record SessionRecord
	if err := s.sessionQuery().Order("study_sessions.start_time DESC").Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get last study session: %w", err)
	}
	return &record, nil
}

// Create 针对词组开启一次练习会话，开始时间取服务器当前时间
func (s *StudySessionService) Create(groupID, activityID uint) (*db.StudySession, error) {
	if err := s.db.First(&db.Group{}, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("load group: %w", err)
	}
	if err := s.db.First(&db.StudyActivity{}, activityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("load study activity: %w", err)
	}

	session := db.StudySession{
		GroupID:         groupID,
		StudyActivityID: activityID,
		StartTime:       time.Now(),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("create study session: %w", err)
	}
	return &session, nil
}

// End 结束会话，EndTime 只允许设置一次
func (s *StudySessionService) End(id uint) (*db.StudySession, error) {
	var session db.StudySession
	if err := s.db.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load study session: %w", err)
	}

	if session.EndTime != nil {
		return nil, ErrSessionEnded
	}

	now := time.Now()
	session.EndTime = &now
	if err := s.db.Save(&session).Error; err != nil {
		return nil, fmt.Errorf("end study session: %w", err)
	}
	return &session, nil
}

// RecordReview 记录会话内对单词的一次复习
// 计数行按 (study_session_id, word_id) 幂等累加，单词全局计数器在同一事务内镜像递增；
// 自增使用数据库内表达式，避免读改写竞态丢失计数
func (s *StudySessionService) RecordReview(sessionID, wordID uint, correct bool) (*ReviewResult, error) {
	now := time.Now()

	column := "wrong_count"
	if correct {
		column = "correct_count"
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var session db.StudySession
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("load study session: %w", err)
		}
		if session.EndTime != nil {
			return ErrSessionEnded
		}

		if err := tx.First(&db.Word{}, wordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWordNotFound
			}
			return fmt.Errorf("load word: %w", err)
		}

		review := db.WordReview{
			StudySessionID: sessionID,
			WordID:         wordID,
			LastReviewed:   &now,
		}
		if correct {
			review.CorrectCount = 1
		} else {
			review.WrongCount = 1
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "study_session_id"}, {Name: "word_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				column:          gorm.Expr(column + " + 1"),
				"last_reviewed": now,
				"updated_at":    now,
			}),
		}).Create(&review).Error; err != nil {
			return fmt.Errorf("upsert word review: %w", err)
		}

		if err := tx.Model(&db.Word{}).
			Where("id = ?", wordID).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error; err != nil {
			return fmt.Errorf("update word counters: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ReviewResult{
		WordID:         wordID,
		StudySessionID: sessionID,
		Correct:        correct,
		RecordedAt:     now,
	}, nil
}

// Words 返回会话内复习过的单词及其会话内累计计数，分页
func (s *StudySessionService) Words(sessionID uint, page, limit int) ([]SessionWordRecord, Pagination, error) {
	if err := s.db.First(&db.StudySession{}, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Pagination{}, ErrSessionNotFound
		}
		return nil, Pagination{}, fmt.Errorf("load study session: %w", err)
	}

	page, limit = normalizePageQuery(page, limit)

	var total int64
	if err := s.db.Model(&db.WordReview{}).
		Where("study_session_id = ?", sessionID).
		Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("count session words: %w", err)
	}

	var records []SessionWordRecord
	if err := s.db.Model(&db.WordReview{}).
		Where("word_reviews.study_session_id = ?", sessionID).
		Select("words.thai, words.romanized, words.english, word_reviews.correct_count, word_reviews.wrong_count").
		Joins("JOIN words ON words.id = word_reviews.word_id AND words.deleted_at IS NULL").
		Order("words.thai ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&records).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("list session words: %w", err)
	}

	return records, paginationFor(total, page, limit), nil
}

// Stats 汇总单个会话的作答数与正确率
func (s *StudySessionService) Stats(sessionID uint) (*SessionStats, error) {
	if err := s.db.First(&db.StudySession{}, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load study session: %w", err)
	}

	var tally struct {
		Correct int
		Wrong   int
	}
	if err := s.db.Model(&db.WordReview{}).
		Where("study_session_id = ?", sessionID).
		Select("COALESCE(SUM(correct_count), 0) AS correct, COALESCE(SUM(wrong_count), 0) AS wrong").
		Take(&tally).Error; err != nil {
		return nil, fmt.Errorf("aggregate session stats: %w", err)
	}

	stats := &SessionStats{
		TotalQuestions:   tally.Correct + tally.Wrong,
		CorrectAnswers:   tally.Correct,
		IncorrectAnswers: tally.Wrong,
	}
	if stats.TotalQuestions > 0 {
		stats.Accuracy = float64(stats.CorrectAnswers) / float64(stats.TotalQuestions) * 100
	}
	return stats, nil
}
