package service

import (
	"fmt"
	"math"
	"time"

	"github.com/langportal/internal/db"
	"gorm.io/gorm"
)

// 正确率统计的滚动窗口
const successRateWindow = 30 * 24 * time.Hour

// DashboardService 负责首页的聚合统计，全部为只读查询

type DashboardService struct {
	db *gorm.DB
}

// StudyProgress 汇总学习进度
type StudyProgress struct {
	TotalWordsStudied   int64
	TotalAvailableWords int64
}

// QuickStats 汇总首页速览数据
type QuickStats struct {
	SuccessRate        int
	TotalStudySessions int64
	TotalActiveGroups  int64
	StudyStreakDays    int
}

// NewDashboardService 构造 DashboardService
func NewDashboardService(gdb *gorm.DB) *DashboardService {
	return &DashboardService{db: gdb}
}

// StudyProgress 返回已学单词数与单词总数
// 已学 = 任一全局计数器大于零的单词
func (s *DashboardService) StudyProgress() (*StudyProgress, error) {
	var progress StudyProgress

	if err := s.db.Model(&db.Word{}).Count(&progress.TotalAvailableWords).Error; err != nil {
		return nil, fmt.Errorf("count words: %w", err)
	}
	if err := s.db.Model(&db.Word{}).
		Where("correct_count > 0 OR wrong_count > 0").
		Count(&progress.TotalWordsStudied).Error; err != nil {
		return nil, fmt.Errorf("count studied words: %w", err)
	}

	return &progress, nil
}

// QuickStats 返回正确率、会话总数、活跃词组数与连续学习天数
// now 由调用方传入，便于测试固定时间
func (s *DashboardService) QuickStats(now time.Time) (*QuickStats, error) {
	stats := &QuickStats{}

	// 正确率：30 天窗口内被复习过的计数行，无数据时为 0 而非 NaN
	windowStart := now.Add(-successRateWindow)
	var tally struct {
		Correct int64
		Wrong   int64
	}
	if err := s.db.Model(&db.WordReview{}).
		Where("last_reviewed >= ?", windowStart).
		Select("COALESCE(SUM(correct_count), 0) AS correct, COALESCE(SUM(wrong_count), 0) AS wrong").
		Take(&tally).Error; err != nil {
		return nil, fmt.Errorf("aggregate review window: %w", err)
	}
	if total := tally.Correct + tally.Wrong; total > 0 {
		stats.SuccessRate = int(math.Round(float64(tally.Correct) / float64(total) * 100))
	}

	if err := s.db.Model(&db.StudySession{}).Count(&stats.TotalStudySessions).Error; err != nil {
		return nil, fmt.Errorf("count study sessions: %w", err)
	}

	// 活跃词组 = 至少有一个关联会话的词组（存在性判断）
	if err := s.db.Model(&db.Group{}).
		Where("EXISTS (SELECT 1 FROM study_sessions WHERE study_sessions.group_id = groups.id AND study_sessions.deleted_at IS NULL)").
		Count(&stats.TotalActiveGroups).Error; err != nil {
		return nil, fmt.Errorf("count active groups: %w", err)
	}

	streak, err := s.streakDays(now)
	if err != nil {
		return nil, err
	}
	stats.StudyStreakDays = streak

	return stats, nil
}

// streakDays 从 now 所在日期向前走，统计连续有会话的自然日数
// 今天没有会话则连胜立即为 0
func (s *DashboardService) streakDays(now time.Time) (int, error) {
	var starts []time.Time
	if err := s.db.Model(&db.StudySession{}).
		Order("start_time DESC").
		Pluck("start_time", &starts).Error; err != nil {
		return 0, fmt.Errorf("list session start times: %w", err)
	}

	streak := 0
	current := dateOf(now)

	for _, start := range starts {
		day := dateOf(start)
		switch {
		case day.Equal(current):
			streak++
			current = current.AddDate(0, 0, -1)
		case day.After(current):
			// 同一天的更多会话，跳过
		default:
			// 出现缺口，连胜终止
			return streak, nil
		}
	}

	return streak, nil
}

// dateOf 将时间归一到本地时区的自然日零点，按日期而非时刻比较
func dateOf(t time.Time) time.Time {
	lt := t.Local()
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.Local)
}
