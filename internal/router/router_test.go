package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/langportal/internal/config"
	"github.com/langportal/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(
		&db.Word{},
		&db.Group{},
		&db.WordGroup{},
		&db.StudyActivity{},
		&db.StudySession{},
		&db.WordReview{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.AppConfig{
		ListenAddr:       ":0",
		GinMode:          gin.TestMode,
		UploadDir:        t.TempDir(),
		UploadURLPath:    "/static/uploads",
		CORSAllowOrigins: []string{"http://localhost:5173"},
	}
	return SetupRouter(gdb, cfg), gdb
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return payload
}

func seedSessionFixture(t *testing.T, gdb *gorm.DB) (word db.Word, group db.Group, activity db.StudyActivity, session db.StudySession) {
	t.Helper()
	word = db.Word{Thai: "สวัสดี", English: "hello", Romanized: "sawatdee", IPA: "sà.wàt.diː"}
	if err := gdb.Create(&word).Error; err != nil {
		t.Fatalf("failed to create word: %v", err)
	}
	group = db.Group{Name: "Greetings"}
	if err := gdb.Create(&group).Error; err != nil {
		t.Fatalf("failed to create group: %v", err)
	}
	activity = db.StudyActivity{Name: "Vocabulary Quiz", Description: "quiz"}
	if err := gdb.Create(&activity).Error; err != nil {
		t.Fatalf("failed to create activity: %v", err)
	}
	session = db.StudySession{GroupID: group.ID, StudyActivityID: activity.ID, StartTime: time.Now()}
	if err := gdb.Create(&session).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return word, group, activity, session
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	payload := decodeBody(t, w)
	if payload["status"] != "ok" {
		t.Fatalf("unexpected health payload: %v", payload)
	}
}

func TestReviewWordEndpoint(t *testing.T) {
	r, gdb := setupTestRouter(t)
	word, _, _, session := seedSessionFixture(t, gdb)

	path := fmt.Sprintf("/api/v1/study-sessions/%d/words/%d/review", session.ID, word.ID)

	w := doJSON(t, r, http.MethodPost, path, gin.H{"correct": true})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	payload := decodeBody(t, w)
	if payload["success"] != true {
		t.Fatalf("expected success true, got %v", payload)
	}
	if payload["correct"] != true {
		t.Fatalf("expected correct true, got %v", payload)
	}
	if uint(payload["word_id"].(float64)) != word.ID {
		t.Fatalf("unexpected word_id: %v", payload["word_id"])
	}
	if uint(payload["study_session_id"].(float64)) != session.ID {
		t.Fatalf("unexpected study_session_id: %v", payload["study_session_id"])
	}
	if _, ok := payload["created_at"].(string); !ok {
		t.Fatalf("expected created_at string, got %v", payload["created_at"])
	}

	// correct 缺失时 400
	w = doJSON(t, r, http.MethodPost, path, gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing correct, got %d", w.Code)
	}

	// correct=false 是合法输入，不能当作缺失
	w = doJSON(t, r, http.MethodPost, path, gin.H{"correct": false})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for correct=false, got %d: %s", w.Code, w.Body.String())
	}

	// 不存在的会话/单词
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/study-sessions/9999/words/%d/review", word.ID), gin.H{"correct": true})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing session, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/study-sessions/%d/words/9999/review", session.ID), gin.H{"correct": true})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing word, got %d", w.Code)
	}
}

func TestReviewAfterSessionEndConflicts(t *testing.T) {
	r, gdb := setupTestRouter(t)
	word, _, _, session := seedSessionFixture(t, gdb)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/study-sessions/%d/end", session.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on end, got %d: %s", w.Code, w.Body.String())
	}
	payload := decodeBody(t, w)
	if payload["end_time"] == nil {
		t.Fatalf("expected end_time set, got %v", payload)
	}

	// 重复结束
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/study-sessions/%d/end", session.ID), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second end, got %d", w.Code)
	}

	// 已结束的会话拒绝复习
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/study-sessions/%d/words/%d/review", session.ID, word.ID), gin.H{"correct": true})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for review after end, got %d", w.Code)
	}
}

func TestSessionViewPlaceholderNames(t *testing.T) {
	r, gdb := setupTestRouter(t)
	_, group, activity, session := seedSessionFixture(t, gdb)

	if err := gdb.Delete(&group).Error; err != nil {
		t.Fatalf("failed to delete group: %v", err)
	}
	if err := gdb.Delete(&activity).Error; err != nil {
		t.Fatalf("failed to delete activity: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/study-sessions/%d", session.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	payload := decodeBody(t, w)
	if payload["activity_name"] != "Unknown Activity" {
		t.Fatalf("expected placeholder activity name, got %v", payload["activity_name"])
	}
	if payload["group_name"] != "Unknown Group" {
		t.Fatalf("expected placeholder group name, got %v", payload["group_name"])
	}
}

func TestListStudySessionsEnvelope(t *testing.T) {
	r, gdb := setupTestRouter(t)
	seedSessionFixture(t, gdb)

	w := doJSON(t, r, http.MethodGet, "/api/v1/study-sessions?page=1&limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	payload := decodeBody(t, w)

	items, ok := payload["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected 1 item, got %v", payload["items"])
	}
	item := items[0].(map[string]interface{})
	for _, key := range []string{"id", "activity_name", "group_name", "start_time", "end_time", "review_items_count"} {
		if _, present := item[key]; !present {
			t.Fatalf("missing key %q in session item: %v", key, item)
		}
	}

	pagination, ok := payload["pagination"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing pagination: %v", payload)
	}
	if pagination["current_page"].(float64) != 1 || pagination["total_items"].(float64) != 1 {
		t.Fatalf("unexpected pagination: %v", pagination)
	}

	// 非数字分页参数是 400
	w = doJSON(t, r, http.MethodGet, "/api/v1/study-sessions?page=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad page, got %d", w.Code)
	}
}

func TestCreateStudySessionEndpoint(t *testing.T) {
	r, gdb := setupTestRouter(t)
	_, group, activity, _ := seedSessionFixture(t, gdb)

	w := doJSON(t, r, http.MethodPost, "/api/v1/study-sessions", gin.H{
		"group_id":          group.ID,
		"study_activity_id": activity.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	payload := decodeBody(t, w)
	if payload["group_name"] != "Greetings" || payload["activity_name"] != "Vocabulary Quiz" {
		t.Fatalf("unexpected session view: %v", payload)
	}
	if payload["end_time"] != nil {
		t.Fatalf("expected open session, got end_time %v", payload["end_time"])
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/study-sessions", gin.H{"group_id": group.ID})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing activity id, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/study-sessions", gin.H{
		"group_id":          9999,
		"study_activity_id": activity.ID,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing group, got %d", w.Code)
	}
}

func TestWordEndpoints(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/words", gin.H{
		"thai":      "แมว",
		"english":   "cat",
		"romanized": "maew",
		"ipa":       "mɛːw",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)
	id := created["id"].(float64)

	// 缺失必填字段
	w = doJSON(t, r, http.MethodPost, "/api/v1/words", gin.H{"thai": "หมา"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid word, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/words/%.0f", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	payload := decodeBody(t, w)
	if payload["thai"] != "แมว" {
		t.Fatalf("unexpected word: %v", payload)
	}
	if _, present := payload["groups"]; !present {
		t.Fatalf("expected groups in word detail: %v", payload)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/words/9999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/api/v1/words/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/words/%.0f", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/words/%.0f", id), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestGroupWordMembershipEndpoints(t *testing.T) {
	r, gdb := setupTestRouter(t)
	word, group, _, _ := seedSessionFixture(t, gdb)

	path := fmt.Sprintf("/api/v1/groups/%d/words", group.ID)

	w := doJSON(t, r, http.MethodPost, path, gin.H{"word_ids": []uint{word.ID}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	payload := decodeBody(t, w)
	if payload["added"].(float64) != 1 {
		t.Fatalf("expected 1 added, got %v", payload["added"])
	}

	// 幂等
	w = doJSON(t, r, http.MethodPost, path, gin.H{"word_ids": []uint{word.ID}})
	payload = decodeBody(t, w)
	if payload["added"].(float64) != 0 {
		t.Fatalf("expected 0 added on repeat, got %v", payload["added"])
	}

	w = doJSON(t, r, http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	payload = decodeBody(t, w)
	if items := payload["items"].([]interface{}); len(items) != 1 {
		t.Fatalf("expected 1 group word, got %d", len(items))
	}

	w = doJSON(t, r, http.MethodDelete, path, gin.H{"word_ids": []uint{word.ID}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on remove, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, path, nil)
	payload = decodeBody(t, w)
	if items := payload["items"].([]interface{}); len(items) != 0 {
		t.Fatalf("expected empty group, got %d items", len(items))
	}

	// 移除后重新入组
	w = doJSON(t, r, http.MethodPost, path, gin.H{"word_ids": []uint{word.ID}})
	payload = decodeBody(t, w)
	if payload["added"].(float64) != 1 {
		t.Fatalf("expected 1 added on re-add, got %v", payload["added"])
	}
	w = doJSON(t, r, http.MethodGet, path, nil)
	payload = decodeBody(t, w)
	if items := payload["items"].([]interface{}); len(items) != 1 {
		t.Fatalf("expected word back in group, got %d items", len(items))
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/groups/9999/words", gin.H{"word_ids": []uint{word.ID}})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing group, got %d", w.Code)
	}
}

func TestDuplicateNamesConflict(t *testing.T) {
	r, _ := setupTestRouter(t)

	body := gin.H{"thai": "แมว", "english": "cat", "romanized": "maew", "ipa": "mɛːw"}
	w := doJSON(t, r, http.MethodPost, "/api/v1/words", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)

	w = doJSON(t, r, http.MethodPost, "/api/v1/words", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate thai, got %d: %s", w.Code, w.Body.String())
	}

	// 删除后同名单词可以重建
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/words/%.0f", created["id"].(float64)), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/words", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on recreate, got %d: %s", w.Code, w.Body.String())
	}

	groupBody := gin.H{"name": "Greetings"}
	w = doJSON(t, r, http.MethodPost, "/api/v1/groups", groupBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/groups", groupBody)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate group name, got %d", w.Code)
	}

	activityBody := gin.H{"name": "Vocabulary Quiz", "description": "quiz"}
	w = doJSON(t, r, http.MethodPost, "/api/v1/study-activities", activityBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/study-activities", activityBody)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate activity name, got %d", w.Code)
	}
}

func TestDashboardEndpoints(t *testing.T) {
	r, gdb := setupTestRouter(t)

	// 没有会话时 last_study_session 返回 404
	w := doJSON(t, r, http.MethodGet, "/api/v1/dashboard/last_study_session", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with no sessions, got %d", w.Code)
	}

	seedSessionFixture(t, gdb)

	w = doJSON(t, r, http.MethodGet, "/api/v1/dashboard/last_study_session", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/dashboard/study-progress", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	payload := decodeBody(t, w)
	if payload["total_available_words"].(float64) != 1 {
		t.Fatalf("unexpected progress: %v", payload)
	}
	if payload["total_words_studied"].(float64) != 0 {
		t.Fatalf("expected no studied words yet: %v", payload)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/dashboard/quick-stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	payload = decodeBody(t, w)
	for _, key := range []string{"success_rate", "total_study_sessions", "total_active_groups", "study_streak_days"} {
		if _, present := payload[key]; !present {
			t.Fatalf("missing key %q in quick stats: %v", key, payload)
		}
	}
	if payload["total_study_sessions"].(float64) != 1 {
		t.Fatalf("expected 1 session, got %v", payload["total_study_sessions"])
	}
	if payload["study_streak_days"].(float64) != 1 {
		t.Fatalf("expected streak 1, got %v", payload["study_streak_days"])
	}
}

func TestAdminResetEndpoints(t *testing.T) {
	r, gdb := setupTestRouter(t)
	word, _, _, session := seedSessionFixture(t, gdb)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/study-sessions/%d/words/%d/review", session.ID, word.ID), gin.H{"correct": true})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/reset-history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	payload := decodeBody(t, w)
	if payload["success"] != true {
		t.Fatalf("expected success true, got %v", payload)
	}

	// 历史清空，词库保留
	var sessionCount, wordCount int64
	if err := gdb.Model(&db.StudySession{}).Count(&sessionCount).Error; err != nil {
		t.Fatalf("failed to count sessions: %v", err)
	}
	if err := gdb.Model(&db.Word{}).Count(&wordCount).Error; err != nil {
		t.Fatalf("failed to count words: %v", err)
	}
	if sessionCount != 0 || wordCount != 1 {
		t.Fatalf("unexpected state after reset-history: sessions=%d words=%d", sessionCount, wordCount)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/full-reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if err := gdb.Model(&db.Word{}).Count(&wordCount).Error; err != nil {
		t.Fatalf("failed to count words: %v", err)
	}
	if wordCount != 0 {
		t.Fatalf("expected empty word table after full-reset, got %d", wordCount)
	}
}

func TestCORSHeaders(t *testing.T) {
	r, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/words", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected CORS header for allowed origin, got %q", got)
	}
}
