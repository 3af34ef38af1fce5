package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medlearn-service/internal/app"
	"medlearn-service/internal/domain"
	"medlearn-service/internal/infra/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	store.AddCollege(domain.College{ID: "c1", Name: "AIIMS Delhi"})

	live := app.NewLiveBoards()
	boards := memory.NewBoardCache(app.NewBoardBuilder(store), time.Minute)
	router := NewRouter(
		app.NewContentService(store),
		app.NewQuizService(store, store, boards, live),
		app.NewAccountService(store, nil),
		nil,
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, store
}

func doJSON(t *testing.T, method, url string, body any, wantStatus int, out any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d (body %s)", method, url, resp.StatusCode, wantStatus, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode response %s: %v", raw, err)
		}
	}
}

func createTopic(t *testing.T, base string) domain.Topic {
	t.Helper()
	var subject domain.Subject
	doJSON(t, http.MethodPost, base+"/subjects", map[string]string{"name": "Physiology"}, http.StatusCreated, &subject)
	var chapter domain.Chapter
	doJSON(t, http.MethodPost, base+"/subjects/"+subject.ID+"/chapters", map[string]string{"name": "Cardiovascular"}, http.StatusCreated, &chapter)
	var topic domain.Topic
	doJSON(t, http.MethodPost, base+"/chapters/"+chapter.ID+"/topics", map[string]string{"name": "Cardiac Cycle"}, http.StatusCreated, &topic)
	return topic
}

func uploadQuestions(t *testing.T, base, topicID string) []domain.MCQ {
	t.Helper()
	mcqs := make([]map[string]any, 0, 10)
	for i := 0; i < 10; i++ {
		mcqs = append(mcqs, map[string]any{
			"question":      fmt.Sprintf("Question %d?", i+1),
			"options":       map[string]string{"A": "a", "B": "b", "C": "c", "D": "d", "E": "e"},
			"correctAnswer": "B",
			"explanation":   "b",
		})
	}
	var created struct {
		MCQs []domain.MCQ `json:"mcqs"`
	}
	doJSON(t, http.MethodPost, base+"/topics/"+topicID+"/mcqs", map[string]any{"mcqs": mcqs}, http.StatusCreated, &created)
	if len(created.MCQs) != 10 {
		t.Fatalf("expected 10 mcqs, got %d", len(created.MCQs))
	}
	return created.MCQs
}

func TestCurriculumEndpoints(t *testing.T) {
	server, _ := newTestServer(t)
	topic := createTopic(t, server.URL)

	var got domain.Topic
	doJSON(t, http.MethodGet, server.URL+"/topics/"+topic.ID, nil, http.StatusOK, &got)
	if got.Name != "Cardiac Cycle" {
		t.Fatalf("unexpected topic: %+v", got)
	}

	doJSON(t, http.MethodPut, server.URL+"/topics/"+topic.ID, map[string]string{"name": "Cardiac Cycle II"}, http.StatusOK, &got)
	if got.Name != "Cardiac Cycle II" {
		t.Fatalf("rename failed: %+v", got)
	}

	doJSON(t, http.MethodGet, server.URL+"/topics/does-not-exist", nil, http.StatusNotFound, nil)
	doJSON(t, http.MethodPost, server.URL+"/subjects", map[string]string{"name": "  "}, http.StatusBadRequest, nil)
	doJSON(t, http.MethodPost, server.URL+"/subjects/missing/chapters", map[string]string{"name": "Thorax"}, http.StatusNotFound, nil)
}

func TestUploadAndMergedContentEndpoints(t *testing.T) {
	server, _ := newTestServer(t)
	topic := createTopic(t, server.URL)
	base := server.URL + "/topics/" + topic.ID

	var uploaded struct {
		Steps []domain.Step `json:"steps"`
	}
	doJSON(t, http.MethodPost, base+"/uploads", map[string]any{
		"steps": []map[string]any{{"step": 1, "content": "a"}},
	}, http.StatusCreated, &uploaded)
	if len(uploaded.Steps) != 1 {
		t.Fatalf("unexpected merged view: %+v", uploaded.Steps)
	}

	doJSON(t, http.MethodPost, base+"/uploads", map[string]any{
		"steps": []map[string]any{{"step": 1, "content": "b"}, {"step": 2, "content": "c"}},
	}, http.StatusCreated, &uploaded)
	if len(uploaded.Steps) != 2 || string(uploaded.Steps[0].Content) != `"b"` {
		t.Fatalf("latest upload must win: %+v", uploaded.Steps)
	}

	var merged struct {
		Steps []domain.Step `json:"steps"`
	}
	doJSON(t, http.MethodGet, base+"/content", nil, http.StatusOK, &merged)
	if len(merged.Steps) != 2 {
		t.Fatalf("unexpected content: %+v", merged.Steps)
	}

	doJSON(t, http.MethodPost, base+"/uploads", map[string]any{
		"steps": []map[string]any{{"content": "no step"}},
	}, http.StatusBadRequest, nil)

	doJSON(t, http.MethodDelete, base+"/uploads", nil, http.StatusOK, nil)
	doJSON(t, http.MethodGet, base+"/content", nil, http.StatusOK, &merged)
	if len(merged.Steps) != 0 {
		t.Fatalf("uploads not cleared: %+v", merged.Steps)
	}
}

func TestAnswerAndLeaderboardEndpoints(t *testing.T) {
	server, store := newTestServer(t)
	topic := createTopic(t, server.URL)
	base := server.URL + "/topics/" + topic.ID
	mcqs := uploadQuestions(t, server.URL, topic.ID)

	if err := store.CreateUser(context.Background(), domain.User{ID: "u1", Phone: "+910000000001", Name: "Asha", CollegeID: "c1"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	var result struct {
		Response    domain.Response    `json:"response"`
		Leaderboard domain.Leaderboard `json:"leaderboard"`
	}
	doJSON(t, http.MethodPost, base+"/answers", map[string]string{
		"userId": "u1", "questionId": mcqs[0].ID, "selectedAnswer": "B",
	}, http.StatusOK, &result)
	if result.Response.Score != 4 || !result.Response.IsCorrect {
		t.Fatalf("unexpected response: %+v", result.Response)
	}
	if len(result.Leaderboard.Entries) != 1 || result.Leaderboard.Entries[0].DisplayName != "Asha" {
		t.Fatalf("unexpected board: %+v", result.Leaderboard.Entries)
	}

	doJSON(t, http.MethodPost, base+"/answers", map[string]string{
		"userId": "u1", "questionId": "does-not-exist", "selectedAnswer": "B",
	}, http.StatusNotFound, nil)
	doJSON(t, http.MethodPost, base+"/answers", map[string]string{
		"userId": "u1", "questionId": mcqs[0].ID, "selectedAnswer": "",
	}, http.StatusBadRequest, nil)

	var board domain.Leaderboard
	doJSON(t, http.MethodGet, base+"/leaderboard", nil, http.StatusOK, &board)
	if len(board.Entries) != 1 || board.Entries[0].TotalScore != 4 {
		t.Fatalf("unexpected board: %+v", board.Entries)
	}

	var status domain.PositionalStatus
	doJSON(t, http.MethodGet, base+"/leaderboard/positional?questionId="+mcqs[0].ID+"&userId=u1", nil, http.StatusOK, &status)
	if status.User.Rank == nil || *status.User.Rank != 1 {
		t.Fatalf("unexpected positional status: %+v", status.User)
	}
	doJSON(t, http.MethodGet, base+"/leaderboard/positional?userId=u1", nil, http.StatusBadRequest, nil)
}

func TestMCQUploadRejectsWrongCount(t *testing.T) {
	server, _ := newTestServer(t)
	topic := createTopic(t, server.URL)

	doJSON(t, http.MethodPost, server.URL+"/topics/"+topic.ID+"/mcqs", map[string]any{
		"mcqs": []map[string]any{},
	}, http.StatusBadRequest, nil)
}

func TestAccountEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	var colleges []domain.College
	doJSON(t, http.MethodGet, server.URL+"/colleges", nil, http.StatusOK, &colleges)
	if len(colleges) != 1 || colleges[0].ID != "c1" {
		t.Fatalf("unexpected colleges: %+v", colleges)
	}

	var user domain.User
	doJSON(t, http.MethodPost, server.URL+"/users", map[string]string{
		"phone": "+919876543210", "name": "Asha", "collegeId": "c1",
	}, http.StatusCreated, &user)
	if user.ID == "" || user.Verified {
		t.Fatalf("unexpected user: %+v", user)
	}

	var status domain.User
	doJSON(t, http.MethodGet, server.URL+"/users/"+user.ID+"/status", nil, http.StatusOK, &status)
	if status.ID != user.ID {
		t.Fatalf("unexpected status: %+v", status)
	}

	// duplicate phone conflicts
	doJSON(t, http.MethodPost, server.URL+"/users", map[string]string{
		"phone": "+919876543210", "name": "Ravi", "collegeId": "c1",
	}, http.StatusConflict, nil)
	// bad phone
	doJSON(t, http.MethodPost, server.URL+"/users", map[string]string{
		"phone": "12345", "name": "Ravi", "collegeId": "c1",
	}, http.StatusBadRequest, nil)
	// unknown college
	doJSON(t, http.MethodPost, server.URL+"/users", map[string]string{
		"phone": "+919876543211", "name": "Ravi", "collegeId": "nope",
	}, http.StatusNotFound, nil)
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}
}
