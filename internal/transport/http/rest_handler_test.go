package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"quiz-trainer/internal/domain"
	"quiz-trainer/internal/infra/memory"
)

// fakeStore is an in-memory ResultStore for handler tests.
type fakeStore struct {
	bank     []domain.Question
	nextID   int64
	results  map[int64]domain.QuizResult
	answered map[int64][]domain.AnsweredQuestion
}

func newFakeStore(bank []domain.Question) *fakeStore {
	return &fakeStore{
		bank:     bank,
		nextID:   1,
		results:  make(map[int64]domain.QuizResult),
		answered: make(map[int64][]domain.AnsweredQuestion),
	}
}

func (s *fakeStore) CreateResult(_ context.Context, result domain.QuizResult) (int64, error) {
	id := s.nextID
	s.nextID++
	result.ID = id
	s.results[id] = result
	return id, nil
}

func (s *fakeStore) CreateAnsweredQuestions(_ context.Context, resultID int64, answered []domain.AnsweredQuestion) error {
	s.answered[resultID] = answered
	return nil
}

func (s *fakeStore) ListResults(_ context.Context) ([]domain.ResultSummary, error) {
	summaries := make([]domain.ResultSummary, 0, len(s.results))
	for id, result := range s.results {
		used := make([]string, 0)
		for _, aq := range s.answered[id] {
			used = append(used, aq.QuestionID)
		}
		summaries = append(summaries, domain.ResultSummary{
			ID:              id,
			Mode:            result.Mode,
			CorrectAnswers:  result.CorrectAnswers,
			TotalQuestions:  result.TotalQuestions,
			TimeSpent:       result.TimeSpent,
			Timestamp:       result.Timestamp,
			UsedQuestionIDs: used,
		})
	}
	return summaries, nil
}

func (s *fakeStore) GetResult(_ context.Context, resultID int64) (domain.QuizResult, error) {
	result, ok := s.results[resultID]
	if !ok {
		return domain.QuizResult{}, domain.ErrNotFound
	}
	result.AnsweredQuestions = s.answered[resultID]
	return result, nil
}

func (s *fakeStore) ComprehensiveResult(_ context.Context, resultID int64) (domain.ComprehensiveResult, error) {
	result, ok := s.results[resultID]
	if !ok {
		return domain.ComprehensiveResult{}, domain.ErrNotFound
	}
	comp := domain.ComprehensiveResult{
		ID:             resultID,
		Mode:           result.Mode,
		CorrectAnswers: result.CorrectAnswers,
		TotalQuestions: result.TotalQuestions,
		TimeSpent:      result.TimeSpent,
		Timestamp:      result.Timestamp,
	}
	for _, aq := range s.answered[resultID] {
		for _, question := range s.bank {
			if question.ID == aq.QuestionID {
				comp.Questions = append(comp.Questions, domain.ReviewQuestion{
					ID:      question.ID,
					Text:    question.Text,
					Options: question.Options,
				})
			}
		}
	}
	return comp, nil
}

func (s *fakeStore) UsedQuestionIDs(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	ids := []string{}
	for _, answered := range s.answered {
		for _, aq := range answered {
			if !seen[aq.QuestionID] {
				seen[aq.QuestionID] = true
				ids = append(ids, aq.QuestionID)
			}
		}
	}
	return ids, nil
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{
			ID:         "q1",
			Text:       "What is 2 + 2?",
			Category:   "arithmetic",
			Difficulty: "easy",
			Options: []domain.Option{
				{ID: "o1", Text: "3"},
				{ID: "o2", Text: "4", IsCorrect: true, Explanation: "basic addition"},
				{ID: "o3", Text: "5"},
			},
		},
	}
}

func newTestServer(t *testing.T, store *fakeStore) *httptest.Server {
	t.Helper()
	bank := memory.NewBankRepository(memory.NewStaticBankLoader(store.bank), time.Minute)
	router := chi.NewRouter()
	router.Group(NewRESTHandler(bank, store).Routes)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestListQuestionsSnakeCase(t *testing.T) {
	server := newTestServer(t, newFakeStore(sampleBank()))

	resp, err := http.Get(server.URL + "/questions")
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	body := buf.String()
	if !strings.Contains(body, `"is_correct"`) || !strings.Contains(body, `"question_id"`) {
		t.Fatalf("question payload must be snake_cased, got %s", body)
	}

	var questions []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &questions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected one question, got %d", len(questions))
	}
}

func TestCreateAndGetResult(t *testing.T) {
	server := newTestServer(t, newFakeStore(sampleBank()))

	payload := `{"mode":"timed","correctAnswers":1,"incorrectAnswers":0,"omittedAnswers":0,"totalQuestions":1,"timeSpent":10,"timestamp":"2025-03-01T12:00:00Z"}`
	resp, err := http.Post(server.URL+"/quiz-results", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post result: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected id 1, got %d", created.ID)
	}

	getResp, err := http.Get(server.URL + "/quiz-results/1")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", getResp.StatusCode)
	}
	var result domain.QuizResult
	if err := json.NewDecoder(getResp.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Mode != domain.ModeTimed || result.CorrectAnswers != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestGetResultNotFound(t *testing.T) {
	server := newTestServer(t, newFakeStore(sampleBank()))

	resp, err := http.Get(server.URL + "/quiz-results/99")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAnsweredQuestionsAndUsedIDs(t *testing.T) {
	store := newFakeStore(sampleBank())
	server := newTestServer(t, store)

	// Persist a result first, then attach detail under its id.
	resp, _ := http.Post(server.URL+"/quiz-results", "application/json",
		strings.NewReader(`{"mode":"tutor","totalQuestions":1,"timestamp":"2025-03-01T12:00:00Z"}`))
	resp.Body.Close()

	payload := `{"quizResultId":1,"answeredQuestions":[{"questionId":"q1","selectedOptions":["o2"],"isCorrect":true}]}`
	aqResp, err := http.Post(server.URL+"/answered-questions", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post answered: %v", err)
	}
	aqResp.Body.Close()
	if aqResp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", aqResp.StatusCode)
	}

	usedResp, err := http.Get(server.URL + "/used-questions")
	if err != nil {
		t.Fatalf("get used: %v", err)
	}
	defer usedResp.Body.Close()
	var ids []string
	if err := json.NewDecoder(usedResp.Body).Decode(&ids); err != nil {
		t.Fatalf("decode used: %v", err)
	}
	if len(ids) != 1 || ids[0] != "q1" {
		t.Fatalf("expected used ids [q1], got %v", ids)
	}

	listResp, err := http.Get(server.URL + "/quiz-results")
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	defer listResp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(listResp.Body)
	if !strings.Contains(buf.String(), `"used_question_ids":["q1"]`) {
		t.Fatalf("expected snake_cased history with used ids, got %s", buf.String())
	}
}

func TestComprehensiveResultNotFound(t *testing.T) {
	server := newTestServer(t, newFakeStore(sampleBank()))

	resp, err := http.Get(server.URL + "/quiz-results-comprehensive/7")
	if err != nil {
		t.Fatalf("get comprehensive: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
