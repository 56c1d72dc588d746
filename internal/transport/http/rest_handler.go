package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"quiz-trainer/internal/domain"
)

// BankRepository serves the (cached) question bank.
type BankRepository interface {
	Questions(ctx context.Context) ([]domain.Question, error)
}

// ResultStore persists and retrieves quiz results.
type ResultStore interface {
	CreateResult(ctx context.Context, result domain.QuizResult) (int64, error)
	CreateAnsweredQuestions(ctx context.Context, resultID int64, answered []domain.AnsweredQuestion) error
	ListResults(ctx context.Context) ([]domain.ResultSummary, error)
	GetResult(ctx context.Context, resultID int64) (domain.QuizResult, error)
	ComprehensiveResult(ctx context.Context, resultID int64) (domain.ComprehensiveResult, error)
	UsedQuestionIDs(ctx context.Context) ([]string, error)
}

// RESTHandler exposes the persistence API consumed by quiz clients.
type RESTHandler struct {
	bank  BankRepository
	store ResultStore
}

func NewRESTHandler(bank BankRepository, store ResultStore) *RESTHandler {
	return &RESTHandler{bank: bank, store: store}
}

// Routes mounts the REST surface on a chi router. Result rows go out
// snake_cased (the historical wire format); the comprehensive view and
// single-result detail go out camelCased, mirroring the in-memory model.
func (h *RESTHandler) Routes(r chi.Router) {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/questions", h.listQuestions)
	r.Get("/quiz-results", h.listResults)
	r.Get("/quiz-results/{id}", h.getResult)
	r.Post("/quiz-results", h.createResult)
	r.Post("/answered-questions", h.createAnsweredQuestions)
	r.Get("/quiz-results-comprehensive/{id}", h.comprehensiveResult)
	r.Get("/used-questions", h.usedQuestions)
}

type optionPayload struct {
	ID          string `json:"id"`
	QuestionID  string `json:"question_id"`
	Text        string `json:"text"`
	IsCorrect   bool   `json:"is_correct"`
	Explanation string `json:"explanation"`
}

type questionPayload struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	Category   string          `json:"category"`
	Difficulty string          `json:"difficulty"`
	Options    []optionPayload `json:"options"`
}

type resultRow struct {
	ID               int64     `json:"id"`
	Mode             string    `json:"mode"`
	CorrectAnswers   int       `json:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers"`
	OmittedAnswers   int       `json:"omitted_answers"`
	TotalQuestions   int       `json:"total_questions"`
	TimeSpent        int       `json:"time_spent"`
	Timestamp        time.Time `json:"timestamp"`
	UsedQuestionIDs  []string  `json:"used_question_ids"`
}

func (h *RESTHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	bank, err := h.bank.Questions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	payload := make([]questionPayload, 0, len(bank))
	for _, question := range bank {
		q := questionPayload{
			ID:         question.ID,
			Text:       question.Text,
			Category:   question.Category,
			Difficulty: question.Difficulty,
			Options:    make([]optionPayload, 0, len(question.Options)),
		}
		for _, opt := range question.Options {
			q.Options = append(q.Options, optionPayload{
				ID:          opt.ID,
				QuestionID:  question.ID,
				Text:        opt.Text,
				IsCorrect:   opt.IsCorrect,
				Explanation: opt.Explanation,
			})
		}
		payload = append(payload, q)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *RESTHandler) listResults(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.ListResults(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rows := make([]resultRow, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, resultRow{
			ID:               summary.ID,
			Mode:             string(summary.Mode),
			CorrectAnswers:   summary.CorrectAnswers,
			IncorrectAnswers: summary.IncorrectAnswers,
			OmittedAnswers:   summary.OmittedAnswers,
			TotalQuestions:   summary.TotalQuestions,
			TimeSpent:        summary.TimeSpent,
			Timestamp:        summary.Timestamp,
			UsedQuestionIDs:  summary.UsedQuestionIDs,
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *RESTHandler) getResult(w http.ResponseWriter, r *http.Request) {
	id, ok := resultID(w, r)
	if !ok {
		return
	}
	result, err := h.store.GetResult(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RESTHandler) createResult(w http.ResponseWriter, r *http.Request) {
	var result domain.QuizResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quiz result payload"})
		return
	}
	id, err := h.store.CreateResult(r.Context(), result)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *RESTHandler) createAnsweredQuestions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QuizResultID      int64                     `json:"quizResultId"`
		AnsweredQuestions []domain.AnsweredQuestion `json:"answeredQuestions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid answered questions payload"})
		return
	}
	if err := h.store.CreateAnsweredQuestions(r.Context(), body.QuizResultID, body.AnsweredQuestions); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *RESTHandler) comprehensiveResult(w http.ResponseWriter, r *http.Request) {
	id, ok := resultID(w, r)
	if !ok {
		return
	}
	result, err := h.store.ComprehensiveResult(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RESTHandler) usedQuestions(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.UsedQuestionIDs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func resultID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid result id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	log.Printf("request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
