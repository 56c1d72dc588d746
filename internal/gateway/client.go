// Package gateway is the HTTP client for the quiz persistence API. It owns
// the wire mapping: result rows arrive snake_cased and are converted to the
// in-memory camelCase model, and truthy is_correct values (MySQL-style 0/1
// as well as booleans) are coerced to bool.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"quiz-trainer/internal/domain"
)

// Client talks to the quiz REST API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient builds a gateway against baseURL (no trailing slash needed).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type questionPayload struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	Category   string          `json:"category"`
	Difficulty string          `json:"difficulty"`
	Options    []optionPayload `json:"options"`
}

type optionPayload struct {
	ID          string `json:"id"`
	QuestionID  string `json:"question_id"`
	Text        string `json:"text"`
	IsCorrect   truthy `json:"is_correct"`
	Explanation string `json:"explanation"`
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

// truthy decodes the backend's is_correct column, which may arrive as a
// bool or as a 0/1 number depending on the driver.
type truthy bool

func (t *truthy) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*t = truthy(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*t = n != 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = s == "1" || s == "true"
		return nil
	}
	return fmt.Errorf("is_correct: cannot decode %s", string(data))
}

// FetchQuestions retrieves the full question bank.
func (c *Client) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	var payload []questionPayload
	if err := c.get(ctx, "/questions", &payload); err != nil {
		return nil, err
	}
	questions := make([]domain.Question, 0, len(payload))
	for _, q := range payload {
		question := domain.Question{
			ID:         q.ID,
			Text:       q.Text,
			Category:   q.Category,
			Difficulty: q.Difficulty,
			Options:    make([]domain.Option, 0, len(q.Options)),
		}
		for _, opt := range q.Options {
			question.Options = append(question.Options, domain.Option{
				ID:          opt.ID,
				QuestionID:  opt.QuestionID,
				Text:        opt.Text,
				IsCorrect:   bool(opt.IsCorrect),
				Explanation: opt.Explanation,
			})
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// SaveResult persists a scored result and returns the assigned id.
func (c *Client) SaveResult(ctx context.Context, result domain.QuizResult) (int64, error) {
	var response struct {
		ID int64 `json:"id"`
	}
	if err := c.post(ctx, "/quiz-results", result, &response); err != nil {
		return 0, err
	}
	return response.ID, nil
}

// SaveAnsweredQuestions attaches per-question detail to a stored result.
func (c *Client) SaveAnsweredQuestions(ctx context.Context, resultID int64, answered []domain.AnsweredQuestion) error {
	body := struct {
		QuizResultID      int64                     `json:"quizResultId"`
		AnsweredQuestions []domain.AnsweredQuestion `json:"answeredQuestions"`
	}{QuizResultID: resultID, AnsweredQuestions: answered}
	return c.post(ctx, "/answered-questions", body, nil)
}

// FetchComprehensiveResult retrieves the scored-plus-detail review view.
func (c *Client) FetchComprehensiveResult(ctx context.Context, resultID int64) (domain.ComprehensiveResult, error) {
	var result domain.ComprehensiveResult
	err := c.get(ctx, "/quiz-results-comprehensive/"+strconv.FormatInt(resultID, 10), &result)
	return result, err
}

// FetchResult retrieves one stored result with its answer detail.
func (c *Client) FetchResult(ctx context.Context, resultID int64) (domain.QuizResult, error) {
	var result domain.QuizResult
	err := c.get(ctx, "/quiz-results/"+strconv.FormatInt(resultID, 10), &result)
	return result, err
}

// FetchHistory retrieves all stored attempt summaries.
func (c *Client) FetchHistory(ctx context.Context) ([]domain.ResultSummary, error) {
	var rows []resultRow
	if err := c.get(ctx, "/quiz-results", &rows); err != nil {
		return nil, err
	}
	summaries := make([]domain.ResultSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, domain.ResultSummary{
			ID:               row.ID,
			Mode:             domain.Mode(row.Mode),
			CorrectAnswers:   row.CorrectAnswers,
			IncorrectAnswers: row.IncorrectAnswers,
			OmittedAnswers:   row.OmittedAnswers,
			TotalQuestions:   row.TotalQuestions,
			TimeSpent:        row.TimeSpent,
			Timestamp:        row.Timestamp,
			UsedQuestionIDs:  row.UsedQuestionIDs,
		})
	}
	return summaries, nil
}

// FetchUsedQuestionIDs retrieves ids of questions used in stored attempts.
func (c *Client) FetchUsedQuestionIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.get(ctx, "/used-questions", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("gateway %s %s: %w", req.Method, req.URL.Path, domain.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("gateway %s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway %s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
