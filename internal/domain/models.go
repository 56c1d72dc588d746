package domain

import "time"

// Mode selects the pacing of a quiz attempt.
type Mode string

const (
	// ModeTutor shows explanations per question with a count-up stopwatch.
	ModeTutor Mode = "tutor"
	// ModeTimed runs against a shared countdown budget.
	ModeTimed Mode = "timed"
)

// SecondsPerQuestion is the countdown budget granted per question in timed mode.
const SecondsPerQuestion = 90

// Option is a possible answer belonging to exactly one question.
type Option struct {
	ID          string `json:"id"`
	QuestionID  string `json:"questionId,omitempty"`
	Text        string `json:"text"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation,omitempty"`
}

// Question is an immutable multiple-choice question loaded from the bank.
type Question struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	Options    []Option `json:"options"`
}

// CorrectOptionIDs returns the ids of all options flagged correct.
func (q Question) CorrectOptionIDs() []string {
	ids := make([]string, 0, 1)
	for _, opt := range q.Options {
		if opt.IsCorrect {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// CorrectCount reports how many options are flagged correct. A count of one
// means single-answer (radio) semantics; more means multi-answer (toggle).
func (q Question) CorrectCount() int {
	n := 0
	for _, opt := range q.Options {
		if opt.IsCorrect {
			n++
		}
	}
	return n
}

// HasOption reports whether optionID belongs to this question.
func (q Question) HasOption(optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// Validate checks the bank invariants: non-empty id and text, at least one
// option, and at least one option flagged correct.
func (q Question) Validate() error {
	if q.ID == "" || q.Text == "" {
		return ErrInvalidQuestion
	}
	if len(q.Options) == 0 {
		return ErrInvalidQuestion
	}
	if q.CorrectCount() == 0 {
		return ErrInvalidQuestion
	}
	return nil
}

// AnsweredQuestion is the per-question detail derived at scoring time.
type AnsweredQuestion struct {
	QuestionID      string   `json:"questionId"`
	SelectedOptions []string `json:"selectedOptions"`
	IsCorrect       bool     `json:"isCorrect"`
}

// QuizResult is the scoring snapshot of one finished attempt. It is created
// once per finish; the only mutation after creation is attaching the
// store-assigned id.
type QuizResult struct {
	ID                int64              `json:"id,omitempty"`
	Mode              Mode               `json:"mode"`
	CorrectAnswers    int                `json:"correctAnswers"`
	IncorrectAnswers  int                `json:"incorrectAnswers"`
	OmittedAnswers    int                `json:"omittedAnswers"`
	TotalQuestions    int                `json:"totalQuestions"`
	AnsweredQuestions []AnsweredQuestion `json:"answeredQuestions"`
	TimeSpent         int                `json:"timeSpent"`
	Timestamp         time.Time          `json:"timestamp"`
}

// ResultSummary is a history row: the stored counts plus the ids of the
// questions that appeared in the attempt.
type ResultSummary struct {
	ID               int64     `json:"id"`
	Mode             Mode      `json:"mode"`
	CorrectAnswers   int       `json:"correctAnswers"`
	IncorrectAnswers int       `json:"incorrectAnswers"`
	OmittedAnswers   int       `json:"omittedAnswers"`
	TotalQuestions   int       `json:"totalQuestions"`
	TimeSpent        int       `json:"timeSpent"`
	Timestamp        time.Time `json:"timestamp"`
	UsedQuestionIDs  []string  `json:"usedQuestionIds"`
}

// ReviewQuestion is a question enriched for post-attempt review.
type ReviewQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// ComprehensiveResult is a scored result joined with the full option detail
// of every question that appeared in the attempt.
type ComprehensiveResult struct {
	ID               int64            `json:"id"`
	Mode             Mode             `json:"mode"`
	CorrectAnswers   int              `json:"correctAnswers"`
	IncorrectAnswers int              `json:"incorrectAnswers"`
	OmittedAnswers   int              `json:"omittedAnswers"`
	TotalQuestions   int              `json:"totalQuestions"`
	TimeSpent        int              `json:"timeSpent"`
	Timestamp        time.Time        `json:"timestamp"`
	Questions        []ReviewQuestion `json:"questions"`
}
