package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-trainer/internal/domain"
)

// Store persists the question bank and quiz results in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// LoadBank returns every question joined with its options, in bank order.
func (s *Store) LoadBank(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT q.id, q.text, q.category, q.difficulty,
		       o.id, o.text, o.is_correct, o.explanation
		FROM questions q
		JOIN options o ON o.question_id = q.id
		ORDER BY q.id, o.id`)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	index := make(map[string]int)
	for rows.Next() {
		var q domain.Question
		var opt domain.Option
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &q.Difficulty,
			&opt.ID, &opt.Text, &opt.IsCorrect, &opt.Explanation); err != nil {
			return nil, fmt.Errorf("scan bank row: %w", err)
		}
		opt.QuestionID = q.ID
		i, ok := index[q.ID]
		if !ok {
			i = len(questions)
			index[q.ID] = i
			questions = append(questions, q)
		}
		questions[i].Options = append(questions[i].Options, opt)
	}
	return questions, rows.Err()
}

// InsertQuestions adds validated questions and their options to the bank.
func (s *Store) InsertQuestions(ctx context.Context, questions []domain.Question) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, question := range questions {
		if err := question.Validate(); err != nil {
			return fmt.Errorf("question %q: %w", question.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO questions (id, text, category, difficulty) VALUES ($1, $2, $3, $4)`,
			question.ID, question.Text, question.Category, question.Difficulty); err != nil {
			return fmt.Errorf("insert question %q: %w", question.ID, err)
		}
		for _, opt := range question.Options {
			if _, err := tx.Exec(ctx,
				`INSERT INTO options (id, question_id, text, is_correct, explanation) VALUES ($1, $2, $3, $4, $5)`,
				opt.ID, question.ID, opt.Text, opt.IsCorrect, opt.Explanation); err != nil {
				return fmt.Errorf("insert option %q: %w", opt.ID, err)
			}
		}
	}
	return tx.Commit(ctx)
}

// CreateResult stores a scored result and returns its assigned id.
func (s *Store) CreateResult(ctx context.Context, result domain.QuizResult) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO quiz_results (mode, correct_answers, incorrect_answers, omitted_answers, total_questions, time_spent, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		result.Mode, result.CorrectAnswers, result.IncorrectAnswers, result.OmittedAnswers,
		result.TotalQuestions, result.TimeSpent, result.Timestamp).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create result: %w", err)
	}
	return id, nil
}

// CreateAnsweredQuestions attaches per-question detail to a stored result.
// Selected options go into the answered_question_options junction table.
func (s *Store) CreateAnsweredQuestions(ctx context.Context, resultID int64, answered []domain.AnsweredQuestion) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, aq := range answered {
		var answeredID int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO answered_questions (quiz_result_id, question_id, is_correct)
			VALUES ($1, $2, $3)
			RETURNING id`,
			resultID, aq.QuestionID, aq.IsCorrect).Scan(&answeredID); err != nil {
			return fmt.Errorf("insert answered question: %w", err)
		}
		for _, optionID := range aq.SelectedOptions {
			if _, err := tx.Exec(ctx, `
				INSERT INTO answered_question_options (answered_question_id, option_id)
				VALUES ($1, $2)`,
				answeredID, optionID); err != nil {
				return fmt.Errorf("insert selected option: %w", err)
			}
		}
	}
	return tx.Commit(ctx)
}

// ListResults returns every stored result with the ids of the questions
// that appeared in it.
func (s *Store) ListResults(ctx context.Context) ([]domain.ResultSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.mode, r.correct_answers, r.incorrect_answers, r.omitted_answers,
		       r.total_questions, r.time_spent, r.timestamp, aq.question_id
		FROM quiz_results r
		LEFT JOIN answered_questions aq ON aq.quiz_result_id = r.id
		ORDER BY r.id, aq.id`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ResultSummary
	index := make(map[int64]int)
	for rows.Next() {
		var summary domain.ResultSummary
		var questionID *string
		if err := rows.Scan(&summary.ID, &summary.Mode, &summary.CorrectAnswers, &summary.IncorrectAnswers,
			&summary.OmittedAnswers, &summary.TotalQuestions, &summary.TimeSpent, &summary.Timestamp, &questionID); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		i, ok := index[summary.ID]
		if !ok {
			i = len(summaries)
			index[summary.ID] = i
			summary.UsedQuestionIDs = []string{}
			summaries = append(summaries, summary)
		}
		if questionID != nil {
			summaries[i].UsedQuestionIDs = append(summaries[i].UsedQuestionIDs, *questionID)
		}
	}
	return summaries, rows.Err()
}

// GetResult returns one stored result with its answer detail.
func (s *Store) GetResult(ctx context.Context, resultID int64) (domain.QuizResult, error) {
	var result domain.QuizResult
	err := s.pool.QueryRow(ctx, `
		SELECT id, mode, correct_answers, incorrect_answers, omitted_answers, total_questions, time_spent, timestamp
		FROM quiz_results WHERE id = $1`, resultID).
		Scan(&result.ID, &result.Mode, &result.CorrectAnswers, &result.IncorrectAnswers,
			&result.OmittedAnswers, &result.TotalQuestions, &result.TimeSpent, &result.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.QuizResult{}, domain.ErrNotFound
		}
		return domain.QuizResult{}, fmt.Errorf("get result: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT aq.question_id, aq.is_correct, aqo.option_id
		FROM answered_questions aq
		LEFT JOIN answered_question_options aqo ON aqo.answered_question_id = aq.id
		WHERE aq.quiz_result_id = $1
		ORDER BY aq.id`, resultID)
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("get answered questions: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var questionID string
		var isCorrect bool
		var optionID *string
		if err := rows.Scan(&questionID, &isCorrect, &optionID); err != nil {
			return domain.QuizResult{}, fmt.Errorf("scan answered question: %w", err)
		}
		i, ok := index[questionID]
		if !ok {
			i = len(result.AnsweredQuestions)
			index[questionID] = i
			result.AnsweredQuestions = append(result.AnsweredQuestions, domain.AnsweredQuestion{
				QuestionID:      questionID,
				SelectedOptions: []string{},
				IsCorrect:       isCorrect,
			})
		}
		if optionID != nil {
			result.AnsweredQuestions[i].SelectedOptions = append(result.AnsweredQuestions[i].SelectedOptions, *optionID)
		}
	}
	return result, rows.Err()
}

// ComprehensiveResult returns a stored result joined with the full option
// detail of every question that appeared in the attempt.
func (s *Store) ComprehensiveResult(ctx context.Context, resultID int64) (domain.ComprehensiveResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.mode, r.correct_answers, r.incorrect_answers, r.omitted_answers,
		       r.total_questions, r.time_spent, r.timestamp,
		       q.id, q.text, o.id, o.text, o.is_correct, o.explanation
		FROM quiz_results r
		JOIN answered_questions aq ON aq.quiz_result_id = r.id
		JOIN questions q ON q.id = aq.question_id
		LEFT JOIN options o ON o.question_id = q.id
		WHERE r.id = $1
		ORDER BY aq.id, o.id`, resultID)
	if err != nil {
		return domain.ComprehensiveResult{}, fmt.Errorf("comprehensive result: %w", err)
	}
	defer rows.Close()

	var result domain.ComprehensiveResult
	found := false
	index := make(map[string]int)
	for rows.Next() {
		var questionID, questionText string
		var optionID, optionText, explanation *string
		var isCorrect *bool
		if err := rows.Scan(&result.ID, &result.Mode, &result.CorrectAnswers, &result.IncorrectAnswers,
			&result.OmittedAnswers, &result.TotalQuestions, &result.TimeSpent, &result.Timestamp,
			&questionID, &questionText, &optionID, &optionText, &isCorrect, &explanation); err != nil {
			return domain.ComprehensiveResult{}, fmt.Errorf("scan comprehensive row: %w", err)
		}
		found = true
		i, ok := index[questionID]
		if !ok {
			i = len(result.Questions)
			index[questionID] = i
			result.Questions = append(result.Questions, domain.ReviewQuestion{
				ID:      questionID,
				Text:    questionText,
				Options: []domain.Option{},
			})
		}
		if optionID != nil {
			opt := domain.Option{ID: *optionID}
			if optionText != nil {
				opt.Text = *optionText
			}
			if isCorrect != nil {
				opt.IsCorrect = *isCorrect
			}
			if explanation != nil {
				opt.Explanation = *explanation
			}
			result.Questions[i].Options = append(result.Questions[i].Options, opt)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.ComprehensiveResult{}, err
	}
	if !found {
		return domain.ComprehensiveResult{}, domain.ErrNotFound
	}
	return result, nil
}

// UsedQuestionIDs flattens history into the distinct set of question ids
// that appeared in any stored attempt.
func (s *Store) UsedQuestionIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT question_id FROM answered_questions ORDER BY question_id`)
	if err != nil {
		return nil, fmt.Errorf("used question ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
