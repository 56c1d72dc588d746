package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"quiz-trainer/internal/domain"
)

// Gateway abstracts the persistence backend the session talks to
// (HTTP client against the REST API, or a direct store adapter).
type Gateway interface {
	FetchQuestions(ctx context.Context) ([]domain.Question, error)
	SaveResult(ctx context.Context, result domain.QuizResult) (int64, error)
	SaveAnsweredQuestions(ctx context.Context, resultID int64, answered []domain.AnsweredQuestion) error
	FetchComprehensiveResult(ctx context.Context, resultID int64) (domain.ComprehensiveResult, error)
	FetchResult(ctx context.Context, resultID int64) (domain.QuizResult, error)
	FetchHistory(ctx context.Context) ([]domain.ResultSummary, error)
	FetchUsedQuestionIDs(ctx context.Context) ([]string, error)
}

// State is the lifecycle phase of a session.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateSuspended
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "notStarted"
	case StateInProgress:
		return "inProgress"
	case StateSuspended:
		return "suspended"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Session owns the in-memory progression of one quiz attempt. All state
// mutations go through its methods under a single mutex, so an external
// ticker and user intents never interleave mid-transition. A Session is
// not shared across attempts by different users; construct one per client.
type Session struct {
	gateway Gateway
	now     func() time.Time
	rnd     *rand.Rand

	mu                 sync.Mutex
	state              State
	questions          []domain.Question
	totalQuestions     int
	numQuestions       int
	currentIndex       int
	selected           map[string][]string
	submitted          map[string]bool
	timer              int
	mode               domain.Mode
	startTime          time.Time
	endTime            time.Time
	showingExplanation bool
	suspendedTimer     int
	finishInFlight     bool
	latestResult       *domain.ComprehensiveResult
	history            []domain.ResultSummary
	usedQuestionIDs    []string
}

// NewSession builds a session backed by the given gateway.
func NewSession(gateway Gateway) *Session {
	return NewSessionWithClock(gateway, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSessionWithClock allows deterministic timestamps and shuffles in tests.
func NewSessionWithClock(gateway Gateway, now func() time.Time, rnd *rand.Rand) *Session {
	return &Session{
		gateway:   gateway,
		now:       now,
		rnd:       rnd,
		state:     StateNotStarted,
		selected:  make(map[string][]string),
		submitted: make(map[string]bool),
	}
}

// Start begins a new attempt: it fetches the bank, records its size, picks
// the attempt's questions (see SelectForAttempt) and initializes the timer
// for the requested mode. numQuestions must be at least 1 and no larger
// than the bank.
func (s *Session) Start(ctx context.Context, numQuestions int, mode domain.Mode) error {
	if numQuestions < 1 {
		return fmt.Errorf("%w: numQuestions must be >= 1, got %d", domain.ErrInvalidConfig, numQuestions)
	}

	bank, err := s.gateway.FetchQuestions(ctx)
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}
	if len(bank) == 0 {
		return domain.ErrQuestionBankEmpty
	}
	if numQuestions > len(bank) {
		return fmt.Errorf("%w: requested %d questions, bank holds %d", domain.ErrInvalidConfig, numQuestions, len(bank))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalQuestions = len(bank)
	s.questions = SelectForAttempt(bank, numQuestions, s.rnd)
	s.numQuestions = numQuestions
	s.mode = mode
	s.currentIndex = 0
	s.selected = make(map[string][]string)
	s.submitted = make(map[string]bool)
	s.showingExplanation = false
	s.startTime = s.now()
	s.endTime = time.Time{}
	s.suspendedTimer = 0
	if mode == domain.ModeTimed {
		s.timer = numQuestions * domain.SecondsPerQuestion
	} else {
		s.timer = 0
	}
	s.state = StateInProgress
	return nil
}

// SelectOption records a selection for a question. Single-answer questions
// (exactly one correct option) replace any prior selection; multi-answer
// questions toggle the option in and out. Unknown question or option ids
// are ignored. The machine enforces no cap on multi-answer selections;
// callers wanting warn-and-block behavior can compare against
// Question.CorrectCount before calling.
func (s *Session) SelectOption(questionID, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return domain.ErrInconsistentState
	}

	question, ok := s.findQuestion(questionID)
	if !ok || !question.HasOption(optionID) {
		return nil
	}

	if question.CorrectCount() == 1 {
		s.selected[questionID] = []string{optionID}
		return nil
	}

	current := s.selected[questionID]
	if contains(current, optionID) {
		next := make([]string, 0, len(current)-1)
		for _, id := range current {
			if id != optionID {
				next = append(next, id)
			}
		}
		s.selected[questionID] = next
	} else {
		s.selected[questionID] = append(current, optionID)
	}
	return nil
}

// Submit marks a question as submitted. Idempotent.
func (s *Session) Submit(questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return domain.ErrInconsistentState
	}
	s.submitted[questionID] = true
	return nil
}

// Advance moves to the next question, staying within bounds.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return
	}
	if s.currentIndex < len(s.questions)-1 {
		s.currentIndex++
	}
}

// Retreat moves to the previous question, staying within bounds.
func (s *Session) Retreat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return
	}
	if s.currentIndex > 0 {
		s.currentIndex--
	}
}

// Tick advances the timer by one second: down toward zero in timed mode,
// up in tutor mode. Ticks are swallowed while an explanation is showing so
// review pauses do not cost budget, and while the session is suspended or
// not running.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress || s.showingExplanation {
		return
	}
	if s.mode == domain.ModeTimed {
		if s.timer > 0 {
			s.timer--
		}
	} else {
		s.timer++
	}
}

// SetShowingExplanation flags whether the presentation layer is currently
// displaying an option explanation; ticks are suppressed while it is.
func (s *Session) SetShowingExplanation(showing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showingExplanation = showing
}

// Suspend pauses the attempt, snapshotting the timer.
func (s *Session) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return domain.ErrInconsistentState
	}
	s.suspendedTimer = s.timer
	s.state = StateSuspended
	return nil
}

// Resume restores a suspended attempt and its timer snapshot.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSuspended {
		return domain.ErrInconsistentState
	}
	s.timer = s.suspendedTimer
	s.state = StateInProgress
	return nil
}

// Finish scores the attempt and runs the persistence sequence strictly in
// order: save the result, attach the answered-question detail under the
// assigned id, then fetch the comprehensive view. If any step fails the
// session stays exactly where it was and the error is returned for a
// user-visible retry; only a fully persisted attempt transitions to
// Finished. At most one finish sequence runs at a time.
func (s *Session) Finish(ctx context.Context) (domain.QuizResult, error) {
	s.mu.Lock()
	if s.state != StateInProgress && s.state != StateSuspended {
		s.mu.Unlock()
		return domain.QuizResult{}, domain.ErrInconsistentState
	}
	if s.finishInFlight {
		s.mu.Unlock()
		return domain.QuizResult{}, domain.ErrFinishInFlight
	}
	s.finishInFlight = true
	questions := s.questions
	selected := make(map[string][]string, len(s.selected))
	for questionID, options := range s.selected {
		selected[questionID] = append([]string(nil), options...)
	}
	mode := s.mode
	timer := s.timer
	now := s.now
	s.mu.Unlock()

	// Gateway calls run outside the lock; ticks landing meanwhile only
	// touch the timer, which was already snapshotted for scoring.
	result := GenerateResult(questions, selected, mode, timer, now())

	commit := func(fn func()) {
		s.mu.Lock()
		fn()
		s.finishInFlight = false
		s.mu.Unlock()
	}

	id, err := s.gateway.SaveResult(ctx, result)
	if err != nil {
		commit(func() {})
		return domain.QuizResult{}, fmt.Errorf("save result: %w", err)
	}
	result.ID = id

	if err := s.gateway.SaveAnsweredQuestions(ctx, id, result.AnsweredQuestions); err != nil {
		commit(func() {})
		return domain.QuizResult{}, fmt.Errorf("save answered questions: %w", err)
	}

	comprehensive, err := s.gateway.FetchComprehensiveResult(ctx, id)
	if err != nil {
		commit(func() {})
		return domain.QuizResult{}, fmt.Errorf("fetch comprehensive result: %w", err)
	}

	commit(func() {
		s.endTime = s.now()
		s.latestResult = &comprehensive
		s.history = append(s.history, summarize(result))
		s.state = StateFinished
		s.clearWorkingFieldsLocked()
	})
	return result, nil
}

// Reset returns the session to NotStarted, clearing working fields while
// preserving the accumulated history and the latest result.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateNotStarted
	s.questions = nil
	s.numQuestions = 0
	s.timer = 0
	s.suspendedTimer = 0
	s.showingExplanation = false
	s.clearWorkingFieldsLocked()
}

func (s *Session) clearWorkingFieldsLocked() {
	s.currentIndex = 0
	s.selected = make(map[string][]string)
	s.submitted = make(map[string]bool)
	s.startTime = time.Time{}
	s.endTime = time.Time{}
}

// LoadHistory refreshes the stored attempt history from the gateway.
func (s *Session) LoadHistory(ctx context.Context) error {
	history, err := s.gateway.FetchHistory(ctx)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	s.mu.Lock()
	s.history = history
	s.mu.Unlock()
	return nil
}

// LoadUsedQuestionIDs refreshes the ids of questions seen in prior stored
// attempts, used to bias selection away from repeats.
func (s *Session) LoadUsedQuestionIDs(ctx context.Context) error {
	ids, err := s.gateway.FetchUsedQuestionIDs(ctx)
	if err != nil {
		return fmt.Errorf("fetch used question ids: %w", err)
	}
	s.mu.Lock()
	s.usedQuestionIDs = ids
	s.mu.Unlock()
	return nil
}

func (s *Session) findQuestion(questionID string) (domain.Question, bool) {
	for _, question := range s.questions {
		if question.ID == questionID {
			return question, true
		}
	}
	return domain.Question{}, false
}

func summarize(result domain.QuizResult) domain.ResultSummary {
	used := make([]string, 0, len(result.AnsweredQuestions))
	for _, answered := range result.AnsweredQuestions {
		used = append(used, answered.QuestionID)
	}
	return domain.ResultSummary{
		ID:               result.ID,
		Mode:             result.Mode,
		CorrectAnswers:   result.CorrectAnswers,
		IncorrectAnswers: result.IncorrectAnswers,
		OmittedAnswers:   result.OmittedAnswers,
		TotalQuestions:   result.TotalQuestions,
		TimeSpent:        result.TimeSpent,
		Timestamp:        result.Timestamp,
		UsedQuestionIDs:  used,
	}
}
