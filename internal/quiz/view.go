package quiz

import "quiz-trainer/internal/domain"

// Snapshot is a read-only view of the session for presentation layers.
type Snapshot struct {
	State              string           `json:"state"`
	Mode               domain.Mode      `json:"mode,omitempty"`
	CurrentIndex       int              `json:"currentIndex"`
	NumQuestions       int              `json:"numQuestions"`
	TotalQuestions     int              `json:"totalQuestions"`
	Timer              int              `json:"timer"`
	ShowingExplanation bool             `json:"showingExplanation"`
	CurrentQuestion    *domain.Question `json:"currentQuestion,omitempty"`
	Selected           []string         `json:"selected,omitempty"`
	Submitted          bool             `json:"submitted"`
}

// Snapshot returns a consistent view of the session under one lock hold.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		State:              s.state.String(),
		Mode:               s.mode,
		CurrentIndex:       s.currentIndex,
		NumQuestions:       s.numQuestions,
		TotalQuestions:     s.totalQuestions,
		Timer:              s.timer,
		ShowingExplanation: s.showingExplanation,
	}
	if s.currentIndex < len(s.questions) {
		question := s.questions[s.currentIndex]
		snapshot.CurrentQuestion = &question
		snapshot.Selected = append([]string(nil), s.selected[question.ID]...)
		snapshot.Submitted = s.submitted[question.ID]
	}
	return snapshot
}

// State reports the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Timer reports the current timer value in seconds.
func (s *Session) Timer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer
}

// CurrentIndex reports the index of the question on display.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

// CurrentQuestion returns the question on display, if the quiz is running.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentIndex < len(s.questions) {
		return s.questions[s.currentIndex], true
	}
	return domain.Question{}, false
}

// SelectedOptions returns a copy of the selection for a question.
func (s *Session) SelectedOptions(questionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selected[questionID]...)
}

// IsSubmitted reports whether a question has been submitted.
func (s *Session) IsSubmitted(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted[questionID]
}

// Questions returns the questions picked for the running attempt.
func (s *Session) Questions() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Question(nil), s.questions...)
}

// TotalQuestions reports the size of the bank at start time.
func (s *Session) TotalQuestions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalQuestions
}

// Mode reports the pacing mode of the running attempt.
func (s *Session) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// LatestResult returns the comprehensive view fetched by the last
// successful Finish.
func (s *Session) LatestResult() (domain.ComprehensiveResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latestResult == nil {
		return domain.ComprehensiveResult{}, false
	}
	return *s.latestResult, true
}

// History returns the known attempt summaries, oldest first.
func (s *Session) History() []domain.ResultSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ResultSummary(nil), s.history...)
}

// UsedQuestionIDs returns the ids loaded by LoadUsedQuestionIDs.
func (s *Session) UsedQuestionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.usedQuestionIDs...)
}
