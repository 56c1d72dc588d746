package domain

import "errors"

var (
	// ErrInvalidConfig is returned for bad quiz-start parameters.
	ErrInvalidConfig = errors.New("invalid quiz configuration")
	// ErrNotFound indicates a requested result or question is absent.
	ErrNotFound = errors.New("not found")
	// ErrQuestionBankEmpty indicates the bank holds no questions.
	ErrQuestionBankEmpty = errors.New("question bank is empty")
	// ErrInconsistentState is returned when an operation is attempted in the
	// wrong lifecycle state (e.g. finishing a quiz that never started).
	ErrInconsistentState = errors.New("operation not allowed in current quiz state")
	// ErrFinishInFlight rejects a second finish while one is persisting.
	ErrFinishInFlight = errors.New("finish already in progress")
	// ErrInvalidQuestion indicates a bank entry violates the data model.
	ErrInvalidQuestion = errors.New("invalid question")
)
