package http

import (
	"context"

	"quiz-trainer/internal/domain"
)

// StoreGateway adapts the server-side bank and result store to the
// quiz.Gateway interface, so sessions hosted in this process (the ws
// transport) skip the HTTP round trip the remote gateway client makes.
type StoreGateway struct {
	bank  BankRepository
	store ResultStore
}

func NewStoreGateway(bank BankRepository, store ResultStore) *StoreGateway {
	return &StoreGateway{bank: bank, store: store}
}

func (g *StoreGateway) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	return g.bank.Questions(ctx)
}

func (g *StoreGateway) SaveResult(ctx context.Context, result domain.QuizResult) (int64, error) {
	return g.store.CreateResult(ctx, result)
}

func (g *StoreGateway) SaveAnsweredQuestions(ctx context.Context, resultID int64, answered []domain.AnsweredQuestion) error {
	return g.store.CreateAnsweredQuestions(ctx, resultID, answered)
}

func (g *StoreGateway) FetchComprehensiveResult(ctx context.Context, resultID int64) (domain.ComprehensiveResult, error) {
	return g.store.ComprehensiveResult(ctx, resultID)
}

func (g *StoreGateway) FetchResult(ctx context.Context, resultID int64) (domain.QuizResult, error) {
	return g.store.GetResult(ctx, resultID)
}

func (g *StoreGateway) FetchHistory(ctx context.Context) ([]domain.ResultSummary, error) {
	return g.store.ListResults(ctx)
}

func (g *StoreGateway) FetchUsedQuestionIDs(ctx context.Context) ([]string, error) {
	return g.store.UsedQuestionIDs(ctx)
}
