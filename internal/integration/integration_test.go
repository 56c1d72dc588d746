package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-trainer/internal/domain"
	"quiz-trainer/internal/infra/postgres"
	pgmigrations "quiz-trainer/internal/infra/postgres/migrations"
	redisinfra "quiz-trainer/internal/infra/redis"
	"quiz-trainer/internal/quiz"
	transport "quiz-trainer/internal/transport/http"
)

func TestFinishFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisAddr, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	bank := seedBank()
	if err := store.InsertQuestions(ctx, bank); err != nil {
		t.Fatalf("insert questions: %v", err)
	}

	redisClient := goredis.NewClient(&goredis.Options{Addr: redisAddr})
	bankRepo := redisinfra.NewBankRepository(redisClient, store, 5*time.Minute)

	session := quiz.NewSession(transport.NewStoreGateway(bankRepo, store))
	if err := session.Start(ctx, 2, domain.ModeTimed); err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.Timer() != 2*domain.SecondsPerQuestion {
		t.Fatalf("expected timed budget %d, got %d", 2*domain.SecondsPerQuestion, session.Timer())
	}

	// Answer the first question correctly, leave the second omitted.
	questions := session.Questions()
	first := questions[0]
	for _, opt := range first.Options {
		if opt.IsCorrect {
			if err := session.SelectOption(first.ID, opt.ID); err != nil {
				t.Fatalf("select: %v", err)
			}
		}
	}

	result, err := session.Finish(ctx)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.CorrectAnswers != 1 || result.OmittedAnswers != 1 || result.IncorrectAnswers != 0 {
		t.Fatalf("unexpected score %+v", result)
	}
	if session.State() != quiz.StateFinished {
		t.Fatalf("expected finished, got %v", session.State())
	}

	// Everything the finish sequence wrote must be readable back.
	stored, err := store.GetResult(ctx, result.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if stored.CorrectAnswers != 1 || stored.TotalQuestions != 2 {
		t.Fatalf("unexpected stored result %+v", stored)
	}
	if len(stored.AnsweredQuestions) != 2 {
		t.Fatalf("expected 2 answered rows, got %d", len(stored.AnsweredQuestions))
	}

	comp, err := store.ComprehensiveResult(ctx, result.ID)
	if err != nil {
		t.Fatalf("comprehensive: %v", err)
	}
	if len(comp.Questions) != 2 {
		t.Fatalf("expected full option detail for both questions, got %+v", comp.Questions)
	}

	used, err := store.UsedQuestionIDs(ctx)
	if err != nil {
		t.Fatalf("used ids: %v", err)
	}
	if len(used) != 2 {
		t.Fatalf("expected both questions marked used, got %v", used)
	}

	summaries, err := store.ListResults(ctx)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(summaries) != 1 || len(summaries[0].UsedQuestionIDs) != 2 {
		t.Fatalf("unexpected history %+v", summaries)
	}
}

func seedBank() []domain.Question {
	newQuestion := func(text string, correct, wrong string) domain.Question {
		q := domain.Question{
			ID:         uuid.NewString(),
			Text:       text,
			Category:   "general",
			Difficulty: "easy",
		}
		q.Options = []domain.Option{
			{ID: uuid.NewString(), QuestionID: q.ID, Text: correct, IsCorrect: true, Explanation: "right"},
			{ID: uuid.NewString(), QuestionID: q.ID, Text: wrong},
		}
		return q
	}
	return []domain.Question{
		newQuestion("What is 2 + 2?", "4", "5"),
		newQuestion("What is 3 * 3?", "9", "6"),
	}
}

func applyMigrations(t *testing.T, ctx context.Context, pgURL string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgURL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image: "postgres:16-alpine",
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "quiz",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	url := fmt.Sprintf("postgres://postgres:postgres@%s:%s/quiz?sslmode=disable", host, port.Port())
	return url, func() { _ = container.Terminate(ctx) }
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), func() { _ = container.Terminate(ctx) }
}
