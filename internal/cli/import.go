package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quiz-trainer/internal/config"
	"quiz-trainer/internal/domain"
	"quiz-trainer/internal/infra/postgres"
)

// bankFileQuestion is the authoring format of question bank JSON files:
// no ids yet, those are assigned at import time.
type bankFileQuestion struct {
	Text       string `json:"text"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Options    []struct {
		Text        string `json:"text"`
		IsCorrect   bool   `json:"isCorrect"`
		Explanation string `json:"explanation"`
	} `json:"options"`
}

// NewImportCmd loads question bank JSON files into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Import question bank JSON files into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), cfg, args[0])
		},
	}
}

func runImport(ctx context.Context, cfg config.Config, dir string) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no question files found in %s", dir)
	}

	total := 0
	for _, file := range files {
		questions, err := loadBankFile(file)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if err := store.InsertQuestions(ctx, questions); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		total += len(questions)
	}
	log.Printf("imported %d questions from %d files", total, len(files))
	return nil
}

func loadBankFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []bankFileQuestion
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	questions := make([]domain.Question, 0, len(entries))
	for _, entry := range entries {
		question := domain.Question{
			ID:         uuid.NewString(),
			Text:       entry.Text,
			Category:   entry.Category,
			Difficulty: entry.Difficulty,
		}
		for _, opt := range entry.Options {
			question.Options = append(question.Options, domain.Option{
				ID:          uuid.NewString(),
				QuestionID:  question.ID,
				Text:        opt.Text,
				IsCorrect:   opt.IsCorrect,
				Explanation: opt.Explanation,
			})
		}
		if err := question.Validate(); err != nil {
			return nil, fmt.Errorf("question %q: %w", entry.Text, err)
		}
		questions = append(questions, question)
	}
	return questions, nil
}
