package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quiz-trainer/internal/config"
	"quiz-trainer/internal/domain"
	"quiz-trainer/internal/gateway"
	"quiz-trainer/internal/quiz"
)

// NewPlayCmd runs a quiz attempt in the terminal against the REST API.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		numQuestions int
		mode         string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runPlay(cmd.Context(), cfg, numQuestions, domain.Mode(mode))
		},
	}
	cmd.Flags().IntVar(&numQuestions, "questions", 10, "number of questions in the attempt")
	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeTutor), "quiz mode: tutor or timed")
	return cmd
}

func runPlay(ctx context.Context, cfg config.Config, numQuestions int, mode domain.Mode) error {
	baseURL := cfg.Client.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	timeout := config.TTLDuration(cfg.Client.Timeout, 10*time.Second)

	client := gateway.NewClient(baseURL, timeout)
	session := quiz.NewSession(client)

	if err := session.Start(ctx, numQuestions, mode); err != nil {
		return err
	}

	// External timer driver: the session decides whether a tick counts.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				session.Tick()
			case <-done:
				return
			}
		}
	}()

	fmt.Println("commands: 1-9 select option, n next, p prev, s submit, z suspend, r resume, f finish, q quit")
	printQuestion(session)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		// Any keypress dismisses an explanation; the timer resumes.
		session.SetShowingExplanation(false)
		switch {
		case input == "q":
			return nil
		case input == "n":
			session.Advance()
			printQuestion(session)
		case input == "p":
			session.Retreat()
			printQuestion(session)
		case input == "s":
			question, ok := session.CurrentQuestion()
			if !ok {
				continue
			}
			if err := session.Submit(question.ID); err != nil {
				fmt.Println("error:", err)
				continue
			}
			if session.Mode() == domain.ModeTutor {
				printExplanations(session, question)
			}
		case input == "z":
			if err := session.Suspend(); err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println("suspended; r to resume")
			}
		case input == "r":
			if err := session.Resume(); err != nil {
				fmt.Println("error:", err)
			} else {
				printQuestion(session)
			}
		case input == "f":
			result, err := session.Finish(ctx)
			if err != nil {
				fmt.Println("finish failed, attempt unchanged:", err)
				continue
			}
			printResult(result)
			return nil
		default:
			choice, err := strconv.Atoi(input)
			if err != nil {
				fmt.Println("unknown command:", input)
				continue
			}
			question, ok := session.CurrentQuestion()
			if !ok || choice < 1 || choice > len(question.Options) {
				fmt.Println("no such option")
				continue
			}
			if err := session.SelectOption(question.ID, question.Options[choice-1].ID); err != nil {
				fmt.Println("error:", err)
				continue
			}
			printQuestion(session)
		}
	}
	return scanner.Err()
}

func printQuestion(session *quiz.Session) {
	snapshot := session.Snapshot()
	if snapshot.CurrentQuestion == nil {
		return
	}
	question := *snapshot.CurrentQuestion
	fmt.Printf("\n[%d/%d] %s", snapshot.CurrentIndex+1, snapshot.NumQuestions, question.Text)
	if snapshot.Mode == domain.ModeTimed {
		fmt.Printf("  (%ds left)", snapshot.Timer)
	}
	fmt.Println()
	for i, opt := range question.Options {
		marker := " "
		for _, id := range snapshot.Selected {
			if id == opt.ID {
				marker = "*"
			}
		}
		fmt.Printf("  %s %d. %s\n", marker, i+1, opt.Text)
	}
}

func printExplanations(session *quiz.Session, question domain.Question) {
	// Reviewing explanations pauses the timer until the next command.
	session.SetShowingExplanation(true)
	for _, opt := range question.Options {
		mark := "✗"
		if opt.IsCorrect {
			mark = "✓"
		}
		fmt.Printf("  %s %s", mark, opt.Text)
		if opt.Explanation != "" {
			fmt.Printf(": %s", opt.Explanation)
		}
		fmt.Println()
	}
}

func printResult(result domain.QuizResult) {
	fmt.Printf("\nresult #%d: %d correct, %d incorrect, %d omitted of %d",
		result.ID, result.CorrectAnswers, result.IncorrectAnswers, result.OmittedAnswers, result.TotalQuestions)
	if result.Mode == domain.ModeTimed {
		fmt.Printf(" in %ds", result.TimeSpent)
	}
	fmt.Println()
}
