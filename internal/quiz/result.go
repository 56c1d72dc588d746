package quiz

import (
	"time"

	"quiz-trainer/internal/domain"
)

// GenerateResult scores a full attempt. A question counts as correct only
// when the selected set is exactly the set of correct options; an empty
// selection is omitted; anything else is incorrect. The function is pure:
// identical inputs always produce identical counts and answer records.
func GenerateResult(questions []domain.Question, selected map[string][]string, mode domain.Mode, timer int, at time.Time) domain.QuizResult {
	var correct, incorrect, omitted int
	answered := make([]domain.AnsweredQuestion, 0, len(questions))

	for _, question := range questions {
		selectedOptions := selected[question.ID]
		isCorrect := matchesCorrectOptions(question, selectedOptions)

		switch {
		case isCorrect:
			correct++
		case len(selectedOptions) == 0:
			omitted++
		default:
			incorrect++
		}

		answered = append(answered, domain.AnsweredQuestion{
			QuestionID:      question.ID,
			SelectedOptions: append([]string(nil), selectedOptions...),
			IsCorrect:       isCorrect,
		})
	}

	timeSpent := 0
	if mode == domain.ModeTimed {
		timeSpent = len(questions)*domain.SecondsPerQuestion - timer
	}

	return domain.QuizResult{
		Mode:              mode,
		CorrectAnswers:    correct,
		IncorrectAnswers:  incorrect,
		OmittedAnswers:    omitted,
		TotalQuestions:    len(questions),
		AnsweredQuestions: answered,
		TimeSpent:         timeSpent,
		Timestamp:         at,
	}
}

// matchesCorrectOptions checks set equality between the selection and the
// question's correct options, independent of order. No partial credit.
func matchesCorrectOptions(question domain.Question, selected []string) bool {
	correctIDs := question.CorrectOptionIDs()
	if len(correctIDs) != len(selected) {
		return false
	}
	for _, id := range correctIDs {
		if !contains(selected, id) {
			return false
		}
	}
	return true
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
