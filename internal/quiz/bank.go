package quiz

import (
	"math/rand"

	"quiz-trainer/internal/domain"
)

// SelectForAttempt picks the questions for a new attempt: the bank is
// truncated to its first n entries and the truncated subset is then
// shuffled. Truncation happens before shuffling, so the pick follows the
// bank's natural ordering rather than sampling the whole bank uniformly.
// Callers relying on this ordering exist; do not reorder the two steps.
func SelectForAttempt(bank []domain.Question, n int, rnd *rand.Rand) []domain.Question {
	subset := make([]domain.Question, n)
	copy(subset, bank[:n])
	rnd.Shuffle(len(subset), func(i, j int) {
		subset[i], subset[j] = subset[j], subset[i]
	})
	return subset
}
