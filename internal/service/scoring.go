package service

// Point economy constants. These are product-defined and must not drift:
// the flat bonus rewards finishing at all, the per-correct term rewards
// accuracy, and the percentage term biases rewards toward higher scores.
const (
	pointsPerCorrect = 10
	completionBonus  = 50
	percentWeight    = 2
)

// Score maps a graded submission to awarded points. Only a first attempt on a
// question bank earns anything; every retry scores zero. Pure integer
// arithmetic, no randomness, no floats.
func Score(correct, total, percentage int, isFirstAttempt bool) int {
	if !isFirstAttempt {
		return 0
	}
	return correct*pointsPerCorrect + completionBonus + percentage*percentWeight
}
