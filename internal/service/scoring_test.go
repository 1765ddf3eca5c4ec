package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_FirstAttempt(t *testing.T) {
	// 8 correct * 10 + completion 50 + 80% * 2 = 290
	assert.Equal(t, 290, Score(8, 10, 80, true))
}

func TestScore_PerfectRun(t *testing.T) {
	// 10*10 + 50 + 100*2 = 350
	assert.Equal(t, 350, Score(10, 10, 100, true))
}

func TestScore_ZeroCorrectStillGetsCompletionBonus(t *testing.T) {
	// 0 + 50 + 0 = 50: finishing a bank is worth the bonus even with no
	// correct answers
	assert.Equal(t, 50, Score(0, 10, 0, true))
}

func TestScore_RepeatAttemptAwardsNothing(t *testing.T) {
	assert.Equal(t, 0, Score(10, 10, 100, false))
	assert.Equal(t, 0, Score(0, 5, 0, false))
}
