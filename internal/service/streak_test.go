package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var testPolicy = StreakPolicy{
	Period:    24 * time.Hour,
	MaxGap:    48 * time.Hour,
	Threshold: 3,
	Bonus:     decimal.NewFromInt(2),
}

func TestStreakAdvance(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	s := StreakState{}
	step := testPolicy.Advance(s, t0)
	assert.Equal(t, 1, step.State.Length)
	assert.False(t, step.Extended)

	step = testPolicy.Advance(step.State, t0.Add(25*time.Hour))
	assert.Equal(t, 2, step.State.Length)
	assert.True(t, step.Extended)
	assert.True(t, step.Bonus.IsZero())

	step = testPolicy.Advance(step.State, t0.Add(50*time.Hour))
	assert.Equal(t, 3, step.State.Length)
	assert.True(t, step.Bonus.Equal(decimal.NewFromInt(2)))
	assert.True(t, step.State.BonusGranted)

	// same window: no change, no second bonus
	same := testPolicy.Advance(step.State, t0.Add(51*time.Hour))
	assert.Equal(t, 3, same.State.Length)
	assert.False(t, same.Extended)
	assert.True(t, same.Bonus.IsZero())

	// gap too long resets to 1, and crossing the threshold again pays nothing
	reset := testPolicy.Advance(same.State, t0.Add(200*time.Hour))
	assert.Equal(t, 1, reset.State.Length)
	st := reset.State
	for i := 1; i <= 3; i++ {
		next := testPolicy.Advance(st, t0.Add(200*time.Hour+time.Duration(i)*25*time.Hour))
		assert.True(t, next.Bonus.IsZero())
		st = next.State
	}
	assert.Equal(t, 4, st.Length)
}

func TestStreakIgnoresEntriesOlderThanAnchor(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	s := testPolicy.Advance(StreakState{}, t0).State
	step := testPolicy.Advance(s, t0.Add(-72*time.Hour))
	assert.Equal(t, s, step.State)
}

func TestStreakReplayMatchesIncremental(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	times := []time.Time{t0.Add(50 * time.Hour), t0, t0.Add(25 * time.Hour), t0.Add(26 * time.Hour)}
	s := testPolicy.Replay(times)
	assert.Equal(t, 3, s.Length)
	assert.True(t, s.BonusGranted)
	assert.Equal(t, 0, testPolicy.Current(StreakState{}, t0))
	assert.Equal(t, 3, testPolicy.Current(s, t0.Add(60*time.Hour)))
	assert.Equal(t, 1, testPolicy.Current(s, t0.Add(120*time.Hour)))
}
