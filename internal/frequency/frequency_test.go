package frequency

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/textutil"
)

const (
	pass    = conversation.ClassificationPass
	partial = conversation.ClassificationPartial
	retry   = conversation.ClassificationRetry
)

func TestTargetRange(t *testing.T) {
	tests := []struct {
		name    string
		history []conversation.Classification
		lo, hi  int
	}{
		{"empty", nil, 3, 4},
		{"one pass", []conversation.Classification{pass}, 3, 4},
		{"two passes", []conversation.Classification{pass, pass}, 2, 3},
		{"two passes and a retry", []conversation.Classification{pass, retry, pass}, 2, 3},
		{"one retry", []conversation.Classification{partial, retry}, 4, 5},
		{"partials", []conversation.Classification{partial, partial, partial}, 3, 4},
		{"old passes ignored", []conversation.Classification{pass, pass, retry, partial, partial}, 4, 5},
		{"old retry ignored", []conversation.Classification{retry, partial, partial, partial}, 3, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := TargetRange(tt.history)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("got [%d,%d], want [%d,%d]", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestCalculateTarget_AlwaysInRange(t *testing.T) {
	c := NewCalculator(textutil.NewSeededSource(7))
	all := []conversation.Classification{pass, partial, retry}

	// Every history of length 0..3.
	histories := [][]conversation.Classification{nil}
	for range 3 {
		var next [][]conversation.Classification
		for _, h := range histories {
			for _, v := range all {
				next = append(next, append(append([]conversation.Classification{}, h...), v))
			}
		}
		histories = append(histories, next...)
	}

	for _, h := range histories {
		lo, hi := TargetRange(h)
		for range 50 {
			got := c.CalculateTarget(h)
			assert.GreaterOrEqual(t, got, lo)
			assert.LessOrEqual(t, got, hi)
			assert.GreaterOrEqual(t, got, conversation.MinTarget)
			assert.LessOrEqual(t, got, conversation.MaxTarget)
		}
	}
}

func TestCalculateTarget_FixedSourceHitsBounds(t *testing.T) {
	confident := []conversation.Classification{pass, pass, partial}
	assert.Equal(t, 2, NewCalculator(textutil.FixedSource(0)).CalculateTarget(confident))
	assert.Equal(t, 3, NewCalculator(textutil.FixedSource(9)).CalculateTarget(confident))
}

func stateWith(count int, watermark *int) conversation.State {
	s := conversation.NewState()
	s.TeachingExchangeCount = count
	s.LastCheckpointAtExchange = watermark
	return s
}

func intp(v int) *int { return &v }

func TestShouldTrigger_IntroductoryPhase(t *testing.T) {
	c := NewCalculator(textutil.FixedSource(0))
	for count := range MinTeachingExchanges {
		d := c.ShouldTrigger(stateWith(count, nil))
		assert.False(t, d.Trigger)
		assert.Equal(t, ReasonIntroductory, d.Reason)
	}
}

func TestShouldTrigger_InCheckpoint(t *testing.T) {
	c := NewCalculator(textutil.FixedSource(0))
	s := stateWith(10, nil).EnterCheckpoint("photosynthesis", "prompt")
	s.NextCheckpointTarget = 4

	d := c.ShouldTrigger(s)
	assert.False(t, d.Trigger)
	assert.Equal(t, ReasonInCheckpoint, d.Reason)
	assert.Equal(t, 4, d.NextTarget)
}

func TestShouldTrigger_GuardKeepsTarget(t *testing.T) {
	c := NewCalculator(textutil.FixedSource(0))
	for _, count := range []int{3, 4, 5} {
		s := stateWith(count, intp(5))
		s.NextCheckpointTarget = 5
		s.LastThreeValidationResults = []conversation.Classification{pass, pass}

		d := c.ShouldTrigger(s)
		assert.False(t, d.Trigger, "count %d", count)
		assert.Equal(t, ReasonGuard, d.Reason)
		assert.Equal(t, 5, d.NextTarget, "guard must not recompute the target")
	}
}

func TestShouldTrigger_FirstCheckpoint(t *testing.T) {
	c := NewCalculator(textutil.FixedSource(0))

	d := c.ShouldTrigger(stateWith(2, nil))
	assert.False(t, d.Trigger)
	assert.Equal(t, ReasonBelowTarget, d.Reason)
	assert.Equal(t, 3, d.NextTarget)

	d = c.ShouldTrigger(stateWith(3, nil))
	assert.True(t, d.Trigger)
	assert.Equal(t, ReasonTargetReached, d.Reason)
}

func TestShouldTrigger_MeasuredFromWatermark(t *testing.T) {
	c := NewCalculator(textutil.FixedSource(0))
	history := []conversation.Classification{pass, pass}

	s := stateWith(4, intp(3))
	s.LastThreeValidationResults = history
	d := c.ShouldTrigger(s)
	assert.False(t, d.Trigger)
	assert.Equal(t, 1, d.Since)

	s = stateWith(5, intp(3))
	s.LastThreeValidationResults = history
	d = c.ShouldTrigger(s)
	assert.True(t, d.Trigger)
	assert.Equal(t, 2, d.NextTarget)
}

func TestShouldTrigger_NeverTriggersAtOrBelowWatermark(t *testing.T) {
	c := NewCalculator(textutil.NewSeededSource(1))
	for wm := 0; wm < 10; wm++ {
		for count := 0; count <= wm; count++ {
			d := c.ShouldTrigger(stateWith(count, intp(wm)))
			if d.Trigger {
				t.Fatalf("triggered at count %d with watermark %d", count, wm)
			}
		}
	}
}
