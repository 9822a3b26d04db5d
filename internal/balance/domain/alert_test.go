package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThresholdsClassify(t *testing.T) {
	t.Parallel()

	th := Thresholds{Warning: 25000, Critical: 10000}

	tests := []struct {
		name    string
		balance int64
		want    Severity
	}{
		{"well above warning", 100000, SeverityOK},
		{"exactly warning is ok", 25000, SeverityOK},
		{"just below warning", 24999, SeverityWarning},
		{"exactly critical is warning", 10000, SeverityWarning},
		{"just below critical", 9999, SeverityCritical},
		{"overdrawn", -500, SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, th.Classify(tt.balance))
		})
	}
}

func TestEscalate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		prev       AlertState
		level      Severity
		wantState  AlertState
		wantNotify bool
	}{
		{"ok stays ok", AlertState{}, SeverityOK, AlertState{}, false},
		{"ok to warning", AlertState{}, SeverityWarning, AlertState{Level: SeverityWarning}, true},
		{"ok to critical", AlertState{}, SeverityCritical, AlertState{Level: SeverityCritical}, true},
		{"warning to critical resets counter", AlertState{Level: SeverityWarning, Counter: 7}, SeverityCritical, AlertState{Level: SeverityCritical}, true},
		{"critical to warning is silent", AlertState{Level: SeverityCritical, Counter: 4}, SeverityWarning, AlertState{Level: SeverityWarning}, false},
		{"warning to ok is silent", AlertState{Level: SeverityWarning, Counter: 2}, SeverityOK, AlertState{}, false},
		{"critical stays critical", AlertState{Level: SeverityCritical, Counter: 1}, SeverityCritical, AlertState{Level: SeverityCritical, Counter: 2}, true},
		{"warning below boundary", AlertState{Level: SeverityWarning, Counter: 1}, SeverityWarning, AlertState{Level: SeverityWarning, Counter: 2}, false},
		{"warning on boundary", AlertState{Level: SeverityWarning, Counter: 2}, SeverityWarning, AlertState{Level: SeverityWarning, Counter: 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, notify := Escalate(tt.prev, tt.level, 3)
			require.Equal(t, tt.wantState, state)
			require.Equal(t, tt.wantNotify, notify)
		})
	}
}

// replay feeds levels through Escalate starting from start and collects the
// notification flags and counters.
func replay(start AlertState, levels []Severity, frequency int) ([]bool, []int) {
	state := start
	notifies := make([]bool, 0, len(levels))
	counters := make([]int, 0, len(levels))
	for _, level := range levels {
		var notify bool
		state, notify = Escalate(state, level, frequency)
		notifies = append(notifies, notify)
		counters = append(counters, state.Counter)
	}
	return notifies, counters
}

func TestEscalateSequences(t *testing.T) {
	t.Parallel()

	t.Run("notifies on every upward entry", func(t *testing.T) {
		notifies, _ := replay(AlertState{}, []Severity{SeverityOK, SeverityWarning, SeverityCritical}, 10)
		require.Equal(t, []bool{false, true, true}, notifies)
	})

	t.Run("warning is throttled by frequency", func(t *testing.T) {
		start := AlertState{Level: SeverityWarning}
		levels := []Severity{SeverityWarning, SeverityWarning, SeverityWarning, SeverityWarning}
		notifies, counters := replay(start, levels, 3)
		require.Equal(t, []bool{false, false, true, false}, notifies)
		require.Equal(t, []int{1, 2, 3, 4}, counters)
	})

	t.Run("critical is never throttled", func(t *testing.T) {
		start := AlertState{Level: SeverityCritical}
		levels := []Severity{SeverityCritical, SeverityCritical, SeverityCritical}
		notifies, counters := replay(start, levels, 10)
		require.Equal(t, []bool{true, true, true}, notifies)
		require.Equal(t, []int{1, 2, 3}, counters)
	})

	t.Run("downward transition resets and stays quiet", func(t *testing.T) {
		levels := []Severity{SeverityCritical, SeverityWarning, SeverityWarning, SeverityWarning}
		notifies, counters := replay(AlertState{}, levels, 10)
		require.Equal(t, []bool{true, false, false, false}, notifies)
		require.Equal(t, []int{0, 0, 1, 2}, counters)
	})

	t.Run("non positive frequency behaves like one", func(t *testing.T) {
		start := AlertState{Level: SeverityWarning}
		notifies, _ := replay(start, []Severity{SeverityWarning, SeverityWarning}, 0)
		require.Equal(t, []bool{true, true}, notifies)
	})
}

func TestSeverityString(t *testing.T) {
	require.Equal(t, "ok", SeverityOK.String())
	require.Equal(t, "warning", SeverityWarning.String())
	require.Equal(t, "critical", SeverityCritical.String())
	require.Equal(t, "severity(7)", Severity(7).String())
	require.False(t, Severity(3).Valid())
}
