package domain

import "fmt"

// Severity classifies the account balance.
type Severity int

const (
	SeverityOK       Severity = 0
	SeverityWarning  Severity = 1
	SeverityCritical Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Valid reports whether s is one of the known levels.
func (s Severity) Valid() bool {
	return s >= SeverityOK && s <= SeverityCritical
}

// AlertState is the persisted hysteresis state. Counter is reset whenever
// Level changes.
type AlertState struct {
	Level   Severity
	Counter int
}

// Thresholds are balance limits in minor currency units. A balance strictly
// below Critical is critical, strictly below Warning is a warning.
type Thresholds struct {
	Warning  int64
	Critical int64
}

// Classify maps a balance to a severity level.
func (t Thresholds) Classify(balance int64) Severity {
	switch {
	case balance < t.Critical:
		return SeverityCritical
	case balance < t.Warning:
		return SeverityWarning
	default:
		return SeverityOK
	}
}

// Escalate applies the notification policy to the previously persisted state
// and the freshly classified level. It returns the state to persist and
// whether a notification should be sent.
//
//   - moving up always notifies and resets the counter
//   - staying critical always notifies; the counter only counts
//   - staying at warning notifies when the counter hits a multiple of frequency
//   - staying ok is silent
//   - moving down is silent and resets the counter
func Escalate(prev AlertState, level Severity, frequency int) (AlertState, bool) {
	if frequency < 1 {
		frequency = 1
	}

	switch {
	case level > prev.Level:
		return AlertState{Level: level}, true
	case level < prev.Level:
		return AlertState{Level: level}, false
	}

	switch level {
	case SeverityCritical:
		return AlertState{Level: level, Counter: prev.Counter + 1}, true
	case SeverityWarning:
		counter := prev.Counter + 1
		return AlertState{Level: level, Counter: counter}, counter%frequency == 0
	default:
		return AlertState{Level: level}, false
	}
}
