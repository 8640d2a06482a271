package session

// XPGained is delivered after any operation that changes the profile's
// XP total.
type XPGained struct {
	Amount    int
	Source    string
	NewTotal  int
	LeveledUp bool
}

// LevelUp is delivered when an XP change crosses one or more level
// thresholds.
type LevelUp struct {
	OldLevel int
	NewLevel int
}

// PersonalRecord is delivered when a set beats the best prior estimated
// one-rep-max for its exercise.
type PersonalRecord struct {
	ExerciseID   string
	ExerciseName string
	OneRepMax    float64
}

// Listener receives session events. Every registered listener gets
// every event; delivery happens synchronously on the mutating call.
type Listener interface {
	OnXPGained(XPGained)
	OnLevelUp(LevelUp)
	OnPersonalRecord(PersonalRecord)
}

func (m *Machine) notifyXPGained(e XPGained) {
	for _, l := range m.listeners {
		l.OnXPGained(e)
	}
}

func (m *Machine) notifyLevelUp(e LevelUp) {
	for _, l := range m.listeners {
		l.OnLevelUp(e)
	}
}

func (m *Machine) notifyPersonalRecord(e PersonalRecord) {
	for _, l := range m.listeners {
		l.OnPersonalRecord(e)
	}
}
