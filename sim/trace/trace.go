package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every selection attempt and request outcome.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether records should be collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelDecisions
}

// SimulationTrace collects decision records during a cloud simulation.
type SimulationTrace struct {
	Config     TraceConfig
	Selections []SelectionRecord
	Acks       []AckRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		Selections: make([]SelectionRecord, 0),
		Acks:       make([]AckRecord, 0),
	}
}

// RecordSelection appends a selection attempt record.
func (st *SimulationTrace) RecordSelection(record SelectionRecord) {
	st.Selections = append(st.Selections, record)
}

// RecordAck appends a request outcome record.
func (st *SimulationTrace) RecordAck(record AckRecord) {
	st.Acks = append(st.Acks, record)
}
