package ir

// Version constants for IR schema and engine.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// EngineVersion is the autotile solver version. Recorded with every stored
	// run so replays can tell when results were produced by another solver.
	EngineVersion = "0.1.0"
)
