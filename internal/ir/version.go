package ir

const (
	// IRVersion is the record schema version stored with every run.
	IRVersion = "1"

	// EngineVersion is the chord engine version stored with every run.
	EngineVersion = "0.1.0"
)
