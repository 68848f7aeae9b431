package ir

// Version constants for the IR and the compiler.
const (
	// IRVersion is the IR schema version. It participates in artifact
	// fingerprints, so bump it when the Query shape changes.
	IRVersion = "1"

	// CompilerVersion is the dfsqlc compiler version.
	CompilerVersion = "0.1.0"
)
