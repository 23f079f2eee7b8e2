package scheduling

// Symbols used in a snapshot.
const (
	SymbolIdle    = ""
	SymbolRunning = "X"
)

// A Snapshot is the state of every process at one tick.
type Snapshot struct {
	Tick int

	// States maps a process id to "" when it has not arrived or has
	// finished, "X" when it runs, and its 1-based rank in the ready queue
	// otherwise.
	States map[int]string

	// Running is the id of the running process, 0 when the CPU is idle.
	Running int

	// RemainingWork is the burst still needed by all unfinished processes,
	// counted before the tick executes.
	RemainingWork int
}
