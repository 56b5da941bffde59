package watcher

// State is the submission-capture state of one Watcher.
type State int32

const (
	// Idle: no submit control found yet.
	Idle State = iota
	// Armed: an activation handler is attached to the current control.
	Armed
	// Polling: a capture cycle is running.
	Polling
	// Done: a cycle just ended; the watcher re-arms immediately.
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Polling:
		return "polling"
	case Done:
		return "done"
	}
	return "unknown"
}
