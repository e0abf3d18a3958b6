package output

// Status is the per-key outcome of an operation.
type Status string

const (
	StatusLoaded Status = "LOADED"
	StatusFailed Status = "FAILED"
	// StatusSkipped marks keys the source has no value for.
	StatusSkipped Status = "SKIPPED"
	StatusWritten Status = "WRITTEN"
	StatusDeleted Status = "DELETED"
)

// Operations recorded on lifecycle events.
const (
	OpLoad   = "load"
	OpGet    = "get"
	OpPut    = "put"
	OpDelete = "delete"
)

// KeyResult is the presented outcome for one requested key.
type KeyResult struct {
	Key     string `json:"key"`
	Status  Status `json:"status"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message,omitempty"`
}

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started
// - key.result
// - run.finished
//
// JSON mode remains an aggregate of KeyResult values.
type Event struct {
	Type  string `json:"type"`
	// RunID ties the lifecycle events of one run together.
	RunID string `json:"run_id,omitempty"`
	*KeyResult
	Op       string `json:"op,omitempty"`
	Source   string `json:"source,omitempty"`
	Keys     int    `json:"keys,omitempty"`
	Loaded   int    `json:"loaded,omitempty"`
	Failed   int    `json:"failed,omitempty"`
	Skipped  int    `json:"skipped,omitempty"`
	Written  int    `json:"written,omitempty"`
	Deleted  int    `json:"deleted,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
}

const (
	EventRunStarted  = "run.started"
	EventKeyResult   = "key.result"
	EventRunFinished = "run.finished"
)

func eventFromResult(r KeyResult) Event {
	return Event{Type: EventKeyResult, KeyResult: &r}
}
