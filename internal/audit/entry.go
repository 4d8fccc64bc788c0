package audit

// Event classifies what happened to an operation attempt.
type Event string

const (
	EventExecuted       Event = "executed"
	EventFailed         Event = "failed"
	EventCancelled      Event = "cancelled"
	EventRolledBack     Event = "rolled_back"
	EventRollbackFailed Event = "rollback_failed"
)

// Entry is one line in the hash-chained JSONL operation journal.
// All fields are scalars (no map[string]any) to guarantee deterministic
// json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp  string `json:"ts"`
	Event      Event  `json:"event"`
	Operation  string `json:"operation"`
	Command    string `json:"command"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	ExitCode   int    `json:"exit_code"`
	Detail     string `json:"detail,omitempty"`
	PrevHash   string `json:"prev_hash"`
}
