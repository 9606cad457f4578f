package models

// TaskStatus is the state of one upload task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// UploadTask tracks one file through the simulated upload. Tasks are
// ephemeral: they live for the duration of a submitted batch.
type UploadTask struct {
	Descriptor FileDescriptor
	Progress   int // 0–100
	Status     TaskStatus
}

// ProgressEvent is one element of the stream produced for a submitted batch.
// A final event with BatchDone set is emitted after every task has reached a
// terminal state, after which the stream closes.
type ProgressEvent struct {
	FileName      string
	Progress      int
	Status        TaskStatus
	Message       string
	Err           error
	BatchDone     bool
	BatchProgress int
}

// AggregateProgress is the arithmetic mean of per-task progress, rounded
// down. Display-only; not load-bearing for correctness.
func AggregateProgress(tasks []*UploadTask) int {
	if len(tasks) == 0 {
		return 0
	}
	total := 0
	for _, t := range tasks {
		total += t.Progress
	}
	return total / len(tasks)
}
