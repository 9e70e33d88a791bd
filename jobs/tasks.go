package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAttendanceDigest is the task type for the nightly per-organization
	// attendance summary.
	TaskAttendanceDigest = "attendance:digest"
)

// AttendanceDigestPayload selects the day to summarise. An empty Day means
// "yesterday, UTC".
type AttendanceDigestPayload struct {
	Day string `json:"day,omitempty"`
}

// NewAttendanceDigestTask constructs an Asynq task.
func NewAttendanceDigestTask(payload AttendanceDigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttendanceDigest, data), nil
}
