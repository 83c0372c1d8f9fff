package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionSweep prunes stale session audit rows.
	TaskSessionSweep = "session:sweep"
)

// SessionSweepPayload bounds the sweep to audits older than MaxAgeHours.
type SessionSweepPayload struct {
	MaxAgeHours int `json:"max_age_hours"`
}

// NewSessionSweepTask constructs an Asynq task for the session sweep.
func NewSessionSweepTask(maxAgeHours int) (*asynq.Task, error) {
	data, err := json.Marshal(SessionSweepPayload{MaxAgeHours: maxAgeHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionSweep, data), nil
}
