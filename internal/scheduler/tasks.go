package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskWorkflowSweep = "workflow.sweep"

// WorkflowSweepPayload carries the optional reference instant for a sweep.
// An empty AsOf means "now"; a fixed instant is used for replays and tests.
type WorkflowSweepPayload struct {
	AsOf string `json:"asOf,omitempty"`
}

// At returns the payload's reference instant, falling back to the wall clock.
func (p WorkflowSweepPayload) At() (time.Time, error) {
	if p.AsOf == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339, p.AsOf)
}

func NewWorkflowSweepTask(payload WorkflowSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWorkflowSweep, data), nil
}

func ParseWorkflowSweepPayload(task *asynq.Task) (WorkflowSweepPayload, error) {
	var payload WorkflowSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return WorkflowSweepPayload{}, err
	}
	return payload, nil
}
