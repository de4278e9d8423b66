// Package tasks defines the background task payloads, queue names, and
// constructors shared by the enqueueing services and the asynq worker:
// decision-log retention pruning on a schedule and media derivative
// processing enqueued by uploads.
package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueMedia carries media derivative processing.
	QueueMedia = "media"

	// TaskTypePruneDecisions trims aged rows from the decision log.
	TaskTypePruneDecisions = "decisions:prune"
	// TaskTypeProcessMedia generates derivatives for an uploaded object.
	TaskTypeProcessMedia = "media:process"
)

// PruneDecisionsPayload configures one retention pass.
type PruneDecisionsPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewPruneDecisionsTask constructs the retention task.
func NewPruneDecisionsTask(payload PruneDecisionsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePruneDecisions, data), nil
}

// ProcessMediaPayload identifies the object to process.
type ProcessMediaPayload struct {
	FileID      int64  `json:"file_id"`
	ObjectKey   string `json:"object_key"`
	ContentType string `json:"content_type"`
}

// NewProcessMediaTask constructs a media processing task.
func NewProcessMediaTask(payload ProcessMediaPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeProcessMedia, data), nil
}
