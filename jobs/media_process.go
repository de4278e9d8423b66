package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storyweave/storyweave/internal/files"
	jobmetrics "github.com/storyweave/storyweave/internal/jobs"
	"github.com/storyweave/storyweave/jobs/tasks"
)

// ProcessMediaJob marks uploaded media as processed once its derivatives
// exist. Derivative generation itself (transcoding, thumbnails) runs outside
// the platform; this job validates the record and settles its status.
type ProcessMediaJob struct {
	Repo    files.Repository
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewProcessMediaJob initialises the media handler.
func NewProcessMediaJob(pool *pgxpool.Pool, logger *slog.Logger) *ProcessMediaJob {
	return &ProcessMediaJob{
		Repo:    files.NewRepository(pool),
		Logger:  logger,
		Metrics: jobmetrics.NewMetrics(nil),
	}
}

// Handle settles the status of one uploaded object.
func (j *ProcessMediaJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("media process: handler not configured")
	}
	var payload tasks.ProcessMediaPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.FileID == 0 || payload.ObjectKey == "" {
		return asynq.SkipRetry
	}

	logger := j.logger().With(
		slog.Int64("file_id", payload.FileID),
		slog.String("object_key", payload.ObjectKey),
	)
	start := time.Now()
	tracker := j.Metrics.Track(tasks.TaskTypeProcessMedia)

	status := files.StatusProcessed
	if !supportedMedia(payload.ContentType) {
		status = files.StatusFailed
		logger.Warn("unsupported media type", slog.String("content_type", payload.ContentType))
	}

	if err := j.Repo.SetStatus(ctx, payload.FileID, status); err != nil {
		logger.Error("settle media status", slog.Any("error", err))
		return tracker.End(err)
	}

	logger.Info("settled media status",
		slog.String("status", string(status)),
		slog.Duration("duration", time.Since(start)))
	return tracker.End(nil)
}

func supportedMedia(contentType string) bool {
	switch {
	case strings.HasPrefix(contentType, "audio/"),
		strings.HasPrefix(contentType, "video/"),
		strings.HasPrefix(contentType, "image/"):
		return true
	}
	return false
}

func (j *ProcessMediaJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", tasks.TaskTypeProcessMedia))
	}
	return slog.Default().With(slog.String("job", tasks.TaskTypeProcessMedia))
}
