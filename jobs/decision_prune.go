package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/storyweave/storyweave/internal/jobs"
	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
	"github.com/storyweave/storyweave/jobs/tasks"
)

// PruneDecisionsJob trims the decision log to its retention window and
// sweeps stale idempotency keys along the way.
type PruneDecisionsJob struct {
	Store       *policy.Store
	Idempotency *shared.IdempotencyStore
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	clock       func() time.Time
}

// NewPruneDecisionsJob initialises the retention handler.
func NewPruneDecisionsJob(pool *pgxpool.Pool, logger *slog.Logger) *PruneDecisionsJob {
	return &PruneDecisionsJob{
		Store:       policy.NewStore(pool),
		Idempotency: shared.NewIdempotencyStore(pool),
		Logger:      logger,
		Metrics:     jobmetrics.NewMetrics(nil),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one retention pass.
func (j *PruneDecisionsJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("decision prune: handler not configured")
	}
	var payload tasks.PruneDecisionsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = 365
	}

	logger := j.logger().With(slog.Int("retention_days", payload.RetentionDays))
	cutoff := j.now().AddDate(0, 0, -payload.RetentionDays)
	tracker := j.Metrics.Track(tasks.TaskTypePruneDecisions)

	pruned, err := j.Store.PruneBefore(ctx, cutoff)
	if err != nil {
		logger.Error("prune decision log", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddPruned(pruned)

	if err := j.Idempotency.Cleanup(ctx, 48*time.Hour); err != nil {
		logger.Warn("sweep idempotency keys", slog.Any("error", err))
	}

	logger.Info("pruned decision log",
		slog.Int64("rows", pruned),
		slog.Time("cutoff", cutoff))
	return tracker.End(nil)
}

func (j *PruneDecisionsJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", tasks.TaskTypePruneDecisions))
	}
	return slog.Default().With(slog.String("job", tasks.TaskTypePruneDecisions))
}

func (j *PruneDecisionsJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
