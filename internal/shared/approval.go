package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApprovalAction enumerates elder approval log actions.
type ApprovalAction string

const (
	// ApprovalSubmit marks content submitted for elder review.
	ApprovalSubmit ApprovalAction = "SUBMIT"
	// ApprovalApprove marks an elder approval.
	ApprovalApprove ApprovalAction = "APPROVE"
	// ApprovalReject marks an elder rejection.
	ApprovalReject ApprovalAction = "REJECT"
)

// ApprovalLog represents a single elder approval record. Content tagged
// elder_approval_required enters this history on create and update and is
// resolved by an elder or admin of the owning community.
type ApprovalLog struct {
	ID           int64
	ResourceType string
	ResourceID   int64
	ActorID      int64
	Action       ApprovalAction
	Note         string
	At           time.Time
}

// ApprovalRecorder persists elder approval history.
type ApprovalRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewApprovalRecorder constructs ApprovalRecorder.
func NewApprovalRecorder(pool *pgxpool.Pool, logger *slog.Logger) *ApprovalRecorder {
	return &ApprovalRecorder{pool: pool, logger: logger}
}

// Record writes approval entry to database.
func (r *ApprovalRecorder) Record(ctx context.Context, log ApprovalLog) error {
	if r == nil {
		return errors.New("approval recorder not initialised")
	}
	if log.ResourceType == "" {
		return errors.New("approval resource type required")
	}
	if log.ResourceID == 0 {
		return errors.New("approval resource id required")
	}
	if log.ActorID == 0 {
		return errors.New("approval actor required")
	}
	if log.Action == "" {
		return errors.New("approval action required")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO elder_approvals (resource_type, resource_id, actor_id, action, note, at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ResourceType, log.ResourceID, log.ActorID, string(log.Action), log.Note, log.At)
	if err != nil {
		r.logger.Error("record elder approval", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns approval history for one resource.
func (r *ApprovalRecorder) List(ctx context.Context, resourceType string, resourceID int64) ([]ApprovalLog, error) {
	if r == nil {
		return nil, errors.New("approval recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, resource_type, resource_id, actor_id, action, note, at
FROM elder_approvals WHERE resource_type=$1 AND resource_id=$2 ORDER BY at ASC`, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []ApprovalLog
	for rows.Next() {
		var l ApprovalLog
		var action string
		if err := rows.Scan(&l.ID, &l.ResourceType, &l.ResourceID, &l.ActorID, &action, &l.Note, &l.At); err != nil {
			return nil, err
		}
		l.Action = ApprovalAction(action)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// EnsureSubmit creates the submit record for a resource if none exists yet.
func (r *ApprovalRecorder) EnsureSubmit(ctx context.Context, resourceType string, resourceID, actorID int64, note string) error {
	if r == nil {
		return errors.New("approval recorder not initialised")
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT true FROM elder_approvals WHERE resource_type=$1 AND resource_id=$2 AND action='SUBMIT' LIMIT 1`, resourceType, resourceID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.Record(ctx, ApprovalLog{ResourceType: resourceType, ResourceID: resourceID, ActorID: actorID, Action: ApprovalSubmit, Note: note})
		}
		return err
	}
	return nil
}
