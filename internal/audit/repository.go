package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storyweave/storyweave/internal/policy"
)

// Repository defines read access to the decision log.
type Repository interface {
	Review(ctx context.Context, communityID int64, f Filters, limit, offset int) ([]Entry, int, error)
}

// PGRepository reads the policy_decisions table the recorder writes.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Review returns the community's decision rows matching the filters, newest
// first, plus the total count.
func (r *PGRepository) Review(ctx context.Context, communityID int64, f Filters, limit, offset int) ([]Entry, int, error) {
	where := []string{"resource_community_id = $1"}
	args := []any{communityID}

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if !f.From.IsZero() {
		add("occurred_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("occurred_at < $%d", f.To)
	}
	if f.Outcome != "" {
		add("outcome = $%d", string(f.Outcome))
	}
	if f.Reason != "" {
		add("reason = $%d", string(f.Reason))
	}
	if f.ActorID != 0 {
		add("actor_id = $%d", f.ActorID)
	}
	if f.ResourceType != "" {
		add("resource_type = $%d", f.ResourceType)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM policy_decisions WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, actor_id, actor_role, actor_community_id, resource_type,
			resource_id, resource_community_id, action, outcome, reason, detail,
			occurred_at
		FROM policy_decisions
		WHERE %s
		ORDER BY occurred_at DESC
		LIMIT $%d OFFSET $%d`, cond, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var role, action, outcome, reason string
		if err := rows.Scan(&e.ID, &e.ActorID, &role, &e.ActorCommunityID,
			&e.ResourceType, &e.ResourceID, &e.ResourceCommunityID, &action,
			&outcome, &reason, &e.Detail, &e.OccurredAt); err != nil {
			return nil, 0, err
		}
		e.ActorRole = policy.Role(role)
		e.Action = policy.Action(action)
		e.Outcome = policy.Outcome(outcome)
		e.Reason = policy.Reason(reason)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

var _ Repository = (*PGRepository)(nil)
