package policy

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists decision records in the policy_decisions table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store backed by the provided pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertDecision appends one record to the decision log.
func (s *Store) InsertDecision(ctx context.Context, rec DecisionRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO policy_decisions
			(actor_id, actor_role, actor_community_id, resource_type, resource_id,
			 resource_community_id, action, outcome, reason, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ActorID, string(rec.ActorRole), rec.ActorCommunityID,
		rec.ResourceType, rec.ResourceID, rec.ResourceCommunityID,
		string(rec.Action), string(rec.Outcome), string(rec.Reason),
		rec.Detail, rec.OccurredAt)
	return err
}

// PruneBefore deletes records older than the cutoff and returns how many
// rows were removed. The retention job calls this on a schedule.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM policy_decisions WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
