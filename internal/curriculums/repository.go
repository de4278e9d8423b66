package curriculums

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storyweave/storyweave/internal/platform/db"
	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Repository defines persistence operations for curriculums.
type Repository interface {
	Create(ctx context.Context, cur *Curriculum) error
	Get(ctx context.Context, id int64) (*Curriculum, error)
	List(ctx context.Context, communityID int64, levels []policy.PermissionLevel, limit, offset int) ([]Curriculum, int, error)
	Update(ctx context.Context, cur *Curriculum) error
	Delete(ctx context.Context, id int64) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const curriculumColumns = `id, community_id, title, slug, description,
	permission_level, ceremonial_content, elder_approval_required,
	created_by, created_at, updated_at`

// Create inserts the curriculum and its story links in one transaction.
func (r *PGRepository) Create(ctx context.Context, cur *Curriculum) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO curriculums (community_id, title, slug, description,
				permission_level, ceremonial_content, elder_approval_required, created_by,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			RETURNING id, created_at, updated_at`,
			cur.CommunityID, cur.Title, cur.Slug, cur.Description,
			string(cur.PermissionLevel), cur.CeremonialContent, cur.ElderApprovalRequired,
			cur.CreatedBy).
			Scan(&cur.ID, &cur.CreatedAt, &cur.UpdatedAt)
		if err != nil {
			return mapPGError(err)
		}
		return replaceStoryLinks(ctx, tx, cur.ID, cur.StoryIDs)
	})
}

// Get fetches one curriculum with its ordered story links.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Curriculum, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+curriculumColumns+` FROM curriculums WHERE id = $1`, id)
	cur, err := scanCurriculum(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT story_id FROM curriculum_stories WHERE curriculum_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var storyID int64
		if err := rows.Scan(&storyID); err != nil {
			return nil, err
		}
		cur.StoryIDs = append(cur.StoryIDs, storyID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cur, nil
}

// List returns curriculums of one community whose permission level is in the
// given set, ordered by most recently updated, plus the total count.
func (r *PGRepository) List(ctx context.Context, communityID int64, levels []policy.PermissionLevel, limit, offset int) ([]Curriculum, int, error) {
	if len(levels) == 0 {
		return nil, 0, nil
	}
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM curriculums WHERE community_id = $1 AND permission_level = ANY($2)`,
		communityID, names).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+curriculumColumns+` FROM curriculums
		WHERE community_id = $1 AND permission_level = ANY($2)
		ORDER BY updated_at DESC LIMIT $3 OFFSET $4`,
		communityID, names, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var curriculums []Curriculum
	for rows.Next() {
		cur, err := scanCurriculum(rows)
		if err != nil {
			return nil, 0, err
		}
		curriculums = append(curriculums, *cur)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return curriculums, total, nil
}

// Update rewrites the curriculum row and replaces its story links.
func (r *PGRepository) Update(ctx context.Context, cur *Curriculum) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE curriculums SET title=$2, slug=$3, description=$4,
				permission_level=$5, ceremonial_content=$6, elder_approval_required=$7,
				updated_at=NOW()
			WHERE id=$1`,
			cur.ID, cur.Title, cur.Slug, cur.Description,
			string(cur.PermissionLevel), cur.CeremonialContent, cur.ElderApprovalRequired)
		if err != nil {
			return mapPGError(err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return replaceStoryLinks(ctx, tx, cur.ID, cur.StoryIDs)
	})
}

// Delete removes the curriculum; link rows cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM curriculums WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func replaceStoryLinks(ctx context.Context, tx pgx.Tx, curriculumID int64, storyIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM curriculum_stories WHERE curriculum_id = $1`, curriculumID); err != nil {
		return err
	}
	for i, storyID := range storyIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO curriculum_stories (curriculum_id, story_id, position) VALUES ($1, $2, $3)`,
			curriculumID, storyID, i); err != nil {
			return err
		}
	}
	return nil
}

func scanCurriculum(row pgx.Row) (*Curriculum, error) {
	var cur Curriculum
	var level string
	err := row.Scan(&cur.ID, &cur.CommunityID, &cur.Title, &cur.Slug,
		&cur.Description, &level, &cur.CeremonialContent,
		&cur.ElderApprovalRequired, &cur.CreatedBy, &cur.CreatedAt, &cur.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	cur.PermissionLevel = policy.PermissionLevel(level)
	return &cur, nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
