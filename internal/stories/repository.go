package stories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/storyweave/storyweave/internal/platform/db"
	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Repository defines persistence operations for stories.
type Repository interface {
	Create(ctx context.Context, story *Story) error
	Get(ctx context.Context, id int64) (*Story, error)
	GetBySlug(ctx context.Context, communityID int64, slug string) (*Story, error)
	List(ctx context.Context, communityID int64, levels []policy.PermissionLevel, limit, offset int) ([]Story, int, error)
	Update(ctx context.Context, story *Story) error
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

const storyColumns = `id, community_id, title, slug, description, language,
	permission_level, ceremonial_content, elder_approval_required,
	created_by, created_at, updated_at`

// Create inserts the story and its place/speaker links in one transaction.
func (r *PGRepository) Create(ctx context.Context, story *Story) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO stories (community_id, title, slug, description, language,
				permission_level, ceremonial_content, elder_approval_required, created_by,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			RETURNING id, created_at, updated_at`,
			story.CommunityID, story.Title, story.Slug, story.Description, story.Language,
			string(story.PermissionLevel), story.CeremonialContent, story.ElderApprovalRequired,
			story.CreatedBy).
			Scan(&story.ID, &story.CreatedAt, &story.UpdatedAt)
		if err != nil {
			return mapPGError(err)
		}
		return replaceLinks(ctx, tx, story.ID, story.PlaceIDs, story.SpeakerIDs)
	})
}

// Get fetches one story with its links loaded concurrently.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Story, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = $1`, id)
	story, err := scanStory(row)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := fetchIDs(gctx, r.pool, `SELECT place_id FROM story_places WHERE story_id = $1 ORDER BY position`, id)
		story.PlaceIDs = ids
		return err
	})
	g.Go(func() error {
		ids, err := fetchIDs(gctx, r.pool, `SELECT speaker_id FROM story_speakers WHERE story_id = $1 ORDER BY position`, id)
		story.SpeakerIDs = ids
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return story, nil
}

// GetBySlug fetches one story by its community-scoped slug.
func (r *PGRepository) GetBySlug(ctx context.Context, communityID int64, slug string) (*Story, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE community_id = $1 AND slug = $2`,
		communityID, slug)
	story, err := scanStory(row)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, story.ID)
}

// List returns stories of one community whose permission level is in the
// given set, ordered by most recently updated, plus the total count.
func (r *PGRepository) List(ctx context.Context, communityID int64, levels []policy.PermissionLevel, limit, offset int) ([]Story, int, error) {
	if len(levels) == 0 {
		return nil, 0, nil
	}
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM stories WHERE community_id = $1 AND permission_level = ANY($2)`,
		communityID, names).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+storyColumns+` FROM stories
		WHERE community_id = $1 AND permission_level = ANY($2)
		ORDER BY updated_at DESC LIMIT $3 OFFSET $4`,
		communityID, names, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var stories []Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, 0, err
		}
		stories = append(stories, *story)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return stories, total, nil
}

// Update rewrites the story row and replaces its links.
func (r *PGRepository) Update(ctx context.Context, story *Story) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE stories SET title=$2, slug=$3, description=$4, language=$5,
				permission_level=$6, ceremonial_content=$7, elder_approval_required=$8,
				updated_at=NOW()
			WHERE id=$1`,
			story.ID, story.Title, story.Slug, story.Description, story.Language,
			string(story.PermissionLevel), story.CeremonialContent, story.ElderApprovalRequired)
		if err != nil {
			return mapPGError(err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return replaceLinks(ctx, tx, story.ID, story.PlaceIDs, story.SpeakerIDs)
	})
}

// Delete removes the story; link rows cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func replaceLinks(ctx context.Context, tx pgx.Tx, storyID int64, placeIDs, speakerIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM story_places WHERE story_id = $1`, storyID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM story_speakers WHERE story_id = $1`, storyID); err != nil {
		return err
	}
	for i, placeID := range placeIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO story_places (story_id, place_id, position) VALUES ($1, $2, $3)`,
			storyID, placeID, i); err != nil {
			return err
		}
	}
	for i, speakerID := range speakerIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO story_speakers (story_id, speaker_id, position) VALUES ($1, $2, $3)`,
			storyID, speakerID, i); err != nil {
			return err
		}
	}
	return nil
}

func fetchIDs(ctx context.Context, pool *pgxpool.Pool, query string, arg int64) ([]int64, error) {
	rows, err := pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanStory(row pgx.Row) (*Story, error) {
	var story Story
	var level string
	err := row.Scan(&story.ID, &story.CommunityID, &story.Title, &story.Slug,
		&story.Description, &story.Language, &level, &story.CeremonialContent,
		&story.ElderApprovalRequired, &story.CreatedBy, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	story.PermissionLevel = policy.PermissionLevel(level)
	return &story, nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
