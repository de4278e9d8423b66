package speakers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Repository defines persistence operations for speakers.
type Repository interface {
	Create(ctx context.Context, speaker *Speaker) error
	Get(ctx context.Context, id int64) (*Speaker, error)
	List(ctx context.Context, communityID int64, levels []policy.PermissionLevel, limit, offset int) ([]Speaker, int, error)
	Update(ctx context.Context, speaker *Speaker) error
	SetElderStatus(ctx context.Context, id int64, isElder bool) error
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

const speakerColumns = `id, community_id, name, bio, birthplace, birth_year,
	is_elder, permission_level, ceremonial_content, elder_approval_required,
	created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, speaker *Speaker) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO speakers (community_id, name, bio, birthplace, birth_year,
			is_elder, permission_level, ceremonial_content, elder_approval_required,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
		RETURNING id, created_at, updated_at`,
		speaker.CommunityID, speaker.Name, speaker.Bio, speaker.Birthplace,
		speaker.BirthYear, speaker.IsElder, string(speaker.PermissionLevel),
		speaker.CeremonialContent, speaker.ElderApprovalRequired).
		Scan(&speaker.ID, &speaker.CreatedAt, &speaker.UpdatedAt)
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Speaker, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+speakerColumns+` FROM speakers WHERE id = $1`, id)
	return scanSpeaker(row)
}

func (r *PGRepository) List(ctx context.Context, communityID int64, levels []policy.PermissionLevel, limit, offset int) ([]Speaker, int, error) {
	if len(levels) == 0 {
		return nil, 0, nil
	}
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM speakers WHERE community_id = $1 AND permission_level = ANY($2)`,
		communityID, names).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+speakerColumns+` FROM speakers
		WHERE community_id = $1 AND permission_level = ANY($2)
		ORDER BY name LIMIT $3 OFFSET $4`,
		communityID, names, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var speakers []Speaker
	for rows.Next() {
		speaker, err := scanSpeaker(rows)
		if err != nil {
			return nil, 0, err
		}
		speakers = append(speakers, *speaker)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return speakers, total, nil
}

func (r *PGRepository) Update(ctx context.Context, speaker *Speaker) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE speakers SET name=$2, bio=$3, birthplace=$4, birth_year=$5,
			permission_level=$6, ceremonial_content=$7, elder_approval_required=$8,
			updated_at=NOW()
		WHERE id=$1`,
		speaker.ID, speaker.Name, speaker.Bio, speaker.Birthplace, speaker.BirthYear,
		string(speaker.PermissionLevel), speaker.CeremonialContent,
		speaker.ElderApprovalRequired)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) SetElderStatus(ctx context.Context, id int64, isElder bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE speakers SET is_elder=$2, updated_at=NOW() WHERE id=$1`, id, isElder)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM speakers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanSpeaker(row pgx.Row) (*Speaker, error) {
	var speaker Speaker
	var level string
	err := row.Scan(&speaker.ID, &speaker.CommunityID, &speaker.Name, &speaker.Bio,
		&speaker.Birthplace, &speaker.BirthYear, &speaker.IsElder, &level,
		&speaker.CeremonialContent, &speaker.ElderApprovalRequired,
		&speaker.CreatedAt, &speaker.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	speaker.PermissionLevel = policy.PermissionLevel(level)
	return &speaker, nil
}

var _ Repository = (*PGRepository)(nil)
