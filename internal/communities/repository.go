package communities

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storyweave/storyweave/internal/shared"
)

// Repository defines persistence operations for communities.
type Repository interface {
	Create(ctx context.Context, community *Community) error
	Get(ctx context.Context, id int64) (*Community, error)
	List(ctx context.Context, limit, offset int) ([]Community, int, error)
	Update(ctx context.Context, community *Community) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const communityColumns = `id, name, slug, description, country, locale, public,
	created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, community *Community) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO communities (name, slug, description, country, locale, public,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
		RETURNING id, created_at, updated_at`,
		community.Name, community.Slug, community.Description, community.Country,
		community.Locale, community.Public).
		Scan(&community.ID, &community.CreatedAt, &community.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Community, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+communityColumns+` FROM communities WHERE id = $1`, id)
	var c Community
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Country, &c.Locale,
		&c.Public, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) List(ctx context.Context, limit, offset int) ([]Community, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM communities`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+communityColumns+` FROM communities ORDER BY name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var communities []Community
	for rows.Next() {
		var c Community
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Country,
			&c.Locale, &c.Public, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		communities = append(communities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return communities, total, nil
}

func (r *PGRepository) Update(ctx context.Context, community *Community) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE communities SET name=$2, slug=$3, description=$4, country=$5,
			locale=$6, public=$7, updated_at=NOW()
		WHERE id=$1`,
		community.ID, community.Name, community.Slug, community.Description,
		community.Country, community.Locale, community.Public)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
