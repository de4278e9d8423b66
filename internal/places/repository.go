package places

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Repository defines persistence operations for places.
type Repository interface {
	Create(ctx context.Context, place *Place) error
	Get(ctx context.Context, id int64) (*Place, error)
	List(ctx context.Context, communityID int64, levels []policy.PermissionLevel, limit, offset int) ([]Place, int, error)
	Update(ctx context.Context, place *Place) error
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

const placeColumns = `id, community_id, name, slug, description, type_of_place,
	latitude, longitude, region, permission_level, ceremonial_content,
	elder_approval_required, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, place *Place) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO places (community_id, name, slug, description, type_of_place,
			latitude, longitude, region, permission_level, ceremonial_content,
			elder_approval_required, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW())
		RETURNING id, created_at, updated_at`,
		place.CommunityID, place.Name, place.Slug, place.Description, place.TypeOfPlace,
		place.Latitude, place.Longitude, place.Region, string(place.PermissionLevel),
		place.CeremonialContent, place.ElderApprovalRequired).
		Scan(&place.ID, &place.CreatedAt, &place.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Place, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id)
	return scanPlace(row)
}

func (r *PGRepository) List(ctx context.Context, communityID int64, levels []policy.PermissionLevel, limit, offset int) ([]Place, int, error) {
	if len(levels) == 0 {
		return nil, 0, nil
	}
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM places WHERE community_id = $1 AND permission_level = ANY($2)`,
		communityID, names).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+placeColumns+` FROM places
		WHERE community_id = $1 AND permission_level = ANY($2)
		ORDER BY name LIMIT $3 OFFSET $4`,
		communityID, names, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var places []Place
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, 0, err
		}
		places = append(places, *place)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return places, total, nil
}

func (r *PGRepository) Update(ctx context.Context, place *Place) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE places SET name=$2, slug=$3, description=$4, type_of_place=$5,
			latitude=$6, longitude=$7, region=$8, permission_level=$9,
			ceremonial_content=$10, elder_approval_required=$11, updated_at=NOW()
		WHERE id=$1`,
		place.ID, place.Name, place.Slug, place.Description, place.TypeOfPlace,
		place.Latitude, place.Longitude, place.Region, string(place.PermissionLevel),
		place.CeremonialContent, place.ElderApprovalRequired)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanPlace(row pgx.Row) (*Place, error) {
	var place Place
	var level string
	err := row.Scan(&place.ID, &place.CommunityID, &place.Name, &place.Slug,
		&place.Description, &place.TypeOfPlace, &place.Latitude, &place.Longitude,
		&place.Region, &level, &place.CeremonialContent, &place.ElderApprovalRequired,
		&place.CreatedAt, &place.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	place.PermissionLevel = policy.PermissionLevel(level)
	return &place, nil
}

var _ Repository = (*PGRepository)(nil)
