package themes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storyweave/storyweave/internal/shared"
)

// Repository defines persistence operations for themes.
type Repository interface {
	GetByCommunity(ctx context.Context, communityID int64) (*Theme, error)
	Upsert(ctx context.Context, theme *Theme) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) GetByCommunity(ctx context.Context, communityID int64) (*Theme, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, community_id, mapbox_style_url, center_latitude, center_longitude,
			zoom_level, pitch_degrees, bearing_degrees, primary_color, created_at, updated_at
		FROM themes WHERE community_id = $1`, communityID)

	var t Theme
	err := row.Scan(&t.ID, &t.CommunityID, &t.MapboxStyleURL, &t.CenterLatitude,
		&t.CenterLongitude, &t.ZoomLevel, &t.PitchDegrees, &t.BearingDegrees,
		&t.PrimaryColor, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) Upsert(ctx context.Context, theme *Theme) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO themes (community_id, mapbox_style_url, center_latitude,
			center_longitude, zoom_level, pitch_degrees, bearing_degrees, primary_color,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
		ON CONFLICT (community_id) DO UPDATE SET
			mapbox_style_url = EXCLUDED.mapbox_style_url,
			center_latitude = EXCLUDED.center_latitude,
			center_longitude = EXCLUDED.center_longitude,
			zoom_level = EXCLUDED.zoom_level,
			pitch_degrees = EXCLUDED.pitch_degrees,
			bearing_degrees = EXCLUDED.bearing_degrees,
			primary_color = EXCLUDED.primary_color,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		theme.CommunityID, theme.MapboxStyleURL, theme.CenterLatitude,
		theme.CenterLongitude, theme.ZoomLevel, theme.PitchDegrees,
		theme.BearingDegrees, theme.PrimaryColor).
		Scan(&theme.ID, &theme.CreatedAt, &theme.UpdatedAt)
}

var _ Repository = (*PGRepository)(nil)
