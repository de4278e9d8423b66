package files

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Repository defines persistence operations for media metadata.
type Repository interface {
	Create(ctx context.Context, file *File) error
	Get(ctx context.Context, id int64) (*File, error)
	SetStatus(ctx context.Context, id int64, status Status) error
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

const fileColumns = `id, community_id, object_key, filename, content_type,
	size_bytes, status, permission_level, ceremonial_content,
	elder_approval_required, uploaded_by, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, file *File) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO files (community_id, object_key, filename, content_type,
			size_bytes, status, permission_level, ceremonial_content,
			elder_approval_required, uploaded_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
		RETURNING id, created_at, updated_at`,
		file.CommunityID, file.ObjectKey, file.Filename, file.ContentType,
		file.SizeBytes, string(file.Status), string(file.PermissionLevel),
		file.CeremonialContent, file.ElderApprovalRequired, file.UploadedBy).
		Scan(&file.ID, &file.CreatedAt, &file.UpdatedAt)
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*File, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id)
	var f File
	var status, level string
	err := row.Scan(&f.ID, &f.CommunityID, &f.ObjectKey, &f.Filename, &f.ContentType,
		&f.SizeBytes, &status, &level, &f.CeremonialContent,
		&f.ElderApprovalRequired, &f.UploadedBy, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	f.Status = Status(status)
	f.PermissionLevel = policy.PermissionLevel(level)
	return &f, nil
}

func (r *PGRepository) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE files SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
