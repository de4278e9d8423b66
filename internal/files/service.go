package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
	"github.com/storyweave/storyweave/jobs/tasks"
)

// TaskEnqueuer hands derivative work to the background worker. Satisfied by
// *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// IdempotencyChecker guards upload registration against duplicate
// submissions. Satisfied by *shared.IdempotencyStore.
type IdempotencyChecker interface {
	CheckAndInsert(ctx context.Context, key, scope string) error
	Delete(ctx context.Context, key string) error
}

// Service provides media registration behind the policy engine.
type Service struct {
	repo        Repository
	authz       *policy.Authorizer
	storage     Storage
	idempotency IdempotencyChecker
	enqueuer    TaskEnqueuer
	logger      *slog.Logger
}

// NewService constructs a file service.
func NewService(repo Repository, authz *policy.Authorizer, storage Storage, idempotency IdempotencyChecker, enqueuer TaskEnqueuer, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		authz:       authz,
		storage:     storage,
		idempotency: idempotency,
		enqueuer:    enqueuer,
		logger:      logger,
	}
}

// Upload registers a media object under a fresh object key, returns the
// location to put the bytes, and queues derivative processing. Retried
// submissions carrying the same Idempotency-Key are rejected rather than
// duplicated.
type Upload struct {
	File      File
	UploadURL string
}

// RegisterUpload authorizes and records a new media object.
func (s *Service) RegisterUpload(ctx context.Context, p policy.Principal, idempotencyKey string, in UploadInput) (*Upload, error) {
	var communityID int64
	if p.CommunityID != nil {
		communityID = *p.CommunityID
	}
	if err := s.authz.Require(p, policy.ActionCreate, ProposedResource(communityID, in)); err != nil {
		return nil, err
	}

	if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "files.upload"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("idempotency check: %w", err)
	}

	level := policy.PermissionLevel(in.PermissionLevel)
	if in.PermissionLevel == "" {
		level = policy.DefaultProtocol().PermissionLevel
	}
	objectKey := path.Join(
		fmt.Sprintf("communities/%d", communityID),
		uuid.NewString()+path.Ext(in.Filename),
	)
	file := File{
		CommunityID:           communityID,
		ObjectKey:             objectKey,
		Filename:              in.Filename,
		ContentType:           in.ContentType,
		SizeBytes:             in.SizeBytes,
		Status:                StatusPending,
		PermissionLevel:       level,
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
		UploadedBy:            p.ID,
	}
	if err := s.repo.Create(ctx, &file); err != nil {
		// Release the key so the client can retry the whole submission.
		if delErr := s.idempotency.Delete(ctx, idempotencyKey); delErr != nil {
			s.logger.Warn("release idempotency key", slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("create file record: %w", err)
	}

	uploadURL, err := s.storage.UploadURL(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("issue upload url: %w", err)
	}

	task, err := tasks.NewProcessMediaTask(tasks.ProcessMediaPayload{
		FileID:      file.ID,
		ObjectKey:   objectKey,
		ContentType: file.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("build media task: %w", err)
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task, asynq.Queue(tasks.QueueMedia)); err != nil {
		// Derivatives can be regenerated; the upload itself stands.
		s.logger.Warn("enqueue media processing",
			slog.Int64("file_id", file.ID), slog.Any("error", err))
	}

	return &Upload{File: file, UploadURL: uploadURL}, nil
}

// Get returns one file record after a read authorization.
func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (*File, error) {
	file, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionRead, file.Resource()); err != nil {
		return nil, err
	}
	return file, nil
}

// Delete removes a file record and its stored object. Elder-only media is
// never deletable.
func (s *Service) Delete(ctx context.Context, p policy.Principal, id int64) error {
	file, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionDelete, file.Resource()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	if err := s.storage.Remove(ctx, file.ObjectKey); err != nil {
		s.logger.Warn("remove stored object",
			slog.String("object_key", file.ObjectKey), slog.Any("error", err))
	}
	return nil
}

// MarkProcessed is called by the worker when derivatives are ready.
func (s *Service) MarkProcessed(ctx context.Context, id int64, ok bool) error {
	status := StatusProcessed
	if !ok {
		status = StatusFailed
	}
	return s.repo.SetStatus(ctx, id, status)
}
