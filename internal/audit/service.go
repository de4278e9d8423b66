package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Service coordinates decision-log review. Review is a community-admin
// operation on the community's own rows; the sovereignty guard keeps
// super_admin out like any other community-scoped data.
type Service struct {
	repo  Repository
	authz *policy.Authorizer
}

// NewService constructs an audit review service.
func NewService(repo Repository, authz *policy.Authorizer) *Service {
	return &Service{repo: repo, authz: authz}
}

func (s *Service) requireReviewer(p policy.Principal, communityID int64) error {
	reviewResource := policy.CommunityResource(ResourceType, 0, communityID,
		policy.Protocol{PermissionLevel: policy.LevelRestricted})
	if err := s.authz.Require(p, policy.ActionList, reviewResource); err != nil {
		return err
	}
	if p.Role != policy.RoleAdmin {
		return fmt.Errorf("%w: decision review requires community admin", shared.ErrForbidden)
	}
	return nil
}

// Review returns a page of the community's decision log.
func (s *Service) Review(ctx context.Context, p policy.Principal, communityID int64, f Filters, page, perPage int) ([]Entry, shared.Pagination, error) {
	if err := s.requireReviewer(p, communityID); err != nil {
		return nil, shared.Pagination{}, err
	}

	pg := shared.NewPagination(page, perPage, 0)
	entries, total, err := s.repo.Review(ctx, communityID, f, pg.PerPage, pg.Offset())
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("review decisions: %w", err)
	}
	return entries, shared.NewPagination(pg.Page, pg.PerPage, total), nil
}

// ExportCSV returns the filtered decision log as CSV for offline review.
// Bounded to keep exports from hauling the whole table.
const exportLimit = 10000

func (s *Service) ExportCSV(ctx context.Context, p policy.Principal, communityID int64, f Filters) ([]byte, error) {
	if err := s.requireReviewer(p, communityID); err != nil {
		return nil, err
	}

	entries, _, err := s.repo.Review(ctx, communityID, f, exportLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("export decisions: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"occurred_at", "actor_id", "actor_role", "action",
		"resource_type", "resource_id", "outcome", "reason", "detail"})
	for _, e := range entries {
		_ = w.Write([]string{
			e.OccurredAt.UTC().Format("2006-01-02T15:04:05Z"),
			strconv.FormatInt(e.ActorID, 10),
			string(e.ActorRole),
			string(e.Action),
			e.ResourceType,
			strconv.FormatInt(e.ResourceID, 10),
			string(e.Outcome),
			string(e.Reason),
			e.Detail,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
