package communities

import (
	"context"
	"fmt"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Service provides community registry and self-service operations.
type Service struct {
	repo  Repository
	authz *policy.Authorizer
}

// NewService constructs a community service.
func NewService(repo Repository, authz *policy.Authorizer) *Service {
	return &Service{repo: repo, authz: authz}
}

// Create provisions a new community. This is the platform-level path:
// only super_admin passes the system capability check.
func (s *Service) Create(ctx context.Context, p policy.Principal, in CreateInput) (*Community, error) {
	if err := s.authz.Require(p, policy.ActionCreate, RegistryResource()); err != nil {
		return nil, err
	}

	community := Community{
		Name:        in.Name,
		Slug:        shared.Slugify(in.Name),
		Description: in.Description,
		Country:     in.Country,
		Locale:      in.Locale,
		Public:      in.Public,
	}
	if err := s.repo.Create(ctx, &community); err != nil {
		return nil, fmt.Errorf("create community: %w", err)
	}
	return &community, nil
}

// List enumerates the registry. Platform-level, super_admin only; community
// members see only their own community through Get.
func (s *Service) List(ctx context.Context, p policy.Principal, page, perPage int) ([]Community, shared.Pagination, error) {
	if err := s.authz.Require(p, policy.ActionList, RegistryResource()); err != nil {
		return nil, shared.Pagination{}, err
	}

	pg := shared.NewPagination(page, perPage, 0)
	communities, total, err := s.repo.List(ctx, pg.PerPage, pg.Offset())
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list communities: %w", err)
	}
	return communities, shared.NewPagination(pg.Page, pg.PerPage, total), nil
}

// Get returns one community record through the community-scoped path:
// members read their own community, anyone reads a public one, and
// super_admin is blocked by the sovereignty guard.
func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (*Community, error) {
	community, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get community: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionRead, community.Resource()); err != nil {
		return nil, err
	}
	return community, nil
}

// Update changes a community's own record. Community-scoped: its admins
// manage it, super_admin cannot.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, in UpdateInput) (*Community, error) {
	community, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get community: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionUpdate, community.Resource()); err != nil {
		return nil, err
	}

	updated := *community
	updated.apply(in)
	if in.Name != nil {
		updated.Slug = shared.Slugify(updated.Name)
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update community: %w", err)
	}
	return &updated, nil
}
