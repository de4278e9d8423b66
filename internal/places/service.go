package places

import (
	"context"
	"fmt"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Service provides place operations behind the policy engine.
type Service struct {
	repo  Repository
	authz *policy.Authorizer
}

// NewService constructs a place service.
func NewService(repo Repository, authz *policy.Authorizer) *Service {
	return &Service{repo: repo, authz: authz}
}

// Create authorizes and persists a new place in the principal's community.
func (s *Service) Create(ctx context.Context, p policy.Principal, in CreateInput) (*Place, error) {
	var communityID int64
	if p.CommunityID != nil {
		communityID = *p.CommunityID
	}
	if err := s.authz.Require(p, policy.ActionCreate, ProposedResource(communityID, in)); err != nil {
		return nil, err
	}

	level := policy.PermissionLevel(in.PermissionLevel)
	if in.PermissionLevel == "" {
		level = policy.DefaultProtocol().PermissionLevel
	}
	place := Place{
		CommunityID:           communityID,
		Name:                  in.Name,
		Slug:                  shared.Slugify(in.Name),
		Description:           in.Description,
		TypeOfPlace:           in.TypeOfPlace,
		Latitude:              in.Latitude,
		Longitude:             in.Longitude,
		Region:                in.Region,
		PermissionLevel:       level,
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
	}
	if err := s.repo.Create(ctx, &place); err != nil {
		return nil, fmt.Errorf("create place: %w", err)
	}
	return &place, nil
}

// Get returns one place after a read authorization.
func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (*Place, error) {
	place, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get place: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionRead, place.Resource()); err != nil {
		return nil, err
	}
	return place, nil
}

// List returns the places of a community visible to the principal's role.
func (s *Service) List(ctx context.Context, p policy.Principal, communityID int64, page, perPage int) ([]Place, shared.Pagination, error) {
	listResource := policy.CommunityResource(ResourceType, 0, communityID, policy.DefaultProtocol())
	if err := s.authz.Require(p, policy.ActionList, listResource); err != nil {
		return nil, shared.Pagination{}, err
	}

	levels := policy.ReadableLevels(p.Role)
	if p.CommunityID == nil || *p.CommunityID != communityID {
		levels = []policy.PermissionLevel{policy.LevelPublic}
	}

	pg := shared.NewPagination(page, perPage, 0)
	places, total, err := s.repo.List(ctx, communityID, levels, pg.PerPage, pg.Offset())
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list places: %w", err)
	}
	return places, shared.NewPagination(pg.Page, pg.PerPage, total), nil
}

// Update authorizes against both the current and, when protocol tags change,
// the proposed protocol.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, in UpdateInput) (*Place, error) {
	place, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get place: %w", err)
	}

	updated := *place
	protocolChanged := updated.apply(in)

	action := policy.ActionUpdate
	if (place.PermissionLevel == policy.LevelElderOnly) != (updated.PermissionLevel == policy.LevelElderOnly) {
		action = policy.ActionUpdateElderStatus
	}

	if err := s.authz.Require(p, action, place.Resource()); err != nil {
		return nil, err
	}
	if protocolChanged {
		if err := s.authz.Require(p, action, updated.Resource()); err != nil {
			return nil, err
		}
	}

	if in.Name != nil {
		updated.Slug = shared.Slugify(updated.Name)
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update place: %w", err)
	}
	return &updated, nil
}

// Delete removes a place. Elder-only places are never deletable.
func (s *Service) Delete(ctx context.Context, p policy.Principal, id int64) error {
	place, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get place: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionDelete, place.Resource()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return nil
}
