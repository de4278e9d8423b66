package curriculums

import (
	"context"
	"fmt"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Service provides curriculum operations. Every operation authorizes through
// the policy engine before touching persistence.
type Service struct {
	repo  Repository
	authz *policy.Authorizer
}

// NewService constructs a curriculum service.
func NewService(repo Repository, authz *policy.Authorizer) *Service {
	return &Service{repo: repo, authz: authz}
}

// Create authorizes and persists a new curriculum in the principal's
// community.
func (s *Service) Create(ctx context.Context, p policy.Principal, in CreateInput) (*Curriculum, error) {
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

	cur := Curriculum{
		CommunityID:           communityID,
		Title:                 in.Title,
		Slug:                  shared.Slugify(in.Title),
		Description:           in.Description,
		PermissionLevel:       level,
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
		CreatedBy:             p.ID,
		StoryIDs:              in.StoryIDs,
	}
	if err := s.repo.Create(ctx, &cur); err != nil {
		return nil, fmt.Errorf("create curriculum: %w", err)
	}
	return &cur, nil
}

// Get returns one curriculum after a read authorization against its
// protocol.
func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (*Curriculum, error) {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get curriculum: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionRead, cur.Resource()); err != nil {
		return nil, err
	}
	return cur, nil
}

// List returns the curriculums of a community visible to the principal's
// role, paginated.
func (s *Service) List(ctx context.Context, p policy.Principal, communityID int64, page, perPage int) ([]Curriculum, shared.Pagination, error) {
	listResource := policy.CommunityResource(ResourceType, 0, communityID, policy.DefaultProtocol())
	if err := s.authz.Require(p, policy.ActionList, listResource); err != nil {
		return nil, shared.Pagination{}, err
	}

	levels := policy.ReadableLevels(p.Role)
	if p.CommunityID == nil || *p.CommunityID != communityID {
		// Cross-community listings only ever surface public content.
		levels = []policy.PermissionLevel{policy.LevelPublic}
	}

	pg := shared.NewPagination(page, perPage, 0)
	curriculums, total, err := s.repo.List(ctx, communityID, levels, pg.PerPage, pg.Offset())
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list curriculums: %w", err)
	}
	return curriculums, shared.NewPagination(pg.Page, pg.PerPage, total), nil
}

// Update authorizes against both the curriculum's current protocol and,
// when the update changes protocol tags, the proposed protocol. Moving a
// collection in or out of elder_only is its own capability.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, in UpdateInput) (*Curriculum, error) {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get curriculum: %w", err)
	}

	updated := *cur
	protocolChanged := updated.apply(in)

	wasElderOnly := cur.PermissionLevel == policy.LevelElderOnly
	isElderOnly := updated.PermissionLevel == policy.LevelElderOnly
	action := policy.ActionUpdate
	if wasElderOnly != isElderOnly {
		action = policy.ActionUpdateElderStatus
	}

	if err := s.authz.Require(p, action, cur.Resource()); err != nil {
		return nil, err
	}
	if protocolChanged {
		if err := s.authz.Require(p, action, updated.Resource()); err != nil {
			return nil, err
		}
	}

	if in.Title != nil {
		updated.Slug = shared.Slugify(updated.Title)
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update curriculum: %w", err)
	}
	return &updated, nil
}

// Delete removes a curriculum. Elder-only collections are never deletable
// through this path regardless of role.
func (s *Service) Delete(ctx context.Context, p policy.Principal, id int64) error {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get curriculum: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionDelete, cur.Resource()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete curriculum: %w", err)
	}
	return nil
}
