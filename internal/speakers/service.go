package speakers

import (
	"context"
	"fmt"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Service provides speaker operations behind the policy engine.
type Service struct {
	repo  Repository
	authz *policy.Authorizer
}

// NewService constructs a speaker service.
func NewService(repo Repository, authz *policy.Authorizer) *Service {
	return &Service{repo: repo, authz: authz}
}

// Create authorizes and persists a new speaker in the principal's community.
func (s *Service) Create(ctx context.Context, p policy.Principal, in CreateInput) (*Speaker, error) {
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
	speaker := Speaker{
		CommunityID:           communityID,
		Name:                  in.Name,
		Bio:                   in.Bio,
		Birthplace:            in.Birthplace,
		BirthYear:             in.BirthYear,
		PermissionLevel:       level,
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
	}
	if err := s.repo.Create(ctx, &speaker); err != nil {
		return nil, fmt.Errorf("create speaker: %w", err)
	}
	return &speaker, nil
}

// Get returns one speaker after a read authorization.
func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (*Speaker, error) {
	speaker, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionRead, speaker.Resource()); err != nil {
		return nil, err
	}
	return speaker, nil
}

// List returns the speakers of a community visible to the principal's role.
func (s *Service) List(ctx context.Context, p policy.Principal, communityID int64, page, perPage int) ([]Speaker, shared.Pagination, error) {
	listResource := policy.CommunityResource(ResourceType, 0, communityID, policy.DefaultProtocol())
	if err := s.authz.Require(p, policy.ActionList, listResource); err != nil {
		return nil, shared.Pagination{}, err
	}

	levels := policy.ReadableLevels(p.Role)
	if p.CommunityID == nil || *p.CommunityID != communityID {
		levels = []policy.PermissionLevel{policy.LevelPublic}
	}

	pg := shared.NewPagination(page, perPage, 0)
	speakers, total, err := s.repo.List(ctx, communityID, levels, pg.PerPage, pg.Offset())
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list speakers: %w", err)
	}
	return speakers, shared.NewPagination(pg.Page, pg.PerPage, total), nil
}

// Update changes speaker fields other than elder designation.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, in UpdateInput) (*Speaker, error) {
	speaker, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get speaker: %w", err)
	}

	updated := *speaker
	protocolChanged := updated.apply(in)

	action := policy.ActionUpdate
	if (speaker.PermissionLevel == policy.LevelElderOnly) != (updated.PermissionLevel == policy.LevelElderOnly) {
		action = policy.ActionUpdateElderStatus
	}

	if err := s.authz.Require(p, action, speaker.Resource()); err != nil {
		return nil, err
	}
	if protocolChanged {
		if err := s.authz.Require(p, action, updated.Resource()); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update speaker: %w", err)
	}
	return &updated, nil
}

// SetElderStatus toggles the elder designation through the dedicated
// elder-status capability.
func (s *Service) SetElderStatus(ctx context.Context, p policy.Principal, id int64, isElder bool) (*Speaker, error) {
	speaker, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionUpdateElderStatus, speaker.Resource()); err != nil {
		return nil, err
	}
	if err := s.repo.SetElderStatus(ctx, id, isElder); err != nil {
		return nil, fmt.Errorf("set elder status: %w", err)
	}
	speaker.IsElder = isElder
	return speaker, nil
}

// Delete removes a speaker. Elder-only speakers are never deletable.
func (s *Service) Delete(ctx context.Context, p policy.Principal, id int64) error {
	speaker, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get speaker: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionDelete, speaker.Resource()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete speaker: %w", err)
	}
	return nil
}
