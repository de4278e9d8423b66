package stories

import (
	"context"
	"fmt"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// ApprovalSubmitter records that content entered the elder review queue.
type ApprovalSubmitter interface {
	EnsureSubmit(ctx context.Context, resourceType string, resourceID, actorID int64, note string) error
}

// Service provides story operations. Every operation authorizes through the
// policy engine before touching persistence.
type Service struct {
	repo      Repository
	authz     *policy.Authorizer
	approvals ApprovalSubmitter
}

// NewService constructs a story service.
func NewService(repo Repository, authz *policy.Authorizer, approvals ApprovalSubmitter) *Service {
	return &Service{repo: repo, authz: authz, approvals: approvals}
}

// Create authorizes and persists a new story in the principal's community.
// A principal without a community (super_admin) is rejected by the engine's
// sovereignty guard before anything is persisted.
func (s *Service) Create(ctx context.Context, p policy.Principal, in CreateInput) (*Story, error) {
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

	story := Story{
		CommunityID:           communityID,
		Title:                 in.Title,
		Slug:                  shared.Slugify(in.Title),
		Description:           in.Description,
		Language:              in.Language,
		PermissionLevel:       level,
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
		CreatedBy:             p.ID,
		PlaceIDs:              in.PlaceIDs,
		SpeakerIDs:            in.SpeakerIDs,
	}
	if err := s.repo.Create(ctx, &story); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}

	if story.ElderApprovalRequired {
		if err := s.approvals.EnsureSubmit(ctx, ResourceType, story.ID, p.ID, "created pending elder review"); err != nil {
			return nil, fmt.Errorf("record approval submission: %w", err)
		}
	}
	return &story, nil
}

// Get returns one story after a read authorization against its protocol.
func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (*Story, error) {
	story, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionRead, story.Resource()); err != nil {
		return nil, err
	}
	return story, nil
}

// List returns the stories of a community visible to the principal's role,
// paginated. Restricted and elder-only content is filtered out in SQL for
// roles that may not read it.
func (s *Service) List(ctx context.Context, p policy.Principal, communityID int64, page, perPage int) ([]Story, shared.Pagination, error) {
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
	stories, total, err := s.repo.List(ctx, communityID, levels, pg.PerPage, pg.Offset())
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list stories: %w", err)
	}
	return stories, shared.NewPagination(pg.Page, pg.PerPage, total), nil
}

// Update authorizes against both the story's current protocol and, when the
// update changes protocol tags, the proposed protocol, so that tags can
// neither be stripped nor attached by roles the narrower of the two would
// deny. Changing elder_only status is its own capability.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, in UpdateInput) (*Story, error) {
	story, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}

	updated := *story
	protocolChanged := updated.apply(in)

	wasElderOnly := story.PermissionLevel == policy.LevelElderOnly
	isElderOnly := updated.PermissionLevel == policy.LevelElderOnly
	action := policy.ActionUpdate
	if wasElderOnly != isElderOnly {
		action = policy.ActionUpdateElderStatus
	}

	if err := s.authz.Require(p, action, story.Resource()); err != nil {
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
		return nil, fmt.Errorf("update story: %w", err)
	}

	if updated.ElderApprovalRequired && (protocolChanged || !story.ElderApprovalRequired) {
		if err := s.approvals.EnsureSubmit(ctx, ResourceType, updated.ID, p.ID, "updated pending elder review"); err != nil {
			return nil, fmt.Errorf("record approval submission: %w", err)
		}
	}
	return &updated, nil
}

// Delete removes a story. Elder-only stories are never deletable through
// this path regardless of role.
func (s *Service) Delete(ctx context.Context, p policy.Principal, id int64) error {
	story, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get story: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionDelete, story.Resource()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	return nil
}
