package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Service provides membership management. All mutations are community-admin
// operations: the engine enforces community and protocol bounds, and the
// admin-only rule for account administration sits on top of it here.
type Service struct {
	repo  Repository
	authz *policy.Authorizer
}

// NewService constructs a user management service.
func NewService(repo Repository, authz *policy.Authorizer) *Service {
	return &Service{repo: repo, authz: authz}
}

func requireAdmin(p policy.Principal) error {
	if p.Role != policy.RoleAdmin {
		return fmt.Errorf("%w: account administration requires community admin", shared.ErrForbidden)
	}
	return nil
}

// Create registers a new member in the principal's community. Granting the
// elder role at creation goes through the elder-status capability as well.
func (s *Service) Create(ctx context.Context, p policy.Principal, in CreateInput) (*User, error) {
	var communityID int64
	if p.CommunityID != nil {
		communityID = *p.CommunityID
	}
	proposed := policy.CommunityResource(ResourceType, 0, communityID,
		policy.Protocol{PermissionLevel: policy.LevelRestricted})
	if err := s.authz.Require(p, policy.ActionCreate, proposed); err != nil {
		return nil, err
	}
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	role := policy.Role(in.Role)
	if role == policy.RoleElder {
		if err := s.authz.Require(p, policy.ActionUpdateElderStatus, proposed); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		CommunityID: communityID,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Role:        role,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, &user, string(hash)); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Get returns one member account.
func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionRead, user.Resource()); err != nil {
		return nil, err
	}
	return user, nil
}

// List enumerates a community's membership. The restricted protocol level on
// accounts keeps viewers out.
func (s *Service) List(ctx context.Context, p policy.Principal, communityID int64, page, perPage int) ([]User, shared.Pagination, error) {
	listResource := policy.CommunityResource(ResourceType, 0, communityID,
		policy.Protocol{PermissionLevel: policy.LevelRestricted})
	if err := s.authz.Require(p, policy.ActionList, listResource); err != nil {
		return nil, shared.Pagination{}, err
	}

	pg := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.List(ctx, communityID, pg.PerPage, pg.Offset())
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list users: %w", err)
	}
	return users, shared.NewPagination(pg.Page, pg.PerPage, total), nil
}

// Update changes profile fields of a member account.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, in UpdateInput) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionUpdate, user.Resource()); err != nil {
		return nil, err
	}
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	updated := *user
	if in.DisplayName != nil {
		updated.DisplayName = *in.DisplayName
	}
	if in.IsActive != nil {
		updated.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &updated, nil
}

// AssignRole changes a member's role. Promotion to or demotion from elder is
// the dedicated elder-status action; plain role moves are ordinary updates.
func (s *Service) AssignRole(ctx context.Context, p policy.Principal, id int64, in AssignRoleInput) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	newRole := policy.Role(in.Role)
	action := policy.ActionUpdate
	if newRole == policy.RoleElder || user.Role == policy.RoleElder {
		action = policy.ActionUpdateElderStatus
	}
	if err := s.authz.Require(p, action, user.Resource()); err != nil {
		return nil, err
	}
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	if err := s.repo.SetRole(ctx, id, newRole); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	user.Role = newRole
	return user, nil
}

// Delete removes a member account.
func (s *Service) Delete(ctx context.Context, p policy.Principal, id int64) error {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionDelete, user.Resource()); err != nil {
		return err
	}
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
