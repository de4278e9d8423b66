package themes

import (
	"context"
	"errors"
	"fmt"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Service provides theme operations behind the policy engine.
type Service struct {
	repo  Repository
	authz *policy.Authorizer
}

// NewService constructs a theme service.
func NewService(repo Repository, authz *policy.Authorizer) *Service {
	return &Service{repo: repo, authz: authz}
}

// Get returns a community's theme, falling back to defaults when none has
// been saved yet.
func (s *Service) Get(ctx context.Context, p policy.Principal, communityID int64) (*Theme, error) {
	theme, err := s.repo.GetByCommunity(ctx, communityID)
	if errors.Is(err, shared.ErrNotFound) {
		theme = &Theme{CommunityID: communityID, ZoomLevel: 2}
	} else if err != nil {
		return nil, fmt.Errorf("get theme: %w", err)
	}
	if err := s.authz.Require(p, policy.ActionRead, theme.Resource()); err != nil {
		return nil, err
	}
	return theme, nil
}

// Upsert replaces the community's theme settings.
func (s *Service) Upsert(ctx context.Context, p policy.Principal, communityID int64, in UpsertInput) (*Theme, error) {
	theme := Theme{
		CommunityID:     communityID,
		MapboxStyleURL:  in.MapboxStyleURL,
		CenterLatitude:  in.CenterLatitude,
		CenterLongitude: in.CenterLongitude,
		ZoomLevel:       in.ZoomLevel,
		PitchDegrees:    in.PitchDegrees,
		BearingDegrees:  in.BearingDegrees,
		PrimaryColor:    in.PrimaryColor,
	}
	if err := s.authz.Require(p, policy.ActionUpdate, theme.Resource()); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, &theme); err != nil {
		return nil, fmt.Errorf("upsert theme: %w", err)
	}
	return &theme, nil
}
