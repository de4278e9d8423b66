package themes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

type mockRepository struct {
	themes  map[int64]*Theme
	upserts int
}

func newMockRepository(seed ...Theme) *mockRepository {
	repo := &mockRepository{themes: make(map[int64]*Theme)}
	for i := range seed {
		t := seed[i]
		repo.themes[t.CommunityID] = &t
	}
	return repo
}

func (m *mockRepository) GetByCommunity(_ context.Context, communityID int64) (*Theme, error) {
	t, ok := m.themes[communityID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepository) Upsert(_ context.Context, theme *Theme) error {
	m.upserts++
	if existing, ok := m.themes[theme.CommunityID]; ok {
		theme.ID = existing.ID
	} else {
		theme.ID = int64(len(m.themes) + 1)
	}
	cp := *theme
	m.themes[theme.CommunityID] = &cp
	return nil
}

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, policy.NewAuthorizer(policy.NewEngine(), nil, nil))
}

func member(id int64, role policy.Role, community int64) policy.Principal {
	return policy.Principal{ID: id, Role: role, CommunityID: &community}
}

func requireDenied(t *testing.T, err error, reason policy.Reason) {
	t.Helper()
	var denied *policy.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, reason, denied.Decision.Reason)
}

func TestGetFallsBackToDefaultTheme(t *testing.T) {
	svc := newTestService(newMockRepository())

	theme, err := svc.Get(context.Background(), member(2, policy.RoleViewer, 1), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), theme.CommunityID)
	assert.Equal(t, float64(2), theme.ZoomLevel)
}

func TestUpsertRequiresUpdateCapability(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	in := UpsertInput{MapboxStyleURL: "mapbox://styles/mapbox/dark-v11", ZoomLevel: 8}

	_, err := svc.Upsert(context.Background(), member(2, policy.RoleViewer, 1), 1, in)
	requireDenied(t, err, policy.ReasonRoleInsufficient)
	assert.Zero(t, repo.upserts)

	theme, err := svc.Upsert(context.Background(), member(3, policy.RoleEditor, 1), 1, in)
	require.NoError(t, err)
	assert.Equal(t, "mapbox://styles/mapbox/dark-v11", theme.MapboxStyleURL)
}

func TestUpsertBlockedAcrossCommunities(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.Upsert(context.Background(), member(1, policy.RoleAdmin, 2), 1, UpsertInput{ZoomLevel: 5})
	requireDenied(t, err, policy.ReasonCommunityMismatch)
	assert.Zero(t, repo.upserts)
}
