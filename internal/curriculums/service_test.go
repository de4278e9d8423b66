package curriculums

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
	_ "github.com/storyweave/storyweave/internal/testing/guard"
)

type mockRepository struct {
	curriculums map[int64]*Curriculum
	nextID      int64
	lastLevels  []policy.PermissionLevel
	creates     int
	updates     int
	deletes     int
}

func newMockRepository(seed ...Curriculum) *mockRepository {
	repo := &mockRepository{curriculums: make(map[int64]*Curriculum), nextID: 100}
	for i := range seed {
		c := seed[i]
		repo.curriculums[c.ID] = &c
	}
	return repo
}

func (m *mockRepository) Create(_ context.Context, cur *Curriculum) error {
	m.creates++
	m.nextID++
	cur.ID = m.nextID
	cp := *cur
	m.curriculums[cur.ID] = &cp
	return nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Curriculum, error) {
	c, ok := m.curriculums[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepository) List(_ context.Context, communityID int64, levels []policy.PermissionLevel, _, _ int) ([]Curriculum, int, error) {
	m.lastLevels = levels
	allowed := make(map[policy.PermissionLevel]bool, len(levels))
	for _, l := range levels {
		allowed[l] = true
	}
	var out []Curriculum
	for _, c := range m.curriculums {
		if c.CommunityID == communityID && allowed[c.PermissionLevel] {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) Update(_ context.Context, cur *Curriculum) error {
	if _, ok := m.curriculums[cur.ID]; !ok {
		return shared.ErrNotFound
	}
	m.updates++
	cp := *cur
	m.curriculums[cur.ID] = &cp
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.curriculums[id]; !ok {
		return shared.ErrNotFound
	}
	m.deletes++
	delete(m.curriculums, id)
	return nil
}

func newTestService(repo *mockRepository) *Service {
	authz := policy.NewAuthorizer(policy.NewEngine(), nil, nil)
	return NewService(repo, authz)
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

func seedCurriculum(level policy.PermissionLevel) Curriculum {
	return Curriculum{
		ID:              11,
		CommunityID:     1,
		Title:           "Seasons of the River",
		Slug:            "seasons-of-the-river",
		PermissionLevel: level,
		StoryIDs:        []int64{3, 1, 2},
	}
}

func TestCreateAuthorizesBeforePersisting(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	cur, err := svc.Create(ctx, member(2, policy.RoleEditor, 1), CreateInput{
		Title:    "First Harvest Lessons",
		StoryIDs: []int64{5, 4},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cur.CommunityID)
	assert.Equal(t, "first-harvest-lessons", cur.Slug)
	assert.Equal(t, policy.LevelCommunity, cur.PermissionLevel)
	assert.Equal(t, []int64{5, 4}, cur.StoryIDs)

	_, err = svc.Create(ctx, member(3, policy.RoleViewer, 1), CreateInput{Title: "Not Allowed"})
	requireDenied(t, err, policy.ReasonRoleInsufficient)
	assert.Equal(t, 1, repo.creates)
}

func TestCreateSuperAdminBlockedBySovereignty(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), policy.Principal{ID: 1, Role: policy.RoleSuperAdmin}, CreateInput{Title: "Platform Curriculum"})
	requireDenied(t, err, policy.ReasonSovereigntyViolation)
	assert.Zero(t, repo.creates)
}

func TestGetEnforcesProtocolVisibility(t *testing.T) {
	repo := newMockRepository(seedCurriculum(policy.LevelRestricted))
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Get(ctx, member(3, policy.RoleViewer, 1), 11)
	requireDenied(t, err, policy.ReasonRoleInsufficient)

	got, err := svc.Get(ctx, member(2, policy.RoleEditor, 1), 11)
	require.NoError(t, err)
	assert.Equal(t, "Seasons of the River", got.Title)
	assert.Equal(t, []int64{3, 1, 2}, got.StoryIDs)
}

func TestListFiltersLevelsByRole(t *testing.T) {
	repo := newMockRepository(seedCurriculum(policy.LevelRestricted))
	svc := newTestService(repo)
	ctx := context.Background()

	_, _, err := svc.List(ctx, member(3, policy.RoleViewer, 1), 1, 1, 20)
	require.NoError(t, err)
	assert.NotContains(t, repo.lastLevels, policy.LevelRestricted)

	_, _, err = svc.List(ctx, member(2, policy.RoleEditor, 1), 1, 1, 20)
	require.NoError(t, err)
	assert.Contains(t, repo.lastLevels, policy.LevelRestricted)
	assert.NotContains(t, repo.lastLevels, policy.LevelElderOnly)
}

func TestListCrossCommunityOnlySurfacesPublic(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, _, err := svc.List(context.Background(), member(9, policy.RoleAdmin, 2), 1, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []policy.PermissionLevel{policy.LevelPublic}, repo.lastLevels)
}

func TestUpdateReordersStories(t *testing.T) {
	repo := newMockRepository(seedCurriculum(policy.LevelCommunity))
	svc := newTestService(repo)
	order := []int64{1, 2, 3}

	got, err := svc.Update(context.Background(), member(2, policy.RoleEditor, 1), 11, UpdateInput{StoryIDs: &order})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got.StoryIDs)
	assert.Equal(t, 1, repo.updates)
}

func TestUpdateElderTransitionIsItsOwnCapability(t *testing.T) {
	repo := newMockRepository(seedCurriculum(policy.LevelCommunity))
	svc := newTestService(repo)
	ctx := context.Background()
	elderOnly := "elder_only"

	_, err := svc.Update(ctx, member(2, policy.RoleEditor, 1), 11, UpdateInput{PermissionLevel: &elderOnly})
	requireDenied(t, err, policy.ReasonRoleInsufficient)

	got, err := svc.Update(ctx, member(5, policy.RoleAdmin, 1), 11, UpdateInput{PermissionLevel: &elderOnly})
	require.NoError(t, err)
	assert.Equal(t, policy.LevelElderOnly, got.PermissionLevel)
}

func TestDeleteElderOnlyBlocked(t *testing.T) {
	repo := newMockRepository(seedCurriculum(policy.LevelElderOnly))
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), member(5, policy.RoleAdmin, 1), 11)
	requireDenied(t, err, policy.ReasonElderContentProtected)
	assert.Zero(t, repo.deletes)
}
