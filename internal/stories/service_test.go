package stories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
	_ "github.com/storyweave/storyweave/internal/testing/guard"
)

type mockRepository struct {
	stories    map[int64]*Story
	nextID     int64
	lastLevels []policy.PermissionLevel
	creates    int
	updates    int
	deletes    int
}

func newMockRepository(seed ...Story) *mockRepository {
	repo := &mockRepository{stories: make(map[int64]*Story), nextID: 100}
	for i := range seed {
		s := seed[i]
		repo.stories[s.ID] = &s
	}
	return repo
}

func (m *mockRepository) Create(_ context.Context, story *Story) error {
	m.creates++
	m.nextID++
	story.ID = m.nextID
	cp := *story
	m.stories[story.ID] = &cp
	return nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Story, error) {
	s, ok := m.stories[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepository) GetBySlug(_ context.Context, communityID int64, slug string) (*Story, error) {
	for _, s := range m.stories {
		if s.CommunityID == communityID && s.Slug == slug {
			cp := *s
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) List(_ context.Context, communityID int64, levels []policy.PermissionLevel, _, _ int) ([]Story, int, error) {
	m.lastLevels = levels
	allowed := make(map[policy.PermissionLevel]bool, len(levels))
	for _, l := range levels {
		allowed[l] = true
	}
	var out []Story
	for _, s := range m.stories {
		if s.CommunityID == communityID && allowed[s.PermissionLevel] {
			out = append(out, *s)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) Update(_ context.Context, story *Story) error {
	if _, ok := m.stories[story.ID]; !ok {
		return shared.ErrNotFound
	}
	m.updates++
	cp := *story
	m.stories[story.ID] = &cp
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.stories[id]; !ok {
		return shared.ErrNotFound
	}
	m.deletes++
	delete(m.stories, id)
	return nil
}

type mockApprovals struct {
	submissions []int64
}

func (m *mockApprovals) EnsureSubmit(_ context.Context, _ string, resourceID, _ int64, _ string) error {
	m.submissions = append(m.submissions, resourceID)
	return nil
}

func newTestService(repo *mockRepository) (*Service, *mockApprovals) {
	approvals := &mockApprovals{}
	authz := policy.NewAuthorizer(policy.NewEngine(), nil, nil)
	return NewService(repo, authz, approvals), approvals
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

func seedStory(level policy.PermissionLevel) Story {
	return Story{
		ID:              7,
		CommunityID:     1,
		Title:           "River Crossing",
		Slug:            "river-crossing",
		PermissionLevel: level,
	}
}

func TestCreateAuthorizesBeforePersisting(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	story, err := svc.Create(ctx, member(2, policy.RoleEditor, 1), CreateInput{Title: "First Salmon"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), story.CommunityID)
	assert.Equal(t, "first-salmon", story.Slug)
	assert.Equal(t, policy.LevelCommunity, story.PermissionLevel)

	_, err = svc.Create(ctx, member(3, policy.RoleViewer, 1), CreateInput{Title: "Not Allowed"})
	requireDenied(t, err, policy.ReasonRoleInsufficient)
	assert.Equal(t, 1, repo.creates)
}

func TestCreateSuperAdminBlockedBySovereignty(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), policy.Principal{ID: 1, Role: policy.RoleSuperAdmin}, CreateInput{Title: "Platform Story"})
	requireDenied(t, err, policy.ReasonSovereigntyViolation)
	assert.Zero(t, repo.creates)
}

func TestCreateElderApprovalEntersReviewQueue(t *testing.T) {
	repo := newMockRepository()
	svc, approvals := newTestService(repo)

	story, err := svc.Create(context.Background(), member(4, policy.RoleElder, 1), CreateInput{
		Title:                 "Winter Ceremony",
		PermissionLevel:       "elder_only",
		CeremonialContent:     true,
		ElderApprovalRequired: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{story.ID}, approvals.submissions)
}

func TestGetEnforcesProtocolVisibility(t *testing.T) {
	repo := newMockRepository(seedStory(policy.LevelRestricted))
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Get(ctx, member(3, policy.RoleViewer, 1), 7)
	requireDenied(t, err, policy.ReasonRoleInsufficient)

	got, err := svc.Get(ctx, member(2, policy.RoleEditor, 1), 7)
	require.NoError(t, err)
	assert.Equal(t, "River Crossing", got.Title)
}

func TestListFiltersLevelsByRole(t *testing.T) {
	repo := newMockRepository(seedStory(policy.LevelRestricted))
	svc, _ := newTestService(repo)
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
	svc, _ := newTestService(repo)

	_, _, err := svc.List(context.Background(), member(9, policy.RoleAdmin, 2), 1, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []policy.PermissionLevel{policy.LevelPublic}, repo.lastLevels)
}

func TestUpdateElderTransitionIsItsOwnCapability(t *testing.T) {
	repo := newMockRepository(seedStory(policy.LevelCommunity))
	svc, _ := newTestService(repo)
	ctx := context.Background()
	elderOnly := "elder_only"

	_, err := svc.Update(ctx, member(2, policy.RoleEditor, 1), 7, UpdateInput{PermissionLevel: &elderOnly})
	requireDenied(t, err, policy.ReasonRoleInsufficient)

	got, err := svc.Update(ctx, member(5, policy.RoleAdmin, 1), 7, UpdateInput{PermissionLevel: &elderOnly})
	require.NoError(t, err)
	assert.Equal(t, policy.LevelElderOnly, got.PermissionLevel)
}

func TestUpdateChecksProposedProtocol(t *testing.T) {
	repo := newMockRepository(seedStory(policy.LevelCommunity))
	svc, _ := newTestService(repo)
	ceremonial := true

	_, err := svc.Update(context.Background(), member(2, policy.RoleEditor, 1), 7, UpdateInput{CeremonialContent: &ceremonial})
	requireDenied(t, err, policy.ReasonElderContentProtected)
	assert.Zero(t, repo.updates)
}

func TestUpdateRegeneratesSlugWithTitle(t *testing.T) {
	repo := newMockRepository(seedStory(policy.LevelCommunity))
	svc, _ := newTestService(repo)
	title := "River Crossing at Dusk"

	got, err := svc.Update(context.Background(), member(2, policy.RoleEditor, 1), 7, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "river-crossing-at-dusk", got.Slug)
}

func TestDeleteElderOnlyIsBannedForEveryRole(t *testing.T) {
	repo := newMockRepository(seedStory(policy.LevelElderOnly))
	svc, _ := newTestService(repo)
	ctx := context.Background()

	for _, role := range []policy.Role{policy.RoleAdmin, policy.RoleElder, policy.RoleEditor} {
		err := svc.Delete(ctx, member(11, role, 1), 7)
		requireDenied(t, err, policy.ReasonElderContentProtected)
	}
	assert.Zero(t, repo.deletes)
}

func TestDeleteCommunityStory(t *testing.T) {
	repo := newMockRepository(seedStory(policy.LevelCommunity))
	svc, _ := newTestService(repo)

	err := svc.Delete(context.Background(), member(5, policy.RoleAdmin, 1), 7)
	require.NoError(t, err)
	_, err = repo.Get(context.Background(), 7)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCommunityMismatchOnDirectAccess(t *testing.T) {
	repo := newMockRepository(seedStory(policy.LevelCommunity))
	svc, _ := newTestService(repo)

	_, err := svc.Get(context.Background(), member(8, policy.RoleAdmin, 2), 7)
	requireDenied(t, err, policy.ReasonCommunityMismatch)
}

func TestPublicStoryReadableCrossCommunity(t *testing.T) {
	repo := newMockRepository(seedStory(policy.LevelPublic))
	svc, _ := newTestService(repo)

	got, err := svc.Get(context.Background(), member(8, policy.RoleViewer, 2), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
}

var _ Repository = (*mockRepository)(nil)

func TestMockRepositoryHonoursNotFound(t *testing.T) {
	repo := newMockRepository()
	_, err := repo.Get(context.Background(), 42)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
