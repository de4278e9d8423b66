package communities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

type mockRepository struct {
	communities map[int64]*Community
	nextID      int64
}

func newMockRepository(seed ...Community) *mockRepository {
	repo := &mockRepository{communities: make(map[int64]*Community), nextID: 100}
	for i := range seed {
		c := seed[i]
		repo.communities[c.ID] = &c
	}
	return repo
}

func (m *mockRepository) Create(_ context.Context, community *Community) error {
	m.nextID++
	community.ID = m.nextID
	cp := *community
	m.communities[community.ID] = &cp
	return nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Community, error) {
	c, ok := m.communities[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepository) List(_ context.Context, _, _ int) ([]Community, int, error) {
	var out []Community
	for _, c := range m.communities {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockRepository) Update(_ context.Context, community *Community) error {
	if _, ok := m.communities[community.ID]; !ok {
		return shared.ErrNotFound
	}
	cp := *community
	m.communities[community.ID] = &cp
	return nil
}

var _ Repository = (*mockRepository)(nil)

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, policy.NewAuthorizer(policy.NewEngine(), nil, nil))
}

func member(id int64, role policy.Role, community int64) policy.Principal {
	return policy.Principal{ID: id, Role: role, CommunityID: &community}
}

func superAdmin() policy.Principal {
	return policy.Principal{ID: 1, Role: policy.RoleSuperAdmin}
}

func requireDenied(t *testing.T, err error, reason policy.Reason) {
	t.Helper()
	var denied *policy.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, reason, denied.Decision.Reason)
}

func TestRegistryCreateIsSuperAdminOnly(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	got, err := svc.Create(ctx, superAdmin(), CreateInput{Name: "Rio Verde"})
	require.NoError(t, err)
	assert.Equal(t, "rio-verde", got.Slug)

	_, err = svc.Create(ctx, member(5, policy.RoleAdmin, 1), CreateInput{Name: "Nope"})
	requireDenied(t, err, policy.ReasonRoleInsufficient)
}

func TestRegistryListIsSuperAdminOnly(t *testing.T) {
	repo := newMockRepository(Community{ID: 1, Name: "Rio Verde"})
	svc := newTestService(repo)
	ctx := context.Background()

	got, _, err := svc.List(ctx, superAdmin(), 1, 20)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, _, err = svc.List(ctx, member(5, policy.RoleAdmin, 1), 1, 20)
	requireDenied(t, err, policy.ReasonRoleInsufficient)
}

func TestCommunityRecordIsSovereign(t *testing.T) {
	repo := newMockRepository(Community{ID: 1, Name: "Rio Verde"})
	svc := newTestService(repo)
	ctx := context.Background()

	// The registry belongs to the platform; the record belongs to the
	// community. super_admin may not read or edit it.
	_, err := svc.Get(ctx, superAdmin(), 1)
	requireDenied(t, err, policy.ReasonSovereigntyViolation)

	name := "Renamed"
	_, err = svc.Update(ctx, superAdmin(), 1, UpdateInput{Name: &name})
	requireDenied(t, err, policy.ReasonSovereigntyViolation)

	got, err := svc.Update(ctx, member(5, policy.RoleAdmin, 1), 1, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Slug)
}

func TestPublicCommunityReadableByOtherCommunities(t *testing.T) {
	repo := newMockRepository(
		Community{ID: 1, Name: "Rio Verde", Public: true},
		Community{ID: 2, Name: "Hidden Valley"},
	)
	svc := newTestService(repo)
	ctx := context.Background()

	got, err := svc.Get(ctx, member(9, policy.RoleViewer, 3), 1)
	require.NoError(t, err)
	assert.Equal(t, "Rio Verde", got.Name)

	_, err = svc.Get(ctx, member(9, policy.RoleViewer, 3), 2)
	requireDenied(t, err, policy.ReasonCommunityMismatch)
}
