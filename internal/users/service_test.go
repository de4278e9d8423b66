package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

type mockRepository struct {
	users  map[int64]*User
	nextID int64
}

func newMockRepository(seed ...User) *mockRepository {
	repo := &mockRepository{users: make(map[int64]*User), nextID: 100}
	for i := range seed {
		u := seed[i]
		repo.users[u.ID] = &u
	}
	return repo
}

func (m *mockRepository) Create(_ context.Context, user *User, _ string) error {
	m.nextID++
	user.ID = m.nextID
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepository) List(_ context.Context, communityID int64, _, _ int) ([]User, int, error) {
	var out []User
	for _, u := range m.users {
		if u.CommunityID == communityID {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) Update(_ context.Context, user *User) error {
	if _, ok := m.users[user.ID]; !ok {
		return shared.ErrNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockRepository) SetRole(_ context.Context, id int64, role policy.Role) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

var _ Repository = (*mockRepository)(nil)

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

func TestCreateIsAdminOnly(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()
	in := CreateInput{Email: "m@example.org", DisplayName: "Mina", Password: "correcthorse", Role: "viewer"}

	got, err := svc.Create(ctx, member(5, policy.RoleAdmin, 1), in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CommunityID)
	assert.True(t, got.IsActive)

	_, err = svc.Create(ctx, member(2, policy.RoleEditor, 1), in)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCreateBlockedForSuperAdmin(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), policy.Principal{ID: 1, Role: policy.RoleSuperAdmin},
		CreateInput{Email: "m@example.org", DisplayName: "Mina", Password: "correcthorse", Role: "viewer"})
	requireDenied(t, err, policy.ReasonSovereigntyViolation)
}

func TestMembershipHiddenFromViewers(t *testing.T) {
	repo := newMockRepository(User{ID: 3, CommunityID: 1, Email: "m@example.org", Role: policy.RoleEditor})
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Get(ctx, member(9, policy.RoleViewer, 1), 3)
	requireDenied(t, err, policy.ReasonRoleInsufficient)

	_, _, err = svc.List(ctx, member(9, policy.RoleViewer, 1), 1, 1, 20)
	requireDenied(t, err, policy.ReasonRoleInsufficient)

	got, _, err := svc.List(ctx, member(5, policy.RoleAdmin, 1), 1, 1, 20)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAssignRoleElderTransitions(t *testing.T) {
	repo := newMockRepository(
		User{ID: 3, CommunityID: 1, Role: policy.RoleViewer},
		User{ID: 4, CommunityID: 1, Role: policy.RoleElder},
	)
	svc := newTestService(repo)
	ctx := context.Background()
	admin := member(5, policy.RoleAdmin, 1)

	got, err := svc.AssignRole(ctx, admin, 3, AssignRoleInput{Role: "elder"})
	require.NoError(t, err)
	assert.Equal(t, policy.RoleElder, got.Role)

	got, err = svc.AssignRole(ctx, admin, 4, AssignRoleInput{Role: "viewer"})
	require.NoError(t, err)
	assert.Equal(t, policy.RoleViewer, got.Role)
}

func TestAssignRoleAcrossCommunitiesDenied(t *testing.T) {
	repo := newMockRepository(User{ID: 3, CommunityID: 1, Role: policy.RoleViewer})
	svc := newTestService(repo)

	_, err := svc.AssignRole(context.Background(), member(8, policy.RoleAdmin, 2), 3, AssignRoleInput{Role: "editor"})
	requireDenied(t, err, policy.ReasonCommunityMismatch)
}

func TestDeleteIsAdminOnly(t *testing.T) {
	repo := newMockRepository(User{ID: 3, CommunityID: 1, Role: policy.RoleViewer})
	svc := newTestService(repo)
	ctx := context.Background()

	err := svc.Delete(ctx, member(2, policy.RoleEditor, 1), 3)
	requireDenied(t, err, policy.ReasonRoleInsufficient)

	err = svc.Delete(ctx, member(5, policy.RoleAdmin, 1), 3)
	require.NoError(t, err)
}
