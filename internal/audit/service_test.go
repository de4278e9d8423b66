package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

type mockRepository struct {
	entries     []Entry
	lastFilters Filters
}

func (m *mockRepository) Review(_ context.Context, communityID int64, f Filters, _, _ int) ([]Entry, int, error) {
	m.lastFilters = f
	var out []Entry
	for _, e := range m.entries {
		if e.ResourceCommunityID != nil && *e.ResourceCommunityID == communityID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

var _ Repository = (*mockRepository)(nil)

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, policy.NewAuthorizer(policy.NewEngine(), nil, nil))
}

func member(id int64, role policy.Role, community int64) policy.Principal {
	return policy.Principal{ID: id, Role: role, CommunityID: &community}
}

func seedEntries() []Entry {
	community := int64(1)
	return []Entry{{
		ID:                  1,
		ActorID:             9,
		ActorRole:           policy.RoleViewer,
		ResourceType:        "story",
		ResourceID:          7,
		ResourceCommunityID: &community,
		Action:              policy.ActionRead,
		Outcome:             policy.OutcomeDeny,
		Reason:              policy.ReasonRoleInsufficient,
		OccurredAt:          time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func TestReviewIsCommunityAdminOnly(t *testing.T) {
	repo := &mockRepository{entries: seedEntries()}
	svc := newTestService(repo)
	ctx := context.Background()

	got, _, err := svc.Review(ctx, member(5, policy.RoleAdmin, 1), 1, Filters{}, 1, 20)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	for _, role := range []policy.Role{policy.RoleEditor, policy.RoleElder} {
		_, _, err := svc.Review(ctx, member(2, role, 1), 1, Filters{}, 1, 20)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	}

	var denied *policy.DeniedError
	_, _, err = svc.Review(ctx, member(9, policy.RoleViewer, 1), 1, Filters{}, 1, 20)
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, policy.ReasonRoleInsufficient, denied.Decision.Reason)
}

func TestReviewBlockedAcrossCommunitiesAndForSuperAdmin(t *testing.T) {
	repo := &mockRepository{entries: seedEntries()}
	svc := newTestService(repo)
	ctx := context.Background()
	var denied *policy.DeniedError

	_, _, err := svc.Review(ctx, member(5, policy.RoleAdmin, 2), 1, Filters{}, 1, 20)
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, policy.ReasonCommunityMismatch, denied.Decision.Reason)

	_, _, err = svc.Review(ctx, policy.Principal{ID: 1, Role: policy.RoleSuperAdmin}, 1, Filters{}, 1, 20)
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, policy.ReasonSovereigntyViolation, denied.Decision.Reason)
}

func TestExportCSVRendersDecisionRows(t *testing.T) {
	repo := &mockRepository{entries: seedEntries()}
	svc := newTestService(repo)

	data, err := svc.ExportCSV(context.Background(), member(5, policy.RoleAdmin, 1), 1, Filters{
		Outcome: policy.OutcomeDeny,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "occurred_at")
	assert.Contains(t, lines[1], "role_insufficient")
	assert.Equal(t, policy.OutcomeDeny, repo.lastFilters.Outcome)
}
