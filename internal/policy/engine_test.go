package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func communityID(id int64) *int64 {
	return &id
}

func principal(role Role, community int64) Principal {
	return Principal{ID: 7, Role: role, CommunityID: communityID(community)}
}

func superAdmin() Principal {
	return Principal{ID: 1, Role: RoleSuperAdmin}
}

func storyResource(community int64, level PermissionLevel) Resource {
	return CommunityResource("story", 42, community, Protocol{PermissionLevel: level})
}

var allActions = []Action{
	ActionCreate, ActionRead, ActionList, ActionUpdate, ActionDelete, ActionUpdateElderStatus,
}

var communityRoles = []Role{RoleAdmin, RoleEditor, RoleElder, RoleViewer}

func TestSovereigntyInvariant(t *testing.T) {
	engine := NewEngine()
	resources := []Resource{
		storyResource(5, LevelPublic),
		storyResource(5, LevelCommunity),
		storyResource(9, LevelRestricted),
		storyResource(9, LevelElderOnly),
	}
	for _, r := range resources {
		for _, action := range allActions {
			d := engine.Authorize(superAdmin(), action, r)
			require.Equal(t, OutcomeDeny, d.Outcome, "action %s on %s", action, r.Protocol.PermissionLevel)
			require.Equal(t, ReasonSovereigntyViolation, d.Reason)
		}
	}
}

func TestSovereigntyGuardRunsBeforeValidation(t *testing.T) {
	engine := NewEngine()
	// Even a malformed resource descriptor must not change the guard's answer.
	d := engine.Authorize(superAdmin(), ActionRead, Resource{Type: "story"})
	assert.Equal(t, ReasonSovereigntyViolation, d.Reason)

	// A super_admin that somehow carries a community id is still blocked.
	p := Principal{ID: 1, Role: RoleSuperAdmin, CommunityID: communityID(5)}
	d = engine.Authorize(p, ActionList, storyResource(5, LevelCommunity))
	assert.Equal(t, ReasonSovereigntyViolation, d.Reason)
}

func TestCommunityIsolation(t *testing.T) {
	engine := NewEngine()
	for _, role := range communityRoles {
		for _, level := range []PermissionLevel{LevelCommunity, LevelRestricted, LevelElderOnly} {
			for _, action := range allActions {
				d := engine.Authorize(principal(role, 5), action, storyResource(9, level))
				require.Equal(t, OutcomeDeny, d.Outcome, "%s %s %s", role, action, level)
				require.Equal(t, ReasonCommunityMismatch, d.Reason, "%s %s %s", role, action, level)
			}
		}
	}
}

func TestPublicReadRelaxesCommunityMatchForReadsOnly(t *testing.T) {
	engine := NewEngine()
	public := storyResource(9, LevelPublic)

	d := engine.Authorize(principal(RoleAdmin, 5), ActionRead, public)
	assert.True(t, d.Granted(), "admin cross-community public read")

	d = engine.Authorize(principal(RoleViewer, 5), ActionList, public)
	assert.True(t, d.Granted(), "viewer cross-community public list")

	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete, ActionUpdateElderStatus} {
		d := engine.Authorize(principal(RoleAdmin, 5), action, public)
		assert.Equal(t, ReasonCommunityMismatch, d.Reason, "write %s must not be relaxed", action)
	}
}

func TestCapabilityTableBounds(t *testing.T) {
	cases := []struct {
		role   Role
		action Action
		reason Reason
	}{
		{RoleViewer, ActionCreate, ReasonRoleInsufficient},
		{RoleViewer, ActionUpdate, ReasonRoleInsufficient},
		{RoleViewer, ActionDelete, ReasonRoleInsufficient},
		{RoleViewer, ActionUpdateElderStatus, ReasonRoleInsufficient},
		{RoleEditor, ActionDelete, ReasonRoleInsufficient},
		{RoleEditor, ActionUpdateElderStatus, ReasonRoleInsufficient},
		{RoleElder, ActionDelete, ReasonRoleInsufficient},
		{RoleElder, ActionUpdateElderStatus, ReasonRoleInsufficient},
	}
	engine := NewEngine()
	for _, tc := range cases {
		d := engine.Authorize(principal(tc.role, 5), tc.action, storyResource(5, LevelCommunity))
		assert.Equal(t, tc.reason, d.Reason, "%s %s", tc.role, tc.action)
	}
}

func TestElderDeletionInvariant(t *testing.T) {
	engine := NewEngine()
	r := storyResource(5, LevelElderOnly)
	for _, role := range communityRoles {
		d := engine.Authorize(principal(role, 5), ActionDelete, r)
		require.Equal(t, OutcomeDeny, d.Outcome, "role %s", role)
		if role == RoleAdmin {
			// Admin passes the capability table; only the protocol layer
			// stops the delete.
			require.Equal(t, ReasonElderContentProtected, d.Reason)
		}
	}
}

func TestProtocolNarrowingNeverUpgrades(t *testing.T) {
	engine := NewEngine()
	// Every grant must also be a baseline capability grant.
	for _, role := range communityRoles {
		for _, action := range allActions {
			for _, level := range []PermissionLevel{LevelPublic, LevelCommunity, LevelRestricted, LevelElderOnly} {
				d := engine.Authorize(principal(role, 5), action, storyResource(5, level))
				if d.Granted() {
					require.True(t, baselineAllows(role, action),
						"grant for %s %s %s without baseline capability", role, action, level)
				}
			}
		}
	}
}

func TestCeremonialContentNarrowing(t *testing.T) {
	engine := NewEngine()
	r := CommunityResource("story", 42, 5, Protocol{PermissionLevel: LevelCommunity, CeremonialContent: true})

	d := engine.Authorize(principal(RoleEditor, 5), ActionUpdate, r)
	assert.Equal(t, ReasonElderContentProtected, d.Reason)

	d = engine.Authorize(principal(RoleElder, 5), ActionUpdate, r)
	assert.True(t, d.Granted())

	d = engine.Authorize(principal(RoleAdmin, 5), ActionCreate, r)
	assert.True(t, d.Granted())
}

func TestMalformedInputsFailClosed(t *testing.T) {
	engine := NewEngine()

	cases := []struct {
		name      string
		principal Principal
		action    Action
		resource  Resource
	}{
		{"principal missing community", Principal{ID: 3, Role: RoleEditor}, ActionRead, storyResource(5, LevelCommunity)},
		{"resource missing community", principal(RoleEditor, 5), ActionRead, Resource{Type: "story", ID: 42}},
		{"unknown role", Principal{ID: 3, Role: Role("owner"), CommunityID: communityID(5)}, ActionRead, storyResource(5, LevelCommunity)},
		{"unknown action", principal(RoleEditor, 5), Action("publish"), storyResource(5, LevelCommunity)},
		{"unknown level", principal(RoleEditor, 5), ActionRead, CommunityResource("story", 42, 5, Protocol{PermissionLevel: "secret"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := engine.Authorize(tc.principal, tc.action, tc.resource)
			require.Equal(t, OutcomeDeny, d.Outcome)
			require.Equal(t, ReasonMalformedInput, d.Reason)
		})
	}
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	engine := NewEngine()
	p := principal(RoleEditor, 5)
	r := storyResource(5, LevelRestricted)
	first := engine.Authorize(p, ActionUpdate, r)
	second := engine.Authorize(p, ActionUpdate, r)
	assert.Equal(t, first, second)
}

func TestSystemResources(t *testing.T) {
	engine := NewEngine()
	registry := SystemResource("community", 0)

	d := engine.Authorize(superAdmin(), ActionCreate, registry)
	assert.True(t, d.Granted(), "super_admin creates communities")

	d = engine.Authorize(superAdmin(), ActionUpdateElderStatus, registry)
	assert.Equal(t, ReasonRoleInsufficient, d.Reason)

	d = engine.Authorize(principal(RoleAdmin, 5), ActionCreate, registry)
	assert.Equal(t, ReasonRoleInsufficient, d.Reason, "community roles stay off the platform level")

	malformed := Principal{ID: 1, Role: RoleSuperAdmin, CommunityID: communityID(5)}
	d = engine.Authorize(malformed, ActionCreate, registry)
	assert.Equal(t, ReasonMalformedInput, d.Reason)
}

// Scenario tests from the sovereignty review checklist.

func TestScenarioAdminReadsForeignPublicStory(t *testing.T) {
	d := NewEngine().Authorize(principal(RoleAdmin, 5), ActionRead, storyResource(9, LevelPublic))
	assert.True(t, d.Granted())
}

func TestScenarioEditorUpdatesElderOnlySpeaker(t *testing.T) {
	r := CommunityResource("speaker", 11, 5, Protocol{PermissionLevel: LevelElderOnly})
	d := NewEngine().Authorize(principal(RoleEditor, 5), ActionUpdate, r)
	require.Equal(t, OutcomeDeny, d.Outcome)
	assert.Equal(t, ReasonElderContentProtected, d.Reason)
}

func TestScenarioSuperAdminListsStories(t *testing.T) {
	d := NewEngine().Authorize(superAdmin(), ActionList, storyResource(5, LevelCommunity))
	require.Equal(t, OutcomeDeny, d.Outcome)
	assert.Equal(t, ReasonSovereigntyViolation, d.Reason)
}

func TestScenarioRestrictedPlaceVisibility(t *testing.T) {
	r := CommunityResource("place", 3, 5, Protocol{PermissionLevel: LevelRestricted})

	d := NewEngine().Authorize(principal(RoleViewer, 5), ActionRead, r)
	require.Equal(t, OutcomeDeny, d.Outcome)
	assert.Equal(t, ReasonRoleInsufficient, d.Reason)

	d = NewEngine().Authorize(principal(RoleElder, 5), ActionRead, r)
	assert.True(t, d.Granted())
}
