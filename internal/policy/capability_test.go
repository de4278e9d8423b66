package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilityTableMatrix(t *testing.T) {
	expect := map[Role]map[Action]bool{
		RoleAdmin: {
			ActionCreate: true, ActionRead: true, ActionList: true,
			ActionUpdate: true, ActionDelete: true, ActionUpdateElderStatus: true,
		},
		RoleEditor: {
			ActionCreate: true, ActionRead: true, ActionList: true,
			ActionUpdate: true, ActionDelete: false, ActionUpdateElderStatus: false,
		},
		RoleElder: {
			ActionCreate: true, ActionRead: true, ActionList: true,
			ActionUpdate: true, ActionDelete: false, ActionUpdateElderStatus: false,
		},
		RoleViewer: {
			ActionCreate: false, ActionRead: true, ActionList: true,
			ActionUpdate: false, ActionDelete: false, ActionUpdateElderStatus: false,
		},
	}
	for role, actions := range expect {
		for action, allowed := range actions {
			assert.Equal(t, allowed, baselineAllows(role, action), "%s %s", role, action)
		}
	}
}

func TestSuperAdminHasNoBaselineRow(t *testing.T) {
	for _, action := range allActions {
		assert.False(t, baselineAllows(RoleSuperAdmin, action), "action %s", action)
	}
}

func TestReadableLevels(t *testing.T) {
	assert.ElementsMatch(t,
		[]PermissionLevel{LevelPublic, LevelCommunity, LevelRestricted, LevelElderOnly},
		ReadableLevels(RoleAdmin))
	assert.ElementsMatch(t,
		[]PermissionLevel{LevelPublic, LevelCommunity, LevelRestricted, LevelElderOnly},
		ReadableLevels(RoleElder))
	assert.ElementsMatch(t,
		[]PermissionLevel{LevelPublic, LevelCommunity, LevelRestricted},
		ReadableLevels(RoleEditor))
	assert.ElementsMatch(t,
		[]PermissionLevel{LevelPublic, LevelCommunity},
		ReadableLevels(RoleViewer))
	assert.Empty(t, ReadableLevels(RoleSuperAdmin))
}

// Every level ReadableLevels reports for a role must be a level the engine
// actually grants a same-community read for, and vice versa.
func TestReadableLevelsAgreeWithEngine(t *testing.T) {
	engine := NewEngine()
	for _, role := range communityRoles {
		readable := map[PermissionLevel]bool{}
		for _, level := range ReadableLevels(role) {
			readable[level] = true
		}
		for _, level := range []PermissionLevel{LevelPublic, LevelCommunity, LevelRestricted, LevelElderOnly} {
			d := engine.Authorize(principal(role, 5), ActionRead, storyResource(5, level))
			assert.Equal(t, readable[level], d.Granted(), "%s reading %s", role, level)
		}
	}
}
