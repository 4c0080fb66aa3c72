package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/build-lab/girder/dao/model"
)

func TestRoleAllowed(t *testing.T) {
	assert.True(t, RoleAllowed(ProjectClose, model.RoleDirector))
	assert.True(t, RoleAllowed(ProjectClose, model.RoleSeniorDirector))
	assert.False(t, RoleAllowed(ProjectClose, model.RoleProjectManager))
	assert.False(t, RoleAllowed(ProjectClose, model.RoleEmployee))

	assert.True(t, RoleAllowed(UserAdmin, model.RoleAdmin))
	assert.False(t, RoleAllowed(UserAdmin, model.RoleDirector))

	// Unknown operations grant nothing.
	assert.False(t, RoleAllowed(Operation("bogus"), model.RoleAdmin))
}
