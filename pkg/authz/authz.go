// Package authz is the single role-permission table for engine operations.
// Ownership checks (assignee, creator, project manager) stay in the engines;
// this table answers only "may this role ever perform this operation".
package authz

import "github.com/build-lab/girder/dao/model"

type Operation string

const (
	ProjectClose           Operation = "project.close"
	ProjectDelete          Operation = "project.delete"
	ProjectApproveOverride Operation = "project.approve_override"
	ProjectCostUpdate      Operation = "project.cost_update"
	UserAdmin              Operation = "user.admin"
)

var roleGrants = map[Operation][]model.Role{
	ProjectClose:           {model.RoleDirector, model.RoleSeniorDirector},
	ProjectDelete:          {model.RoleDirector, model.RoleSeniorDirector},
	ProjectApproveOverride: {model.RoleDirector, model.RoleSeniorDirector},
	// ProjectCostUpdate additionally allows the project's own manager,
	// which the engine checks by ownership.
	ProjectCostUpdate: {model.RoleDirector, model.RoleSeniorDirector},
	UserAdmin:         {model.RoleAdmin},
}

// RoleAllowed reports whether the role is granted the operation.
func RoleAllowed(op Operation, role model.Role) bool {
	for _, r := range roleGrants[op] {
		if r == role {
			return true
		}
	}
	return false
}
