package workflow

import (
	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/apperr"
	"github.com/build-lab/girder/pkg/authz"
)

// transitions is the project status machine. Closed is terminal.
var transitions = map[model.ProjectStatus][]model.ProjectStatus{
	model.ProjectStatusPlanning:   {model.ProjectStatusInProgress, model.ProjectStatusOnHold},
	model.ProjectStatusInProgress: {model.ProjectStatusOnHold, model.ProjectStatusCompleted},
	model.ProjectStatusOnHold:     {model.ProjectStatusInProgress, model.ProjectStatusPlanning},
	model.ProjectStatusCompleted:  {model.ProjectStatusClosed},
	model.ProjectStatusClosed:     {},
}

// ValidateTransition checks the status table and, for Closed, the actor's
// role. The role gate is independent of the table itself.
func ValidateTransition(from, to model.ProjectStatus, actorRole model.Role) error {
	if !transitionAllowed(from, to) {
		return apperr.Validation("invalid status transition from %q to %q", from, to)
	}
	if to == model.ProjectStatusClosed && !authz.RoleAllowed(authz.ProjectClose, actorRole) {
		return apperr.Authorization("only a director can close a project")
	}
	return nil
}

func transitionAllowed(from, to model.ProjectStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
