// Package workflow is the project approval workflow engine: it derives the
// required approval chain from a project's budget, runs approval rounds to
// a unanimous or vetoed outcome, and guards project status transitions.
package workflow

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/apperr"
	"github.com/build-lab/girder/pkg/event"
)

// Actor is the authenticated caller, as supplied by the identity middleware.
// The engine trusts it and performs only role and ownership checks.
type Actor struct {
	ID   uint
	Role model.Role
}

type Engine struct {
	db   *gorm.DB
	sink event.Sink
}

func NewEngine(db *gorm.DB, sink event.Sink) *Engine {
	if sink == nil {
		sink = event.Discard{}
	}
	return &Engine{db: db, sink: sink}
}

// forUpdate adds a row lock so concurrent approvers serialize on the
// project. SQLite has no SELECT ... FOR UPDATE; its writes are serialized
// by the engine anyway.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return tx
}

func (e *Engine) loadProject(tx *gorm.DB, projectID uint, locked bool) (*model.Project, error) {
	q := tx
	if locked {
		q = forUpdate(tx)
	}
	var project model.Project
	if err := q.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project %d not found", projectID)
		}
		return nil, apperr.Internal(err, "load project %d", projectID)
	}
	return &project, nil
}

func (e *Engine) loadUser(tx *gorm.DB, userID uint) (*model.User, error) {
	var user model.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %d not found", userID)
		}
		return nil, apperr.Internal(err, "load user %d", userID)
	}
	return &user, nil
}

// stakeholders resolves the project manager and client as notification
// recipients. Missing users are skipped, not fatal: notifications are
// best-effort by policy.
func (e *Engine) stakeholders(tx *gorm.DB, project *model.Project) []event.Recipient {
	var recipients []event.Recipient
	for _, id := range []uint{project.ProjectManagerID, project.ClientID} {
		if u, err := e.loadUser(tx, id); err == nil {
			recipients = append(recipients, event.Recipient{Name: u.Name, Email: u.Email})
		}
	}
	return recipients
}

func (e *Engine) publishAll(ctx context.Context, events []event.Event) {
	for _, ev := range events {
		e.sink.Publish(ctx, ev)
	}
}
