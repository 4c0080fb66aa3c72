package taskctl

import (
	"gorm.io/gorm"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/apperr"
)

// replaceDependencies swaps the task's full dependency edge set for the
// given prerequisite IDs. Every prerequisite must exist, belong to the same
// project, and must not make the task reachable from itself. Runs inside
// the caller's transaction: a failed check rolls everything back.
func (e *Engine) replaceDependencies(tx *gorm.DB, task *model.Task, dependsOn []uint) error {
	seen := make(map[uint]bool, len(dependsOn))
	for _, depID := range dependsOn {
		if depID == task.ID {
			return apperr.Validation("task %d cannot depend on itself", task.ID)
		}
		if seen[depID] {
			return apperr.Validation("duplicate dependency on task %d", depID)
		}
		seen[depID] = true

		dep, err := e.loadTask(tx, depID)
		if err != nil {
			return err
		}
		if dep.ProjectID != task.ProjectID {
			return apperr.Validation("task %d belongs to a different project", depID)
		}

		reachable, err := reachesTask(tx, depID, task.ID)
		if err != nil {
			return err
		}
		if reachable {
			return apperr.Validation("dependency on task %d would create a cycle", depID)
		}
	}

	if err := tx.Where("task_id = ?", task.ID).Delete(&model.TaskDependency{}).Error; err != nil {
		return apperr.Internal(err, "clear dependency edges of task %d", task.ID)
	}
	for _, depID := range dependsOn {
		edge := model.TaskDependency{TaskID: task.ID, DependsOnTaskID: depID}
		if err := tx.Create(&edge).Error; err != nil {
			return apperr.Internal(err, "create dependency edge %d -> %d", task.ID, depID)
		}
	}
	return nil
}

// reachesTask walks existing depends-on edges from start and reports
// whether target is reachable. Iterative BFS, so cycles of any length are
// caught, not just direct mutual dependencies.
func reachesTask(tx *gorm.DB, start, target uint) (bool, error) {
	visited := map[uint]bool{start: true}
	frontier := []uint{start}

	for len(frontier) > 0 {
		var edges []model.TaskDependency
		if err := tx.Where("task_id IN ?", frontier).Find(&edges).Error; err != nil {
			return false, apperr.Internal(err, "walk dependency graph")
		}
		frontier = frontier[:0]
		for i := range edges {
			next := edges[i].DependsOnTaskID
			if next == target {
				return true, nil
			}
			if !visited[next] {
				visited[next] = true
				frontier = append(frontier, next)
			}
		}
	}
	return false, nil
}

// gateStatusChange blocks In Progress and Completed while any direct
// prerequisite is incomplete. The check is intentionally non-transitive:
// each task is gated by its own immediate prerequisites, and transitivity
// follows because those cannot complete early either.
func (e *Engine) gateStatusChange(tx *gorm.DB, task *model.Task, to model.TaskStatus) error {
	if to != model.TaskStatusInProgress && to != model.TaskStatusCompleted {
		return nil
	}

	var edges []model.TaskDependency
	if err := tx.Where("task_id = ?", task.ID).Find(&edges).Error; err != nil {
		return apperr.Internal(err, "load dependencies of task %d", task.ID)
	}
	for i := range edges {
		dep, err := e.loadTask(tx, edges[i].DependsOnTaskID)
		if err != nil {
			return err
		}
		if dep.Status != model.TaskStatusCompleted {
			return apperr.Validation("task %d cannot move to %q: dependency %q is %q",
				task.ID, to, dep.Name, dep.Status)
		}
	}
	return nil
}
