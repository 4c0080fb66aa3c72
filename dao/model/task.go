package model

import (
	"time"

	"gorm.io/gorm"
)

// Task belongs to a project and owns its dependency edges, approvals and
// time logs (cascade delete). ActualHours is a materialized aggregate over
// the task's inactive time logs, recomputed by pkg/taskctl.
type Task struct {
	gorm.Model
	ProjectID   uint         `gorm:"index;not null;comment:owning project ID"`
	Project     Project      `gorm:"foreignKey:ProjectID"`
	Name        string       `gorm:"type:varchar(128);not null;comment:task name"`
	Description *string      `gorm:"type:varchar(512);comment:task description"`
	Status      TaskStatus   `gorm:"type:varchar(32);not null;default:Not Started;comment:task status"`
	Priority    TaskPriority `gorm:"type:varchar(16);not null;default:Medium;comment:task priority"`

	CompletionPercentage uint8   `gorm:"not null;default:0;comment:completion 0-100"`
	EstimatedHours       float64 `gorm:"type:decimal(8,2);not null;default:0;comment:estimated hours"`
	ActualHours          float64 `gorm:"type:decimal(8,2);not null;default:0;comment:sum of finished time logs in hours"`

	DueDate *time.Time `gorm:"comment:due date"`

	AssignedToID uint `gorm:"index;comment:assignee user ID"`
	AssignedTo   User `gorm:"foreignKey:AssignedToID"`
	CreatedByID  uint `gorm:"comment:creator user ID"`
	CreatedBy    User `gorm:"foreignKey:CreatedByID"`

	Dependencies []TaskDependency `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Approvals    []TaskApproval   `gorm:"constraint:OnDelete:CASCADE"`
	TimeLogs     []TimeLog        `gorm:"constraint:OnDelete:CASCADE"`
}

// TaskDependency is a directed edge: TaskID depends on DependsOnTaskID.
// Edges never cross projects and the graph stays acyclic; both are enforced
// by pkg/taskctl before edges are persisted.
type TaskDependency struct {
	gorm.Model
	TaskID          uint `gorm:"uniqueIndex:idx_task_dependency_edge;not null;comment:dependent task ID"`
	DependsOnTaskID uint `gorm:"uniqueIndex:idx_task_dependency_edge;not null;comment:prerequisite task ID"`
	DependsOnTask   Task `gorm:"foreignKey:DependsOnTaskID"`
}

// TaskApproval is a single sign-off request on a task. At most one Pending
// record per task at a time.
type TaskApproval struct {
	gorm.Model
	TaskID        uint           `gorm:"index;not null;comment:task ID"`
	Task          Task           `gorm:"foreignKey:TaskID"`
	RequestedByID uint           `gorm:"not null;comment:requesting user ID"`
	RequestedBy   User           `gorm:"foreignKey:RequestedByID"`
	ApprovedByID  uint           `gorm:"comment:responding user ID"`
	ApprovedBy    User           `gorm:"foreignKey:ApprovedByID"`
	Status        ApprovalStatus `gorm:"type:varchar(32);not null;default:Pending;comment:approval status"`
	Comments      string         `gorm:"type:varchar(512);comment:responder comments"`
	RequestedAt   time.Time      `gorm:"not null;comment:request timestamp"`
	RespondedAt   *time.Time     `gorm:"comment:response timestamp"`
}

// TimeLog records one work session on a task. A (task, user) pair has at
// most one active log; DurationMinutes is set when the log is stopped.
type TimeLog struct {
	gorm.Model
	TaskID          uint       `gorm:"index;not null;comment:task ID"`
	Task            Task       `gorm:"foreignKey:TaskID"`
	UserID          uint       `gorm:"index;not null;comment:user ID"`
	User            User       `gorm:"foreignKey:UserID"`
	StartTime       time.Time  `gorm:"not null;comment:session start"`
	EndTime         *time.Time `gorm:"comment:session end, null while active"`
	DurationMinutes *int       `gorm:"comment:rounded minutes, set on stop"`
	IsActive        bool       `gorm:"not null;default:true;comment:true while the session is running"`
}
