// Constants mapped to database columns.
// Gin rejects zero values for fields tagged `binding:"required"`, so numeric
// enums start at iota + 1 to keep the zero value out of the legal range.
package model

// Role is the platform role of a user. Approval levels reuse the same
// enumeration: an approval chain is an ordered list of roles.
type Role uint8

const (
	RoleEmployee Role = iota + 1
	RoleProjectManager
	RoleDirector
	RoleSeniorDirector
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleEmployee:
		return "Employee"
	case RoleProjectManager:
		return "Project Manager"
	case RoleDirector:
		return "Director"
	case RoleSeniorDirector:
		return "Senior Director"
	case RoleAdmin:
		return "Admin"
	default:
		return "Unknown"
	}
}

// User account status
type UserStatus uint8

const (
	UserStatusActive UserStatus = iota + 1
	UserStatusInactive
)

// ProjectStatus is mutated only through the validated transition table,
// see pkg/workflow/transition.go.
type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "Planning"
	ProjectStatusInProgress ProjectStatus = "In Progress"
	ProjectStatusOnHold     ProjectStatus = "On Hold"
	ProjectStatusCompleted  ProjectStatus = "Completed"
	ProjectStatusClosed     ProjectStatus = "Closed"
)

// ApprovalStatus is shared by project approval rounds and task approvals.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "Pending"
	ApprovalStatusApproved ApprovalStatus = "Approved"
	ApprovalStatusRejected ApprovalStatus = "Rejected"
	ApprovalStatusDeclined ApprovalStatus = "Declined"
)

// Task status
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "Not Started"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusOnHold     TaskStatus = "On Hold"
)

// Task priority
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "Low"
	TaskPriorityMedium   TaskPriority = "Medium"
	TaskPriorityHigh     TaskPriority = "High"
	TaskPriorityCritical TaskPriority = "Critical"
)

// Quotation status
type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "Draft"
	QuotationStatusSubmitted QuotationStatus = "Submitted"
	QuotationStatusAccepted  QuotationStatus = "Accepted"
	QuotationStatusRejected  QuotationStatus = "Rejected"
)
