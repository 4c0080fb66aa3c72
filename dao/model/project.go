package model

import (
	"time"

	"gorm.io/gorm"
)

// Project is a construction project. Status changes go through the
// transition table in pkg/workflow; tasks are cascade-deleted with it.
type Project struct {
	gorm.Model
	Name        string        `gorm:"uniqueIndex;type:varchar(128);not null;comment:project name"`
	Description *string       `gorm:"type:varchar(512);comment:project description"`
	Budget      float64       `gorm:"type:decimal(14,2);not null;comment:approved budget"`
	ActualCost  float64       `gorm:"type:decimal(14,2);not null;default:0;comment:actual cost to date"`
	Status      ProjectStatus `gorm:"type:varchar(32);not null;default:Planning;comment:project status"`
	StartDate   time.Time     `gorm:"not null;comment:planned start"`
	EndDate     time.Time     `gorm:"not null;comment:planned end"`

	ClientID         uint `gorm:"not null;comment:client user ID"`
	Client           User `gorm:"foreignKey:ClientID"`
	ProjectManagerID uint `gorm:"not null;comment:project manager user ID"`
	ProjectManager   User `gorm:"foreignKey:ProjectManagerID"`
	CreatedByID      uint `gorm:"comment:creator user ID"`
	CreatedBy        User `gorm:"foreignKey:CreatedByID"`

	Tasks     []Task            `gorm:"constraint:OnDelete:CASCADE"`
	Approvals []ProjectApproval `gorm:"constraint:OnDelete:CASCADE"`
}

// ProjectApproval is one level of one approval round. All records created by
// a single approval request share a Round number; a project has at most one
// round with Pending records at a time, but collapsed rounds stay on record,
// so every per-round aggregate must filter on Round.
type ProjectApproval struct {
	gorm.Model
	ProjectID     uint           `gorm:"index;not null;comment:project ID"`
	Project       Project        `gorm:"foreignKey:ProjectID"`
	ApproverID    uint           `gorm:"index;not null;comment:assigned approver user ID"`
	Approver      User           `gorm:"foreignKey:ApproverID"`
	Round         uint           `gorm:"index;not null;comment:approval round number, 1-based per project"`
	ApprovalLevel Role           `gorm:"not null;comment:required role for this level"`
	Status        ApprovalStatus `gorm:"type:varchar(32);not null;default:Pending;comment:approval status"`
	Comments      string         `gorm:"type:varchar(512);comment:approver comments"`
	ApprovedAt    *time.Time     `gorm:"comment:decision timestamp"`
}
