package query

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/logutils"
)

// Migrate brings the schema up to date. The initial migration creates every
// table; later schema changes get their own migration entries.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202608010001",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&model.User{},
					&model.Project{},
					&model.ProjectApproval{},
					&model.Task{},
					&model.TaskDependency{},
					&model.TaskApproval{},
					&model.TimeLog{},
					&model.Supplier{},
					&model.Quotation{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&model.Quotation{},
					&model.Supplier{},
					&model.TimeLog{},
					&model.TaskApproval{},
					&model.TaskDependency{},
					&model.Task{},
					&model.ProjectApproval{},
					&model.Project{},
					&model.User{},
				)
			},
		},
		{
			ID: "202608290001",
			Migrate: func(tx *gorm.DB) error {
				// Fresh installs already get the column from the initial
				// AutoMigrate above.
				if tx.Migrator().HasColumn(&model.ProjectApproval{}, "Round") {
					return nil
				}
				return tx.Migrator().AddColumn(&model.ProjectApproval{}, "Round")
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropColumn(&model.ProjectApproval{}, "Round")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return err
	}
	logutils.Log.Info("database migration success")
	return nil
}
