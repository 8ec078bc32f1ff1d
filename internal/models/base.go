package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the primary key and timestamps shared by every table.
type Base struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// All lists every model in dependency order, for auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Company{},
		&CompanyMembership{},
		&EmployeeInvitation{},
		&Category{},
		&PersonalRecipe{},
		&CompanyRecipe{},
		&Recipe{},
		&Ingredient{},
		&PasswordResetToken{},
		&AuditLog{},
		&ErrorLog{},
	}
}

// scopedIndexes are the partial and expression unique indexes GORM tags
// cannot express. The SQL migrations create the same indexes on PostgreSQL.
var scopedIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_global_name ON categories (LOWER(name)) WHERE company_id IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_company_name ON categories (company_id, LOWER(name)) WHERE company_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_employee_invitations_pending ON employee_invitations (company_id, email) WHERE status = 'pending'`,
}

// AutoMigrate creates or updates every table from the models, then adds the
// scoped unique indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return err
	}
	for _, stmt := range scopedIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
