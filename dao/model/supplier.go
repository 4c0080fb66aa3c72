package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Supplier is a vendor that can quote on projects.
type Supplier struct {
	gorm.Model
	Name         string     `gorm:"uniqueIndex;type:varchar(128);not null;comment:supplier name"`
	ContactEmail string     `gorm:"type:varchar(128);comment:contact email"`
	Phone        string     `gorm:"type:varchar(32);comment:contact phone"`
	Status       UserStatus `gorm:"not null;default:1;comment:supplier status (active, inactive)"`
}

// QuotationItem is one line of a quotation, stored as JSON.
type QuotationItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Quotation is a supplier's offer against a project.
type Quotation struct {
	gorm.Model
	SupplierID uint                                 `gorm:"index;not null;comment:supplier ID"`
	Supplier   Supplier                             `gorm:"foreignKey:SupplierID"`
	ProjectID  uint                                 `gorm:"index;not null;comment:project ID"`
	Project    Project                              `gorm:"foreignKey:ProjectID"`
	Amount     float64                              `gorm:"type:decimal(14,2);not null;comment:total amount"`
	Status     QuotationStatus                      `gorm:"type:varchar(32);not null;default:Draft;comment:quotation status"`
	Items      datatypes.JSONType[[]QuotationItem]  `gorm:"comment:line items"`
	ValidUntil *time.Time                           `gorm:"comment:offer expiry"`
}
