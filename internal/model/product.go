package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents an item the shop buys from a supplier and resells.
// SellingPrice is the current list price; the price actually charged is
// captured per invoice line and may differ (manual discounting at POS).
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	Code         string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	BuyingPrice  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"buying_price"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"selling_price"`
	Quantity     int             `gorm:"type:int;default:0;not null" json:"quantity"`
	Description  string          `gorm:"type:text" json:"description"`
	SupplierID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier     *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}
