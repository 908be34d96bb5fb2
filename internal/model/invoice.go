package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceCounter holds the per-calendar-day sequence used to build invoice
// numbers. One row per date, created on first use, only ever incremented.
// The increment runs as a single upsert statement so concurrent invoice
// creations on the same day never receive the same value.
type InvoiceCounter struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceDate string    `gorm:"type:varchar(8);uniqueIndex;not null" json:"invoice_date"` // YYYYMMDD
	Sequence    int       `gorm:"type:int;not null;default:1" json:"sequence"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Invoice is the immutable record of a completed sale. There is no update
// or delete path; corrections are handled outside this system.
// CustomerID carries no FK constraint: customers may be deleted after the
// fact, so the customer name is hard-copied at the time of sale.
type Invoice struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo    string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"invoice_no"` // YYYYMMDDNNN
	CustomerID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	CustomerName string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	Items        []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

// InvoiceItem is one line of an invoice. SellingPrice is the price at the
// time of sale, not the product's current list price.
type InvoiceItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName  string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity     int             `gorm:"type:int;not null" json:"quantity"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"selling_price"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
}
