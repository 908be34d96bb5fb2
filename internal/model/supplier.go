package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier is a leaf entity referenced by Product only
type Supplier struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Address     string         `gorm:"type:varchar(255);not null" json:"address"`
	ContactNo   string         `gorm:"type:varchar(50);not null" json:"contact_no"`
	Email       string         `gorm:"type:varchar(255);not null" json:"email"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
