package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer represents a buying business served by the shop
type Customer struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessName string         `gorm:"type:varchar(255);not null" json:"business_name"`
	OwnerName    string         `gorm:"type:varchar(255);not null" json:"owner_name"`
	Address      string         `gorm:"type:varchar(255);not null" json:"address"`
	City         string         `gorm:"type:varchar(100);not null" json:"city"`
	ContactNo1   string         `gorm:"type:varchar(50);not null" json:"contact_no1"`
	ContactNo2   string         `gorm:"type:varchar(50)" json:"contact_no2"`
	Email        string         `gorm:"type:varchar(255);not null" json:"email"`
	Description  string         `gorm:"type:text" json:"description"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
