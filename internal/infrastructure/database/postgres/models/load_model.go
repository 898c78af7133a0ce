package models

import (
	"time"

	"github.com/google/uuid"
)

// LoadModel represents the database model for Loads.
type LoadModel struct {
	ID                        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Reference                 string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	Origin                    string     `gorm:"type:varchar(255);not null"`
	Destination               string     `gorm:"type:varchar(255);not null"`
	Status                    string     `gorm:"type:varchar(50);not null;default:'pending';index"`
	VehicleIdentifier         *string    `gorm:"type:varchar(100);index"`
	DriverName                *string    `gorm:"type:varchar(255)"`
	ClientName                *string    `gorm:"type:varchar(255)"`
	ActualLoadingArrival      *time.Time `gorm:"type:timestamp"`
	ActualLoadingDeparture    *time.Time `gorm:"type:timestamp"`
	ActualOffloadingArrival   *time.Time `gorm:"type:timestamp"`
	ActualOffloadingDeparture *time.Time `gorm:"type:timestamp"`
	CreatedAt                 time.Time  `gorm:"not null"`
	UpdatedAt                 time.Time  `gorm:"not null"`
}

func (LoadModel) TableName() string {
	return "loads"
}
