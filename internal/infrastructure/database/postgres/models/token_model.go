package models

import "time"

// SessionTokenModel caches telemetry bearer tokens across restarts.
// One row per provider credential.
type SessionTokenModel struct {
	Username     string    `gorm:"type:varchar(255);primary_key"`
	AccessToken  string    `gorm:"type:text;not null"`
	IssuedAt     time.Time `gorm:"not null"`
	ExpiresAt    time.Time `gorm:"not null;index"`
	SkewOffsetMs int64     `gorm:"not null;default:0"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (SessionTokenModel) TableName() string {
	return "telemetry_session_tokens"
}
