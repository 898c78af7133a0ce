package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"logistics-live-tracking/internal/infrastructure/database/postgres/models"
	"logistics-live-tracking/internal/telemetry"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository persists telemetry session tokens so a restart can reuse
// an unexpired token instead of re-authenticating.
type TokenRepository struct {
	db *DB
}

func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Get(ctx context.Context, username string) (*telemetry.Token, error) {
	var dbModel models.SessionTokenModel
	err := r.db.DB.WithContext(ctx).
		Where("username = ?", username).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session token: %w", err)
	}

	return &telemetry.Token{
		AccessToken: dbModel.AccessToken,
		IssuedAt:    dbModel.IssuedAt,
		ExpiresAt:   dbModel.ExpiresAt,
		SkewOffset:  time.Duration(dbModel.SkewOffsetMs) * time.Millisecond,
	}, nil
}

func (r *TokenRepository) Put(ctx context.Context, username string, token *telemetry.Token) error {
	dbModel := models.SessionTokenModel{
		Username:     username,
		AccessToken:  token.AccessToken,
		IssuedAt:     token.IssuedAt,
		ExpiresAt:    token.ExpiresAt,
		SkewOffsetMs: token.SkewOffset.Milliseconds(),
		UpdatedAt:    time.Now(),
	}

	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "issued_at", "expires_at", "skew_offset_ms", "updated_at"}),
		}).
		Create(&dbModel).Error
	if err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}

	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, username string) error {
	err := r.db.DB.WithContext(ctx).
		Where("username = ?", username).
		Delete(&models.SessionTokenModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}
