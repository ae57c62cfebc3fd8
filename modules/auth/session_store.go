package auth

import (
	"context"
	"time"

	"github.com/example/forum28/database"
	domain "github.com/example/forum28/domain/user"
	"gorm.io/gorm"
)

// RefreshTokenRepository persists issued refresh tokens.
type RefreshTokenRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB, timeout time.Duration) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		db:      db,
		timeout: timeout,
	}
}

// PersistRefresh inserts a refresh-token row. Rows for the same user are not
// deduplicated; every login owns its own row.
func (r *RefreshTokenRepository) PersistRefresh(ctx context.Context, token string, userID uint, expiresAt time.Time) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := &domain.Token{
		Token:     token,
		Type:      domain.TokenTypeRefresh,
		ExpiresAt: expiresAt,
		UserID:    userID,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return database.Classify("persist refresh token", err)
	}
	return nil
}

// Revoke deletes the row matching both token and userID and reports how many
// rows went away. Token values are unique, so the count is 0 or 1.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string, userID uint) (int64, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Where("token = ? AND user_id = ? AND type = ?", token, userID, domain.TokenTypeRefresh).
		Delete(&domain.Token{})
	if result.Error != nil {
		return 0, database.Classify("revoke refresh token", result.Error)
	}
	return result.RowsAffected, nil
}

