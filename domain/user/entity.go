package user

import (
	"time"
)

// TokenTypeRefresh is the only token type that is ever persisted.
const TokenTypeRefresh = "REFRESH"

// User represents a forum account.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;type:text" json:"email"`
	Name         string    `gorm:"not null;type:text" json:"name"`
	UserName     string    `gorm:"column:user_name;uniqueIndex;not null;type:text" json:"userName"`
	PasswordHash string    `gorm:"not null;type:text" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Token is a persisted refresh token. The token string is unique across all
// users, so a delete filtered by (token, user) removes at most one row.
type Token struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"uniqueIndex;not null;type:text"`
	Type      string    `gorm:"not null;type:text"`
	ExpiresAt time.Time `gorm:"index;not null"`
	UserID    uint      `gorm:"index;not null"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// TableName returns the table name for the Token entity.
func (Token) TableName() string {
	return "tokens"
}

// Identity is the caller identity recovered from a verified access token.
// It is the only identity data a signed token carries.
type Identity struct {
	ID uint `json:"id"`
}
