package auth

import (
	"context"
	"errors"
	"time"

	"github.com/example/forum28/database"
	"github.com/example/forum28/domain/apperr"
	domain "github.com/example/forum28/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = apperr.New(apperr.KindNotFound, "User not found.")
	// ErrUserExists is returned when the username or email is already taken.
	ErrUserExists = apperr.New(apperr.KindConflict, "Username or email is already in use.")
)

// UserRepository handles user persistence using GORM.
type UserRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewUserRepository creates a new UserRepository. Every call is bounded by
// timeout; zero disables the bound.
func NewUserRepository(db *gorm.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{
		db:      db,
		timeout: timeout,
	}
}

// Create inserts a new user. Uniqueness of username and email is enforced by
// the store, so concurrent registrations race on the constraint.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrUserExists
		}
		return database.Classify("create user", err)
	}
	return nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return r.findOne(ctx, "find user by id", "id = ?", id)
}

// FindByUserName finds a user by exact, case-sensitive username.
func (r *UserRepository) FindByUserName(ctx context.Context, userName string) (*domain.User, error) {
	return r.findOne(ctx, "find user by username", "user_name = ?", userName)
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var user domain.User
	result := r.db.WithContext(ctx).Where(query, arg).Take(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, database.Classify(op, result.Error)
	}
	return &user, nil
}
