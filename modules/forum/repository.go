package forum

import (
	"context"
	"errors"
	"time"

	"github.com/example/forum28/database"
	"github.com/example/forum28/domain/apperr"
	domain "github.com/example/forum28/domain/forum"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrPostNotFound is returned when a post is not found.
	ErrPostNotFound = apperr.New(apperr.KindNotFound, "Post not found.")
	// ErrCommentNotFound is returned when a comment is not found.
	ErrCommentNotFound = apperr.New(apperr.KindNotFound, "Comment not found.")
)

// PostRepository handles post and tag persistence using GORM.
type PostRepository struct {
	db      *gorm.DB
	timeout time.Duration
	tags    singleflight.Group
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *gorm.DB, timeout time.Duration) *PostRepository {
	return &PostRepository{
		db:      db,
		timeout: timeout,
	}
}

// Create inserts post and links it to the named tags, creating missing tags.
func (r *PostRepository) Create(ctx context.Context, post *domain.Post, tagNames []string) error {
	tags, err := r.resolveTags(ctx, tagNames)
	if err != nil {
		return err
	}
	post.Tags = tags

	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return database.Classify("create post", err)
	}
	return nil
}

// resolveTags finds or creates each tag. Concurrent requests for the same
// name share one store round trip; across processes the unique index and
// ON CONFLICT DO NOTHING settle the race.
func (r *PostRepository) resolveTags(ctx context.Context, names []string) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(names))
	for _, name := range names {
		// The shared lookup must not inherit one caller's cancellation.
		ch := r.tags.DoChan(name, func() (any, error) {
			return r.findOrCreateTag(context.WithoutCancel(ctx), name)
		})
		select {
		case <-ctx.Done():
			return nil, database.Classify("resolve tag", ctx.Err())
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			tags = append(tags, res.Val.(domain.Tag))
		}
	}
	return tags, nil
}

func (r *PostRepository) findOrCreateTag(ctx context.Context, name string) (domain.Tag, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.Tag{Name: name}).Error; err != nil {
		return domain.Tag{}, database.Classify("create tag", err)
	}

	var tag domain.Tag
	if err := db.Where("name = ?", name).Take(&tag).Error; err != nil {
		return domain.Tag{}, database.Classify("find tag", err)
	}
	return tag, nil
}

// List returns every post with its tags, newest first.
func (r *PostRepository) List(ctx context.Context) ([]domain.Post, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var posts []domain.Post
	if err := r.db.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Order("created_at DESC").Order("id DESC").
		Find(&posts).Error; err != nil {
		return nil, database.Classify("list posts", err)
	}
	return posts, nil
}

// FindByID finds a post by ID.
func (r *PostRepository) FindByID(ctx context.Context, id uint) (*domain.Post, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var post domain.Post
	if err := r.db.WithContext(ctx).Preload("Tags").Where("id = ?", id).Take(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, database.Classify("find post", err)
	}
	return &post, nil
}

// Delete removes a post together with its comments and tag links. Tags
// themselves stay for reuse.
func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		post := domain.Post{ID: id}
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		result := tx.Delete(&post)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
	if errors.Is(err, ErrPostNotFound) {
		return ErrPostNotFound
	}
	return database.Classify("delete post", err)
}

// CommentRepository handles comment persistence using GORM.
type CommentRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *gorm.DB, timeout time.Duration) *CommentRepository {
	return &CommentRepository{
		db:      db,
		timeout: timeout,
	}
}

// Create inserts a comment.
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return database.Classify("create comment", err)
	}
	return nil
}

// ListByPost returns the comments of a post, oldest first.
func (r *CommentRepository) ListByPost(ctx context.Context, postID uint) ([]domain.Comment, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var comments []domain.Comment
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, database.Classify("list comments", err)
	}
	return comments, nil
}

// FindByID finds a comment by ID.
func (r *CommentRepository) FindByID(ctx context.Context, id uint) (*domain.Comment, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var comment domain.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, database.Classify("find comment", err)
	}
	return &comment, nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id uint) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	result := r.db.WithContext(ctx).Delete(&domain.Comment{}, id)
	if result.Error != nil {
		return database.Classify("delete comment", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
