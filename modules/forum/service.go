package forum

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/forum28/domain/apperr"
	domain "github.com/example/forum28/domain/forum"
	"github.com/example/forum28/modules/auth"
)

var (
	// ErrPostFieldsRequired is returned when title, content or category is empty.
	ErrPostFieldsRequired = apperr.New(apperr.KindValidation, "Title, content and category are required.")
	// ErrCommentContentRequired is returned for an empty comment.
	ErrCommentContentRequired = apperr.New(apperr.KindValidation, "Comment content is required.")
	// ErrPostForbidden is returned when a non-author deletes a post.
	ErrPostForbidden = apperr.New(apperr.KindForbidden, "You are not allowed to delete this post.")
	// ErrCommentForbidden is returned when a non-author deletes a comment.
	ErrCommentForbidden = apperr.New(apperr.KindForbidden, "You are not allowed to delete this comment.")
)

// PostStore is the post persistence the service depends on.
type PostStore interface {
	Create(ctx context.Context, post *domain.Post, tagNames []string) error
	List(ctx context.Context) ([]domain.Post, error)
	FindByID(ctx context.Context, id uint) (*domain.Post, error)
	Delete(ctx context.Context, id uint) error
}

// CommentStore is the comment persistence the service depends on.
type CommentStore interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByPost(ctx context.Context, postID uint) ([]domain.Comment, error)
	FindByID(ctx context.Context, id uint) (*domain.Comment, error)
	Delete(ctx context.Context, id uint) error
}

// AuthorDirectory resolves author ids to public user records.
// auth.AuthPort satisfies it.
type AuthorDirectory interface {
	GetUser(ctx context.Context, userID uint) (*auth.UserView, error)
}

// ForumService handles post and comment business logic.
type ForumService struct {
	posts    PostStore
	comments CommentStore
	authors  AuthorDirectory
}

// NewForumService creates a new ForumService.
func NewForumService(posts PostStore, comments CommentStore, authors AuthorDirectory) *ForumService {
	return &ForumService{
		posts:    posts,
		comments: comments,
		authors:  authors,
	}
}

// CreatePost stores a post written by req.AuthorID.
func (s *ForumService) CreatePost(ctx context.Context, req CreatePostRequest) (*PostView, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	category := strings.TrimSpace(req.Category)
	if title == "" || content == "" || category == "" {
		return nil, ErrPostFieldsRequired
	}

	tags, err := NormalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		Title:    title,
		Content:  content,
		Category: category,
		AuthorID: req.AuthorID,
	}
	if err := s.posts.Create(ctx, post, tags); err != nil {
		return nil, err
	}

	authors, err := s.lookupAuthors(ctx, []uint{post.AuthorID})
	if err != nil {
		return nil, err
	}
	view := newPostView(post, authors[post.AuthorID])
	return &view, nil
}

// ListPosts returns every post newest first, with author and tags.
func (s *ForumService) ListPosts(ctx context.Context) ([]PostView, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	authors, err := s.lookupAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, 0, len(posts))
	for i := range posts {
		views = append(views, newPostView(&posts[i], authors[posts[i].AuthorID]))
	}
	return views, nil
}

// DeletePost removes a post owned by req.UserID.
func (s *ForumService) DeletePost(ctx context.Context, req DeletePostRequest) error {
	post, err := s.posts.FindByID(ctx, req.PostID)
	if err != nil {
		return err
	}
	if post.AuthorID != req.UserID {
		return ErrPostForbidden
	}
	return s.posts.Delete(ctx, post.ID)
}

// CreateComment adds a comment to an existing post.
func (s *ForumService) CreateComment(ctx context.Context, req CreateCommentRequest) (*CommentView, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrCommentContentRequired
	}

	if _, err := s.posts.FindByID(ctx, req.PostID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		Content:  content,
		PostID:   req.PostID,
		AuthorID: req.AuthorID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	authors, err := s.lookupAuthors(ctx, []uint{comment.AuthorID})
	if err != nil {
		return nil, err
	}
	view := newCommentView(comment, authors[comment.AuthorID])
	return &view, nil
}

// ListComments returns the comments of a post, oldest first.
func (s *ForumService) ListComments(ctx context.Context, postID uint) ([]CommentView, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	authors, err := s.lookupAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, newCommentView(&comments[i], authors[comments[i].AuthorID]))
	}
	return views, nil
}

// DeleteComment removes a comment owned by req.UserID.
func (s *ForumService) DeleteComment(ctx context.Context, req DeleteCommentRequest) error {
	comment, err := s.comments.FindByID(ctx, req.CommentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != req.UserID {
		return ErrCommentForbidden
	}
	return s.comments.Delete(ctx, comment.ID)
}

// lookupAuthors resolves each distinct id once. Authors that no longer exist
// are left out of the result.
func (s *ForumService) lookupAuthors(ctx context.Context, ids []uint) (map[uint]*AuthorView, error) {
	authors := make(map[uint]*AuthorView, len(ids))
	for _, id := range ids {
		if _, done := authors[id]; done {
			continue
		}
		user, err := s.authors.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				authors[id] = nil
				continue
			}
			return nil, fmt.Errorf("failed to look up author %d: %w", id, err)
		}
		authors[id] = &AuthorView{Name: user.Name, UserName: user.UserName}
	}
	return authors, nil
}
