package forum

import (
	"time"

	"github.com/example/forum28/domain/apperr"
	domain "github.com/example/forum28/domain/forum"
)

// AuthorView is the public part of a post or comment author.
type AuthorView struct {
	Name     string `json:"name"`
	UserName string `json:"userName"`
}

// PostView is a post as returned to clients.
type PostView struct {
	ID        uint        `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Category  string      `json:"category"`
	AuthorID  uint        `json:"authorId"`
	Author    *AuthorView `json:"author"`
	Tags      []string    `json:"tags"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func newPostView(p *domain.Post, author *AuthorView) PostView {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}
	return PostView{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Category:  p.Category,
		AuthorID:  p.AuthorID,
		Author:    author,
		Tags:      tags,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// CommentView is a comment as returned to clients.
type CommentView struct {
	ID        uint        `json:"id"`
	Content   string      `json:"content"`
	PostID    uint        `json:"postId"`
	AuthorID  uint        `json:"authorId"`
	Author    *AuthorView `json:"author"`
	CreatedAt time.Time   `json:"createdAt"`
}

func newCommentView(c *domain.Comment, author *AuthorView) CommentView {
	return CommentView{
		ID:        c.ID,
		Content:   c.Content,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Author:    author,
		CreatedAt: c.CreatedAt,
	}
}

// CreatePostRequest represents a create post request.
type CreatePostRequest struct {
	AuthorID uint     `json:"authorId"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// CreatePostResponse represents a create post response.
type CreatePostResponse struct {
	Post    *PostView     `json:"post,omitempty"`
	Failure *apperr.Error `json:"failure,omitempty"`
}

// ListPostsRequest represents a list posts request.
type ListPostsRequest struct{}

// ListPostsResponse represents a list posts response.
type ListPostsResponse struct {
	Posts   []PostView    `json:"posts"`
	Failure *apperr.Error `json:"failure,omitempty"`
}

// DeletePostRequest represents a delete post request.
type DeletePostRequest struct {
	UserID uint `json:"userId"`
	PostID uint `json:"postId"`
}

// DeletePostResponse represents a delete post response.
type DeletePostResponse struct {
	Failure *apperr.Error `json:"failure,omitempty"`
}

// CreateCommentRequest represents a create comment request.
type CreateCommentRequest struct {
	AuthorID uint   `json:"authorId"`
	PostID   uint   `json:"postId"`
	Content  string `json:"content"`
}

// CreateCommentResponse represents a create comment response.
type CreateCommentResponse struct {
	Comment *CommentView  `json:"comment,omitempty"`
	Failure *apperr.Error `json:"failure,omitempty"`
}

// ListCommentsRequest represents a list comments request.
type ListCommentsRequest struct {
	PostID uint `json:"postId"`
}

// ListCommentsResponse represents a list comments response.
type ListCommentsResponse struct {
	Comments []CommentView `json:"comments"`
	Failure  *apperr.Error `json:"failure,omitempty"`
}

// DeleteCommentRequest represents a delete comment request.
type DeleteCommentRequest struct {
	UserID    uint `json:"userId"`
	CommentID uint `json:"commentId"`
}

// DeleteCommentResponse represents a delete comment response.
type DeleteCommentResponse struct {
	Failure *apperr.Error `json:"failure,omitempty"`
}
