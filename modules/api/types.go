package api

import (
	"github.com/example/forum28/modules/auth"
	"github.com/example/forum28/modules/forum"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// MessageResponse is a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest is the body of POST /users.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Message      string         `json:"message"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         *auth.UserView `json:"user"`
}

// RefreshTokenRequest is the body of POST /logout and POST /refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse is returned by a successful token rotation.
type RefreshResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// HomepageResponse greets an authenticated caller.
type HomepageResponse struct {
	Message   string `json:"message"`
	UserID    uint   `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// CreatePostRequest is the body of POST /posts.
type CreatePostRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// PostCreatedResponse is returned after a post is created.
type PostCreatedResponse struct {
	Message string          `json:"message"`
	Post    *forum.PostView `json:"post"`
}

// CreateCommentRequest is the body of POST /posts/:postId/comments.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CommentCreatedResponse is returned after a comment is created.
type CommentCreatedResponse struct {
	Message string             `json:"message"`
	Comment *forum.CommentView `json:"comment"`
}
