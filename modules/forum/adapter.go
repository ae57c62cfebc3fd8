package forum

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ForumPort defines the post and comment operations other modules use.
type ForumPort interface {
	CreatePost(ctx context.Context, req CreatePostRequest) (*PostView, error)
	ListPosts(ctx context.Context) ([]PostView, error)
	DeletePost(ctx context.Context, req DeletePostRequest) error
	CreateComment(ctx context.Context, req CreateCommentRequest) (*CommentView, error)
	ListComments(ctx context.Context, postID uint) ([]CommentView, error)
	DeleteComment(ctx context.Context, req DeleteCommentRequest) error
}

var _ ForumPort = (*ForumService)(nil)

// ForumAdapter implements ForumPort using the service container.
type ForumAdapter struct {
	container mono.ServiceContainer
}

var _ ForumPort = (*ForumAdapter)(nil)

// NewForumAdapter creates a new ForumAdapter.
func NewForumAdapter(container mono.ServiceContainer) *ForumAdapter {
	return &ForumAdapter{container: container}
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(ctx, container, service, json.Marshal, json.Unmarshal, req, resp); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

func (a *ForumAdapter) CreatePost(ctx context.Context, req CreatePostRequest) (*PostView, error) {
	var resp CreatePostResponse
	if err := call(ctx, a.container, ServiceCreatePost, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Failure != nil {
		return nil, resp.Failure
	}
	return resp.Post, nil
}

func (a *ForumAdapter) ListPosts(ctx context.Context) ([]PostView, error) {
	var resp ListPostsResponse
	if err := call(ctx, a.container, ServiceListPosts, &ListPostsRequest{}, &resp); err != nil {
		return nil, err
	}
	if resp.Failure != nil {
		return nil, resp.Failure
	}
	return resp.Posts, nil
}

func (a *ForumAdapter) DeletePost(ctx context.Context, req DeletePostRequest) error {
	var resp DeletePostResponse
	if err := call(ctx, a.container, ServiceDeletePost, &req, &resp); err != nil {
		return err
	}
	if resp.Failure != nil {
		return resp.Failure
	}
	return nil
}

func (a *ForumAdapter) CreateComment(ctx context.Context, req CreateCommentRequest) (*CommentView, error) {
	var resp CreateCommentResponse
	if err := call(ctx, a.container, ServiceCreateComment, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Failure != nil {
		return nil, resp.Failure
	}
	return resp.Comment, nil
}

func (a *ForumAdapter) ListComments(ctx context.Context, postID uint) ([]CommentView, error) {
	var resp ListCommentsResponse
	if err := call(ctx, a.container, ServiceListComments, &ListCommentsRequest{PostID: postID}, &resp); err != nil {
		return nil, err
	}
	if resp.Failure != nil {
		return nil, resp.Failure
	}
	return resp.Comments, nil
}

func (a *ForumAdapter) DeleteComment(ctx context.Context, req DeleteCommentRequest) error {
	var resp DeleteCommentResponse
	if err := call(ctx, a.container, ServiceDeleteComment, &req, &resp); err != nil {
		return err
	}
	if resp.Failure != nil {
		return resp.Failure
	}
	return nil
}
