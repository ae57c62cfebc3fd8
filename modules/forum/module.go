package forum

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/forum28/config"
	"github.com/example/forum28/database"
	"github.com/example/forum28/domain/apperr"
	domain "github.com/example/forum28/domain/forum"
	"github.com/example/forum28/logging"
	"github.com/example/forum28/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Request-reply service names exposed by the forum module.
const (
	ServiceCreatePost    = "create-post"
	ServiceListPosts     = "list-posts"
	ServiceDeletePost    = "delete-post"
	ServiceCreateComment = "create-comment"
	ServiceListComments  = "list-comments"
	ServiceDeleteComment = "delete-comment"
)

// ForumModule provides post, comment and tag services.
type ForumModule struct {
	cfg     *config.Config
	logger  *logrus.Entry
	db      *gorm.DB
	authors AuthorDirectory
	service *ForumService
}

var _ mono.Module = (*ForumModule)(nil)
var _ mono.ServiceProviderModule = (*ForumModule)(nil)
var _ mono.DependentModule = (*ForumModule)(nil)
var _ mono.HealthCheckableModule = (*ForumModule)(nil)

// NewModule creates a new ForumModule.
func NewModule(cfg *config.Config, logger *logrus.Logger) *ForumModule {
	return &ForumModule{
		cfg:    cfg,
		logger: logging.ForModule(logger, "forum"),
	}
}

func (m *ForumModule) Name() string {
	return "forum"
}

func (m *ForumModule) Dependencies() []string {
	return []string{"auth"}
}

func (m *ForumModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.authors = auth.NewAuthAdapter(container)
	}
}

func (m *ForumModule) Start(_ context.Context) error {
	if m.authors == nil {
		return fmt.Errorf("auth dependency not set")
	}

	db, err := database.Open(m.cfg.Database)
	if err != nil {
		return err
	}
	m.db = db

	if err := db.AutoMigrate(&domain.Tag{}, &domain.Post{}, &domain.Comment{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	timeout := m.cfg.Database.StoreTimeout
	m.service = NewForumService(
		NewPostRepository(db, timeout),
		NewCommentRepository(db, timeout),
		m.authors,
	)

	m.logger.Info("module started (depends on: auth)")
	return nil
}

func (m *ForumModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		m.logger.WithError(err).Warn("failed to close database")
	}
	m.logger.Info("module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *ForumModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

func (m *ForumModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreatePost, json.Unmarshal, json.Marshal, m.createPost,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreatePost, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListPosts, json.Unmarshal, json.Marshal, m.listPosts,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListPosts, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDeletePost, json.Unmarshal, json.Marshal, m.deletePost,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDeletePost, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateComment, json.Unmarshal, json.Marshal, m.createComment,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateComment, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListComments, json.Unmarshal, json.Marshal, m.listComments,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListComments, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDeleteComment, json.Unmarshal, json.Marshal, m.deleteComment,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDeleteComment, err)
	}

	m.logger.Info("registered services: create-post, list-posts, delete-post, create-comment, list-comments, delete-comment")
	return nil
}

func (m *ForumModule) createPost(ctx context.Context, req CreatePostRequest, _ *mono.Msg) (CreatePostResponse, error) {
	post, err := m.service.CreatePost(ctx, req)
	if err != nil {
		return CreatePostResponse{Failure: m.failure(ServiceCreatePost, err)}, nil
	}
	return CreatePostResponse{Post: post}, nil
}

func (m *ForumModule) listPosts(ctx context.Context, _ ListPostsRequest, _ *mono.Msg) (ListPostsResponse, error) {
	posts, err := m.service.ListPosts(ctx)
	if err != nil {
		return ListPostsResponse{Failure: m.failure(ServiceListPosts, err)}, nil
	}
	return ListPostsResponse{Posts: posts}, nil
}

func (m *ForumModule) deletePost(ctx context.Context, req DeletePostRequest, _ *mono.Msg) (DeletePostResponse, error) {
	if err := m.service.DeletePost(ctx, req); err != nil {
		return DeletePostResponse{Failure: m.failure(ServiceDeletePost, err)}, nil
	}
	return DeletePostResponse{}, nil
}

func (m *ForumModule) createComment(ctx context.Context, req CreateCommentRequest, _ *mono.Msg) (CreateCommentResponse, error) {
	comment, err := m.service.CreateComment(ctx, req)
	if err != nil {
		return CreateCommentResponse{Failure: m.failure(ServiceCreateComment, err)}, nil
	}
	return CreateCommentResponse{Comment: comment}, nil
}

func (m *ForumModule) listComments(ctx context.Context, req ListCommentsRequest, _ *mono.Msg) (ListCommentsResponse, error) {
	comments, err := m.service.ListComments(ctx, req.PostID)
	if err != nil {
		return ListCommentsResponse{Failure: m.failure(ServiceListComments, err)}, nil
	}
	return ListCommentsResponse{Comments: comments}, nil
}

func (m *ForumModule) deleteComment(ctx context.Context, req DeleteCommentRequest, _ *mono.Msg) (DeleteCommentResponse, error) {
	if err := m.service.DeleteComment(ctx, req); err != nil {
		return DeleteCommentResponse{Failure: m.failure(ServiceDeleteComment, err)}, nil
	}
	return DeleteCommentResponse{}, nil
}

// failure logs uncategorized errors and hides them behind ErrInternal.
func (m *ForumModule) failure(service string, err error) *apperr.Error {
	f, ok := apperr.AsFailure(err)
	if !ok {
		m.logger.WithError(err).WithField("service", service).Error("request failed")
		return apperr.ErrInternal
	}
	return f
}
