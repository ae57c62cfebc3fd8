package api

import (
	"time"

	"github.com/example/forum28/domain/apperr"
	"github.com/example/forum28/modules/auth"
	"github.com/example/forum28/modules/forum"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// isoMillis matches the UTC millisecond timestamps clients expect.
const isoMillis = "2006-01-02T15:04:05.000Z"

const (
	msgLoginSuccess  = "Login successful."
	msgLogoutSuccess = "Logged out successfully."
	msgRefreshed     = "Tokens refreshed."
	msgHomepage      = "Welcome! You are on the homepage."
	msgPostCreated   = "Post created successfully."
	msgPostDeleted   = "Post deleted successfully."
	msgCommentAdded  = "Comment created successfully."
	msgCommentGone   = "Comment deleted successfully."
)

var (
	// An unknown username on login is a credential failure, not a missing
	// resource.
	loginOverrides = statusOverrides{apperr.KindNotFound: fiber.StatusUnauthorized}
	// Revoking a token that is not on record is a bad request.
	logoutOverrides = statusOverrides{apperr.KindNotFound: fiber.StatusBadRequest}
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth   auth.AuthPort
	forum  forum.ForumPort
	logger *logrus.Entry
	now    func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, forumPort forum.ForumPort, logger *logrus.Entry) *Handlers {
	return &Handlers{
		auth:   authPort,
		forum:  forumPort,
		logger: logger,
		now:    time.Now,
	}
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	return writeError(c, h.logger, err, nil)
}

// Register handles POST /users.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, errInvalidBody)
	}

	user, err := h.auth.Register(c.UserContext(), auth.RegisterRequest{
		Email:    req.Email,
		Name:     req.Name,
		UserName: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, errInvalidBody)
	}

	resp, err := h.auth.Login(c.UserContext(), auth.LoginRequest{
		UserName: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, h.logger, err, loginOverrides)
	}

	return c.JSON(LoginResponse{
		Message:      msgLoginSuccess,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	})
}

// Logout handles POST /logout. The access token authenticates the caller;
// the refresh token in the body is the one revoked.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, auth.ErrRefreshTokenRequired)
	}

	identity, ok := identityFrom(c)
	if !ok {
		return h.fail(c, errNoIdentity)
	}

	if err := h.auth.Logout(c.UserContext(), identity.ID, req.RefreshToken); err != nil {
		return writeError(c, h.logger, err, logoutOverrides)
	}

	return c.JSON(MessageResponse{Message: msgLogoutSuccess})
}

// Refresh handles POST /refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, auth.ErrRefreshTokenRequired)
	}

	resp, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(RefreshResponse{
		Message:      msgRefreshed,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
}

// Homepage handles GET /homepage.
func (h *Handlers) Homepage(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return h.fail(c, errNoIdentity)
	}

	return c.JSON(HomepageResponse{
		Message:   msgHomepage,
		UserID:    identity.ID,
		Timestamp: h.now().UTC().Format(isoMillis),
	})
}

// CreatePost handles POST /posts.
func (h *Handlers) CreatePost(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return h.fail(c, errNoIdentity)
	}

	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, errInvalidBody)
	}

	post, err := h.forum.CreatePost(c.UserContext(), forum.CreatePostRequest{
		AuthorID: identity.ID,
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(PostCreatedResponse{
		Message: msgPostCreated,
		Post:    post,
	})
}

// ListPosts handles GET /posts.
func (h *Handlers) ListPosts(c *fiber.Ctx) error {
	posts, err := h.forum.ListPosts(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	if posts == nil {
		posts = []forum.PostView{}
	}
	return c.JSON(posts)
}

// DeletePost handles DELETE /posts/:id.
func (h *Handlers) DeletePost(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return h.fail(c, errNoIdentity)
	}

	postID, ok := positiveParam(c, "id")
	if !ok {
		return h.fail(c, errInvalidPostID)
	}

	if err := h.forum.DeletePost(c.UserContext(), forum.DeletePostRequest{
		UserID: identity.ID,
		PostID: postID,
	}); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(MessageResponse{Message: msgPostDeleted})
}

// CreateComment handles POST /posts/:postId/comments.
func (h *Handlers) CreateComment(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return h.fail(c, errNoIdentity)
	}

	postID, ok := positiveParam(c, "postId")
	if !ok {
		return h.fail(c, errInvalidPostID)
	}

	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, errInvalidBody)
	}

	comment, err := h.forum.CreateComment(c.UserContext(), forum.CreateCommentRequest{
		AuthorID: identity.ID,
		PostID:   postID,
		Content:  req.Content,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CommentCreatedResponse{
		Message: msgCommentAdded,
		Comment: comment,
	})
}

// ListComments handles GET /posts/:postId/comments.
func (h *Handlers) ListComments(c *fiber.Ctx) error {
	postID, ok := positiveParam(c, "postId")
	if !ok {
		return h.fail(c, errInvalidPostID)
	}

	comments, err := h.forum.ListComments(c.UserContext(), postID)
	if err != nil {
		return h.fail(c, err)
	}
	if comments == nil {
		comments = []forum.CommentView{}
	}
	return c.JSON(comments)
}

// DeleteComment handles DELETE /comments/:commentId.
func (h *Handlers) DeleteComment(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return h.fail(c, errNoIdentity)
	}

	commentID, ok := positiveParam(c, "commentId")
	if !ok {
		return h.fail(c, errInvalidCommentID)
	}

	if err := h.forum.DeleteComment(c.UserContext(), forum.DeleteCommentRequest{
		UserID:    identity.ID,
		CommentID: commentID,
	}); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(MessageResponse{Message: msgCommentGone})
}

// positiveParam parses a route parameter as a positive integer id.
func positiveParam(c *fiber.Ctx, name string) (uint, bool) {
	n, err := c.ParamsInt(name)
	if err != nil || n <= 0 {
		return 0, false
	}
	return uint(n), true
}
