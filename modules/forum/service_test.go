package forum

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/example/forum28/config"
	"github.com/example/forum28/database"
	"github.com/example/forum28/domain/apperr"
	domain "github.com/example/forum28/domain/forum"
	"github.com/example/forum28/modules/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubAuthors is an in-memory AuthorDirectory.
type stubAuthors struct {
	mu    sync.Mutex
	users map[uint]*auth.UserView
	calls int
}

func newStubAuthors() *stubAuthors {
	return &stubAuthors{users: map[uint]*auth.UserView{
		1: {ID: 1, Name: "Alice", UserName: "alice"},
		2: {ID: 2, Name: "Bob", UserName: "bob"},
	}}
}

func (s *stubAuthors) GetUser(_ context.Context, userID uint) (*auth.UserView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	u, ok := s.users[userID]
	if !ok {
		// Rebuilt failures compare equal to the sentinel.
		return nil, &apperr.Error{Kind: auth.ErrUserNotFound.Kind, Message: auth.ErrUserNotFound.Message}
	}
	return u, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, db.AutoMigrate(&domain.Tag{}, &domain.Post{}, &domain.Comment{}))
	return db
}

func newTestService(t *testing.T) (*ForumService, *stubAuthors, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	authors := newStubAuthors()
	s := NewForumService(NewPostRepository(db, time.Second), NewCommentRepository(db, time.Second), authors)
	return s, authors, db
}

func createPost(t *testing.T, s *ForumService, authorID uint, title string, tags ...string) *PostView {
	t.Helper()
	post, err := s.CreatePost(context.Background(), CreatePostRequest{
		AuthorID: authorID,
		Title:    title,
		Content:  "content of " + title,
		Category: "general",
		Tags:     tags,
	})
	require.NoError(t, err)
	return post
}

func TestForumService_CreatePost(t *testing.T) {
	s, _, db := newTestService(t)

	post := createPost(t, s, 1, "Hello", "Go", "go", "  Web Dev ")
	assert.NotZero(t, post.ID)
	assert.Equal(t, uint(1), post.AuthorID)
	require.NotNil(t, post.Author)
	assert.Equal(t, "alice", post.Author.UserName)
	assert.ElementsMatch(t, []string{"go", "web dev"}, post.Tags)

	// A second post reuses the existing tag rows.
	createPost(t, s, 2, "Again", "GO")
	var tagCount int64
	require.NoError(t, db.Model(&domain.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(2), tagCount)
}

func TestForumService_CreatePostValidation(t *testing.T) {
	s, _, _ := newTestService(t)

	tests := []struct {
		name string
		req  CreatePostRequest
		want error
	}{
		{name: "missing title", req: CreatePostRequest{AuthorID: 1, Content: "c", Category: "x"}, want: ErrPostFieldsRequired},
		{name: "blank content", req: CreatePostRequest{AuthorID: 1, Title: "t", Content: "   ", Category: "x"}, want: ErrPostFieldsRequired},
		{name: "missing category", req: CreatePostRequest{AuthorID: 1, Title: "t", Content: "c"}, want: ErrPostFieldsRequired},
		{
			name: "too many tags",
			req: CreatePostRequest{AuthorID: 1, Title: "t", Content: "c", Category: "x",
				Tags: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}},
			want: ErrTooManyTags,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreatePost(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestForumService_ListPosts(t *testing.T) {
	s, authors, _ := newTestService(t)

	first := createPost(t, s, 1, "First")
	second := createPost(t, s, 1, "Second", "news")
	third := createPost(t, s, 2, "Third")
	orphan := createPost(t, s, 1, "Orphan")
	delete(authors.users, 1)
	authors.users[3] = &auth.UserView{ID: 3, Name: "Carol", UserName: "carol"}

	authors.calls = 0
	posts, err := s.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 4)

	// Newest first.
	assert.Equal(t, []uint{orphan.ID, third.ID, second.ID, first.ID},
		[]uint{posts[0].ID, posts[1].ID, posts[2].ID, posts[3].ID})
	assert.Equal(t, []string{"news"}, posts[2].Tags)
	assert.Nil(t, posts[0].Author)
	require.NotNil(t, posts[1].Author)
	assert.Equal(t, "Bob", posts[1].Author.Name)

	// One lookup per distinct author.
	assert.Equal(t, 2, authors.calls)
}

func TestForumService_DeletePost(t *testing.T) {
	ctx := context.Background()
	s, _, db := newTestService(t)

	post := createPost(t, s, 1, "Mine", "go")
	_, err := s.CreateComment(ctx, CreateCommentRequest{AuthorID: 2, PostID: post.ID, Content: "nice"})
	require.NoError(t, err)

	err = s.DeletePost(ctx, DeletePostRequest{UserID: 2, PostID: post.ID})
	assert.ErrorIs(t, err, ErrPostForbidden)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	require.NoError(t, s.DeletePost(ctx, DeletePostRequest{UserID: 1, PostID: post.ID}))

	err = s.DeletePost(ctx, DeletePostRequest{UserID: 1, PostID: post.ID})
	assert.ErrorIs(t, err, ErrPostNotFound)

	var comments, links, tags int64
	require.NoError(t, db.Model(&domain.Comment{}).Count(&comments).Error)
	require.NoError(t, db.Table("post_tags").Count(&links).Error)
	require.NoError(t, db.Model(&domain.Tag{}).Count(&tags).Error)
	assert.Zero(t, comments)
	assert.Zero(t, links)
	assert.Equal(t, int64(1), tags)
}

func TestForumService_Comments(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)
	post := createPost(t, s, 1, "Thread")

	_, err := s.CreateComment(ctx, CreateCommentRequest{AuthorID: 2, PostID: post.ID, Content: "  "})
	assert.ErrorIs(t, err, ErrCommentContentRequired)

	_, err = s.CreateComment(ctx, CreateCommentRequest{AuthorID: 2, PostID: 999, Content: "hi"})
	assert.ErrorIs(t, err, ErrPostNotFound)

	c1, err := s.CreateComment(ctx, CreateCommentRequest{AuthorID: 2, PostID: post.ID, Content: "first"})
	require.NoError(t, err)
	require.NotNil(t, c1.Author)
	assert.Equal(t, "bob", c1.Author.UserName)

	c2, err := s.CreateComment(ctx, CreateCommentRequest{AuthorID: 1, PostID: post.ID, Content: "second"})
	require.NoError(t, err)

	comments, err := s.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, c1.ID, comments[0].ID)
	assert.Equal(t, c2.ID, comments[1].ID)

	_, err = s.ListComments(ctx, 999)
	assert.ErrorIs(t, err, ErrPostNotFound)

	err = s.DeleteComment(ctx, DeleteCommentRequest{UserID: 1, CommentID: c1.ID})
	assert.ErrorIs(t, err, ErrCommentForbidden)

	require.NoError(t, s.DeleteComment(ctx, DeleteCommentRequest{UserID: 2, CommentID: c1.ID}))

	err = s.DeleteComment(ctx, DeleteCommentRequest{UserID: 2, CommentID: c1.ID})
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestPostRepository_ConcurrentTagCreation(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestDB(t), time.Second)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, &domain.Post{Title: "t", Content: "c", Category: "x", AuthorID: 1}, []string{"shared"})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	var tags []domain.Tag
	require.NoError(t, repo.db.Find(&tags).Error)
	require.Len(t, tags, 1)
	assert.Equal(t, "shared", tags[0].Name)
}

func TestPostRepository_TagLookupSurvivesCancelledLeader(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db, 5*time.Second)

	// Hold the only connection so the shared lookup blocks.
	tx := db.Begin()
	require.NoError(t, tx.Error)

	type result struct {
		tags []domain.Tag
		err  error
	}
	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leader := make(chan result, 1)
	go func() {
		tags, err := repo.resolveTags(leaderCtx, []string{"shared"})
		leader <- result{tags, err}
	}()
	time.Sleep(50 * time.Millisecond)

	waiter := make(chan result, 1)
	go func() {
		tags, err := repo.resolveTags(context.Background(), []string{"shared"})
		waiter <- result{tags, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	select {
	case res := <-leader:
		assert.ErrorIs(t, res.err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	require.NoError(t, tx.Commit().Error)

	select {
	case res := <-waiter:
		require.NoError(t, res.err)
		require.Len(t, res.tags, 1)
		assert.Equal(t, "shared", res.tags[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("waiting caller did not return")
	}
}
