package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/internal/db"
	"blog/internal/models"
	"blog/internal/store"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	dbc, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbc.Close() })
	require.NoError(t, db.Migrate(context.Background(), dbc))
	return store.New(dbc)
}

func mustUser(t *testing.T, s *store.Store, name string) int64 {
	t.Helper()
	id, err := s.CreateUser(context.Background(), name, "hash")
	require.NoError(t, err)
	return id
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	id := mustUser(t, s, "alice")

	t.Run("duplicate username", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "alice", "other")
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("lookup", func(t *testing.T) {
		u, err := s.UserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.Equal(t, "", u.Bio)
		assert.False(t, u.Title.Valid)

		_, err = s.UserByUsername(ctx, "bob")
		assert.ErrorIs(t, err, store.ErrNotFound)

		taken, err := s.UsernameTaken(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, taken)
	})

	t.Run("update profile", func(t *testing.T) {
		err := s.UpdateProfile(ctx, id, sql.NullString{String: "Engineer", Valid: true}, "hello")
		require.NoError(t, err)
		u, err := s.UserByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Engineer", u.DisplayTitle())
		assert.Equal(t, "hello", u.Bio)

		assert.ErrorIs(t, s.UpdateProfile(ctx, 9999, sql.NullString{}, ""), store.ErrNotFound)
	})
}

func TestRecentPostsLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	uid := mustUser(t, s, "alice")

	var ids []int64
	for i := 0; i < 13; i++ {
		id, err := s.CreatePost(ctx, store.NewPost{UserID: uid, Title: "post", CategoryID: 1})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	posts, err := s.RecentPosts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, posts, 10)
	for i, p := range posts {
		assert.Equal(t, ids[len(ids)-1-i], p.ID)
		assert.Equal(t, "alice", p.Author)
		assert.Equal(t, "General", p.Category)
		if i > 0 {
			prev := posts[i-1]
			assert.False(t, p.CreatedAt.After(prev.CreatedAt))
		}
	}
}

func TestCreatePostTags(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	uid := mustUser(t, s, "alice")

	// tags 3 (databases) then 1 (go)
	id, err := s.CreatePost(ctx, store.NewPost{UserID: uid, Title: "tagged", CategoryID: 2, TagIDs: []int64{3, 1}})
	require.NoError(t, err)

	tagIDs, err := s.PostTagIDs(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, tagIDs)

	d, err := s.PostDetail(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"databases", "go"}, d.TagNames())
	assert.Equal(t, "News", d.Category)
	assert.False(t, d.Image.Valid)
}

func TestCreatePostUnknownReferences(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	uid := mustUser(t, s, "alice")

	_, err := s.CreatePost(ctx, store.NewPost{UserID: uid, Title: "x", CategoryID: 404})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.CreatePost(ctx, store.NewPost{UserID: uid, Title: "x", CategoryID: 1, TagIDs: []int64{1, 404}})
	assert.ErrorIs(t, err, store.ErrNotFound)

	posts, err := s.RecentPosts(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostsByUser(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	_, err := s.CreatePost(ctx, store.NewPost{UserID: alice, Title: "a1", CategoryID: 1, TagIDs: []int64{2}})
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, store.NewPost{UserID: bob, Title: "b1", CategoryID: 1})
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, store.NewPost{UserID: alice, Title: "a2", CategoryID: 3})
	require.NoError(t, err)

	posts, err := s.PostsByUser(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "a2", posts[0].Title)
	assert.Equal(t, "a1", posts[1].Title)
	assert.Equal(t, []string{"web"}, posts[1].TagNames())
	assert.Empty(t, posts[0].Tags)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	uid := mustUser(t, s, "alice")
	pid, err := s.CreatePost(ctx, store.NewPost{UserID: uid, Title: "p", CategoryID: 1})
	require.NoError(t, err)

	_, err = s.CreateComment(ctx, pid, uid, "first")
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, pid, uid, "second")
	require.NoError(t, err)

	comments, err := s.CommentsForPost(ctx, pid)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Body)
	assert.Equal(t, "first", comments[1].Body)
	assert.Equal(t, "alice", comments[0].Author)

	_, err = s.CreateComment(ctx, 9999, uid, "orphan")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func TestVotesAreMutuallyExclusive(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	pid, err := s.CreatePost(ctx, store.NewPost{UserID: alice, Title: "p", CategoryID: 1})
	require.NoError(t, err)

	require.NoError(t, s.SetVote(ctx, pid, alice, models.Upvote))
	require.NoError(t, s.SetVote(ctx, pid, bob, models.Upvote))
	up, down, err := s.VoteCounts(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 2, up)
	assert.Equal(t, 0, down)

	require.NoError(t, s.SetVote(ctx, pid, bob, models.Downvote))
	up, down, err = s.VoteCounts(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 1, up)
	assert.Equal(t, 1, down)

	d, err := s.PostDetail(ctx, pid, bob)
	require.NoError(t, err)
	assert.Equal(t, models.Downvote, d.MyVote)

	require.NoError(t, s.SetVote(ctx, pid, bob, models.NoVote))
	up, down, err = s.VoteCounts(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 1, up)
	assert.Equal(t, 0, down)

	assert.ErrorIs(t, s.SetVote(ctx, 9999, bob, models.Upvote), store.ErrNotFound)
	assert.Error(t, s.SetVote(ctx, pid, bob, 7))
}
