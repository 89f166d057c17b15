package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("BLEATER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BLEATER_TEST_DATABASE_URL not set")
	}

	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewPostgresStore(context.Background(), dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

// runStoreSuite checks the behaviour every Store must share. Names carry a
// random suffix so the suite can run against a persistent database.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	suffix := "-" + uuid.NewString()[:8]

	t.Run("register conflict", func(t *testing.T) {
		s := newStore(t)
		u, err := s.RegisterUser(ctx, "alice"+suffix)
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)

		_, err = s.RegisterUser(ctx, "alice"+suffix)
		assert.ErrorIs(t, err, core.ErrRegistrationConflict)
	})

	t.Run("thread and notifications", func(t *testing.T) {
		s := newStore(t)
		alice, err := s.RegisterUser(ctx, "alice2"+suffix)
		require.NoError(t, err)
		bob, err := s.RegisterUser(ctx, "bob"+suffix)
		require.NoError(t, err)

		root, err := s.SubmitPost(ctx, platform.SubmitRequest{UserID: alice.ID, Content: "hello"}, 100)
		require.NoError(t, err)
		_, err = s.SubmitPost(ctx, platform.SubmitRequest{UserID: bob.ID, Content: "hi alice", ParentID: root.ID}, 101)
		require.NoError(t, err)
		_, err = s.SubmitPost(ctx, platform.SubmitRequest{UserID: alice.ID, Content: "hi bob", ParentID: root.ID}, 102)
		require.NoError(t, err)

		thread, err := s.Thread(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, "hello", thread.Root.Content)
		assert.Equal(t, 2, thread.Root.Replies)
		require.Len(t, thread.Replies, 2)
		assert.Equal(t, "hi alice", thread.Replies[0].Content)
		assert.Equal(t, "hi bob", thread.Replies[1].Content)

		// Only bob's reply notifies alice; her own reply does not.
		notes, err := s.Notifications(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, platform.NotificationReply, notes[0].Kind)
		assert.Equal(t, bob.ID, notes[0].From.ID)
		assert.Equal(t, root.ID, notes[0].ParentID)
		assert.Equal(t, "hi alice", notes[0].Content)

		notes, err = s.Notifications(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, notes)

		notes, err = s.Notifications(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Thread(ctx, uuid.NewString())
		assert.ErrorIs(t, err, platform.ErrNotFound)

		_, err = s.SubmitPost(ctx, platform.SubmitRequest{UserID: uuid.NewString(), Content: "x"}, 1)
		assert.ErrorIs(t, err, platform.ErrNotFound)

		u, err := s.RegisterUser(ctx, "carol"+suffix)
		require.NoError(t, err)
		_, err = s.SubmitPost(ctx, platform.SubmitRequest{UserID: u.ID, Content: "x", ParentID: uuid.NewString()}, 1)
		assert.ErrorIs(t, err, platform.ErrNotFound)

		_, err = s.Notifications(ctx, uuid.NewString())
		assert.ErrorIs(t, err, platform.ErrNotFound)
	})

	t.Run("recent posts are roots newest first", func(t *testing.T) {
		s := newStore(t)
		u, err := s.RegisterUser(ctx, "dave"+suffix)
		require.NoError(t, err)

		first, err := s.SubmitPost(ctx, platform.SubmitRequest{UserID: u.ID, Content: "first"}, 10)
		require.NoError(t, err)
		_, err = s.SubmitPost(ctx, platform.SubmitRequest{UserID: u.ID, Content: "reply", ParentID: first.ID}, 11)
		require.NoError(t, err)
		_, err = s.SubmitPost(ctx, platform.SubmitRequest{UserID: u.ID, Content: "second"}, 12)
		require.NoError(t, err)

		posts, err := s.RecentPosts(ctx, 2)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "second", posts[0].Content)
		assert.Equal(t, "first", posts[1].Content)
		assert.Equal(t, 1, posts[1].Replies)
	})
}
