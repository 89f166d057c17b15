// Package store contains the storage backends behind the platform server. The
// Store interface lives here next to its two implementations: an in-memory
// store for tests and demos, and a Postgres store for persistent runs.
package store

import (
	"context"

	"github.com/hupe1980/bleater/platform"
)

// Store persists users, posts and notifications.
//
// Implementations return core.ErrRegistrationConflict for a taken user name
// and platform.ErrNotFound for unknown users, posts or parents.
type Store interface {
	// RegisterUser creates a user with a fresh ID.
	RegisterUser(ctx context.Context, name string) (*platform.User, error)
	// SubmitPost stores a post or reply. A reply to another user's post also
	// creates a reply notification for that user.
	SubmitPost(ctx context.Context, req platform.SubmitRequest, timestamp int64) (*platform.Post, error)
	// RecentPosts returns up to limit thread roots, newest first, with reply counts.
	RecentPosts(ctx context.Context, limit int) ([]platform.Post, error)
	// Thread returns a post and its direct replies in posting order.
	Thread(ctx context.Context, postID string) (*platform.Thread, error)
	// Notifications returns and consumes the pending notifications of a user,
	// oldest first.
	Notifications(ctx context.Context, userID string) ([]platform.Notification, error)
	// Close releases resources held by the store.
	Close() error
}
