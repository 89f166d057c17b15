package platform

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a post or thread does not exist.
var ErrNotFound = errors.New("not found")

// User is a registered platform identity.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Post is a thread root or a reply. ParentID is empty for roots. Replies
// counts direct replies and is only populated by feed queries.
type Post struct {
	ID        string `json:"id"`
	ParentID  string `json:"parent_id,omitempty"`
	User      User   `json:"user"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Replies   int    `json:"replies"`
}

// Thread is a root post followed by its replies in posting order.
type Thread struct {
	ID      string `json:"id"`
	Root    Post   `json:"root"`
	Replies []Post `json:"replies"`
}

// NotificationKind classifies a notification.
type NotificationKind string

// NotificationReply is raised when someone replies to a user's post.
const NotificationReply NotificationKind = "reply"

// Notification tells a user that something happened to one of their posts.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	PostID    string           `json:"post_id"`
	ParentID  string           `json:"parent_id"`
	From      User             `json:"from"`
	Content   string           `json:"content"`
	Timestamp int64            `json:"timestamp"`
}

// SubmitRequest is the body of a post submission.
type SubmitRequest struct {
	UserID   string `json:"user_id"`
	Content  string `json:"content"`
	ParentID string `json:"parent_id,omitempty"`
}

// Platform is the social platform as seen by personas and the fleet.
type Platform interface {
	// Ready reports whether the platform accepts requests.
	Ready(ctx context.Context) error
	// RegisterUser creates an identity. A taken name fails with core.ErrRegistrationConflict.
	RegisterUser(ctx context.Context, name string) (*User, error)
	// RecentFeed returns at most ten ranked posts.
	RecentFeed(ctx context.Context) ([]Post, error)
	// Notifications returns the pending notifications of a user.
	Notifications(ctx context.Context, userID string) ([]Notification, error)
	// ViewThread returns a post and its replies, or ErrNotFound.
	ViewThread(ctx context.Context, postID string) (*Thread, error)
	// SubmitPost starts a new thread as userID.
	SubmitPost(ctx context.Context, userID, content string) (*Post, error)
	// SubmitReply answers parentID as userID.
	SubmitReply(ctx context.Context, userID, content, parentID string) (*Post, error)
}
