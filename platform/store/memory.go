package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/platform"
	"github.com/samber/lo"
)

// MemoryStore is a process-local Store guarded by an RWMutex. Posts are kept
// in insertion order, which is also timestamp order for a single server.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]platform.User // id -> user
	names         map[string]string        // name -> id
	posts         []platform.Post
	index         map[string]int      // post id -> position in posts
	replies       map[string][]string // parent id -> reply ids
	notifications map[string][]platform.Notification
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]platform.User),
		names:         make(map[string]string),
		index:         make(map[string]int),
		replies:       make(map[string][]string),
		notifications: make(map[string][]platform.Notification),
	}
}

// RegisterUser implements Store.
func (m *MemoryStore) RegisterUser(_ context.Context, name string) (*platform.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.names[name]; taken {
		return nil, fmt.Errorf("user %q: %w", name, core.ErrRegistrationConflict)
	}

	user := platform.User{ID: uuid.NewString(), Name: name}
	m.users[user.ID] = user
	m.names[name] = user.ID

	return &user, nil
}

// SubmitPost implements Store.
func (m *MemoryStore) SubmitPost(_ context.Context, req platform.SubmitRequest, timestamp int64) (*platform.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	author, ok := m.users[req.UserID]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", req.UserID, platform.ErrNotFound)
	}

	var parent *platform.Post
	if req.ParentID != "" {
		pos, ok := m.index[req.ParentID]
		if !ok {
			return nil, fmt.Errorf("parent post %q: %w", req.ParentID, platform.ErrNotFound)
		}
		p := m.posts[pos]
		parent = &p
	}

	post := platform.Post{
		ID:        uuid.NewString(),
		ParentID:  req.ParentID,
		User:      author,
		Content:   req.Content,
		Timestamp: timestamp,
	}
	m.index[post.ID] = len(m.posts)
	m.posts = append(m.posts, post)

	if parent != nil {
		m.replies[parent.ID] = append(m.replies[parent.ID], post.ID)
		if parent.User.ID != author.ID {
			m.notifications[parent.User.ID] = append(m.notifications[parent.User.ID], platform.Notification{
				ID:        uuid.NewString(),
				Kind:      platform.NotificationReply,
				PostID:    post.ID,
				ParentID:  parent.ID,
				From:      author,
				Content:   post.Content,
				Timestamp: timestamp,
			})
		}
	}

	return &post, nil
}

// RecentPosts implements Store.
func (m *MemoryStore) RecentPosts(_ context.Context, limit int) ([]platform.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]platform.Post, 0, min(limit, len(m.posts)))
	for i := len(m.posts) - 1; i >= 0 && len(out) < limit; i-- {
		post := m.posts[i]
		if post.ParentID != "" {
			continue
		}
		post.Replies = len(m.replies[post.ID])
		out = append(out, post)
	}

	return out, nil
}

// Thread implements Store.
func (m *MemoryStore) Thread(_ context.Context, postID string) (*platform.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.index[postID]
	if !ok {
		return nil, fmt.Errorf("post %q: %w", postID, platform.ErrNotFound)
	}

	root := m.posts[pos]
	root.Replies = len(m.replies[postID])

	return &platform.Thread{
		ID:   postID,
		Root: root,
		Replies: lo.Map(m.replies[postID], func(id string, _ int) platform.Post {
			reply := m.posts[m.index[id]]
			reply.Replies = len(m.replies[id])
			return reply
		}),
	}, nil
}

// Notifications implements Store.
func (m *MemoryStore) Notifications(_ context.Context, userID string) ([]platform.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return nil, fmt.Errorf("user %q: %w", userID, platform.ErrNotFound)
	}

	pending := m.notifications[userID]
	delete(m.notifications, userID)
	if pending == nil {
		pending = []platform.Notification{}
	}

	return pending, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
