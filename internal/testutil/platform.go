package testutil

import (
	"context"

	"github.com/hupe1980/bleater/platform"
	"github.com/stretchr/testify/mock"
)

// MockPlatform is a testify mock of platform.Platform.
//
// Methods returning a pointer or slice accept either the value or nil in
// Return, e.g.
//
//	p.On("SubmitPost", mock.Anything, "u1", "hi").Return(&platform.Post{ID: "p1"}, nil)
type MockPlatform struct{ mock.Mock }

var _ platform.Platform = (*MockPlatform)(nil)

// NewMockPlatform creates a mock with no expectations.
func NewMockPlatform() *MockPlatform { return &MockPlatform{} }

// Ready implements platform.Platform.
func (m *MockPlatform) Ready(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// RegisterUser implements platform.Platform.
func (m *MockPlatform) RegisterUser(ctx context.Context, name string) (*platform.User, error) {
	args := m.Called(ctx, name)
	u, _ := args.Get(0).(*platform.User)
	return u, args.Error(1)
}

// RecentFeed implements platform.Platform.
func (m *MockPlatform) RecentFeed(ctx context.Context) ([]platform.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]platform.Post)
	return posts, args.Error(1)
}

// Notifications implements platform.Platform.
func (m *MockPlatform) Notifications(ctx context.Context, userID string) ([]platform.Notification, error) {
	args := m.Called(ctx, userID)
	n, _ := args.Get(0).([]platform.Notification)
	return n, args.Error(1)
}

// ViewThread implements platform.Platform.
func (m *MockPlatform) ViewThread(ctx context.Context, postID string) (*platform.Thread, error) {
	args := m.Called(ctx, postID)
	th, _ := args.Get(0).(*platform.Thread)
	return th, args.Error(1)
}

// SubmitPost implements platform.Platform.
func (m *MockPlatform) SubmitPost(ctx context.Context, userID, content string) (*platform.Post, error) {
	args := m.Called(ctx, userID, content)
	p, _ := args.Get(0).(*platform.Post)
	return p, args.Error(1)
}

// SubmitReply implements platform.Platform.
func (m *MockPlatform) SubmitReply(ctx context.Context, userID, content, parentID string) (*platform.Post, error) {
	args := m.Called(ctx, userID, content, parentID)
	p, _ := args.Get(0).(*platform.Post)
	return p, args.Error(1)
}

// QuietContext stubs the calls a session makes to gather context so tests can
// focus on the rounds: an empty feed and no notifications for userID.
func (m *MockPlatform) QuietContext(userID string) *MockPlatform {
	m.On("RecentFeed", mock.Anything).Return([]platform.Post{}, nil).Maybe()
	m.On("Notifications", mock.Anything, userID).Return([]platform.Notification{}, nil).Maybe()
	return m
}
