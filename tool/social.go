package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/platform"
)

// NotFoundResult is the tool result for a thread that does not exist.
const NotFoundResult = "not found"

// SubmitPostArgs are the arguments of the submit_post tool.
type SubmitPostArgs struct {
	Content string `json:"content" jsonschema:"description=Text of the new post"`
}

// SubmitReplyArgs are the arguments of the submit_reply tool.
type SubmitReplyArgs struct {
	OriginalPostID string `json:"original_post_id" jsonschema:"description=ID of the post being answered"`
	Content        string `json:"content" jsonschema:"description=Text of the reply"`
}

// ViewThreadArgs are the arguments of the view_thread tool.
type ViewThreadArgs struct {
	OriginalPostID string `json:"original_post_id" jsonschema:"description=ID of the thread root post"`
}

// NoArgs is the argument set of tools that take none.
type NoArgs struct{}

// NewSubmitPostTool returns a tool that posts as userID.
func NewSubmitPostTool(p platform.Platform, userID string) Tool {
	return NewTypedTool(string(core.ActionSubmitPost), "Submit a new original post to start a thread",
		func(ctx context.Context, args SubmitPostArgs) (any, error) {
			post, err := p.SubmitPost(ctx, userID, args.Content)
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("Post created with id %s", post.ID), nil
		})
}

// NewSubmitReplyTool returns a tool that replies as userID.
func NewSubmitReplyTool(p platform.Platform, userID string) Tool {
	return NewTypedTool(string(core.ActionSubmitReply), "Submit a reply to an existing post",
		func(ctx context.Context, args SubmitReplyArgs) (any, error) {
			post, err := p.SubmitReply(ctx, userID, args.Content, args.OriginalPostID)
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("Reply created with id %s", post.ID), nil
		})
}

// NewViewThreadTool returns a tool that reads a post and its replies.
func NewViewThreadTool(p platform.Platform) Tool {
	return NewTypedTool(string(core.ActionViewThread), "Read a post together with all of its replies",
		func(ctx context.Context, args ViewThreadArgs) (any, error) {
			thread, err := p.ViewThread(ctx, args.OriginalPostID)
			if errors.Is(err, platform.ErrNotFound) {
				return NotFoundResult, nil
			}
			if err != nil {
				return nil, err
			}
			return thread, nil
		})
}

// NewReadNotificationsTool returns a tool that fetches userID's pending notifications.
func NewReadNotificationsTool(p platform.Platform, userID string) Tool {
	return NewTypedTool("read_notifications", "Read your pending notifications, such as replies to your posts",
		func(ctx context.Context, _ NoArgs) (any, error) {
			notifications, err := p.Notifications(ctx, userID)
			if err != nil {
				return nil, err
			}
			if len(notifications) == 0 {
				return "No new notifications", nil
			}
			return notifications, nil
		})
}
