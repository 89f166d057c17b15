package server

import (
	"sort"

	"github.com/hupe1980/bleater/platform"
)

const (
	// FeedWindow is how many recent posts the ranking considers.
	FeedWindow = 500
	// FeedSize is how many posts the feed returns.
	FeedSize = 10
)

// RankFeed orders recent posts by weight and keeps the top FeedSize. posts
// must be newest first. The weight of a post is span/age plus its reply count,
// where span is the age of the oldest post considered. Posts with no age get
// the full span. Ties keep their newest-first order.
func RankFeed(now int64, posts []platform.Post) []platform.Post {
	if len(posts) == 0 {
		return []platform.Post{}
	}

	span := now - posts[len(posts)-1].Timestamp
	weight := func(p platform.Post) int64 {
		w := span
		if age := now - p.Timestamp; age > 0 {
			w = span / age
		}
		return w + int64(p.Replies)
	}

	ranked := make([]platform.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return weight(ranked[i]) > weight(ranked[j])
	})

	if len(ranked) > FeedSize {
		ranked = ranked[:FeedSize]
	}
	return ranked
}
