package models

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
)

// Post is an immutable text update.
type Post struct {
	ID        string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// FeedPost is a post joined with its author's profile. Author is nil when
// the author's profile could not be resolved.
type FeedPost struct {
	Post
	Author *Profile
}

// AuthorName is the name rendered next to the post.
func (fp FeedPost) AuthorName() string {
	if fp.Author == nil || fp.Author.FullName == "" {
		return "User"
	}
	return fp.Author.FullName
}

// NormalizeContent trims content and enforces the 1..500 character range.
func NormalizeContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", common.NewValidationError("content", "must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > common.MaxPostLength {
		return "", common.NewValidationError("content", "must be at most 500 characters")
	}
	return trimmed, nil
}

// SortNewestFirst orders posts by CreatedAt descending. The sort is stable,
// so posts sharing a timestamp keep the order the store returned them in.
func SortNewestFirst(posts []FeedPost) {
	slices.SortStableFunc(posts, func(a, b FeedPost) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
}
