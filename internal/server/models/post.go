package models

import "time"

// Post is an immutable text update. Seq orders posts created within the
// same timestamp.
type Post struct {
	ID        string
	Seq       int64
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// FeedPost is a post joined with its author's profile, when one exists.
type FeedPost struct {
	Post
	Author *Profile
}
