package models

import "time"

// Post is a single text post. OwnerUsername references the owning user; the
// reverse reference lives in User.PostIDs.
type Post struct {
	ID            string
	Text          string
	CreatedAt     time.Time
	OwnerUsername string
}

// OwnerSummary is the slice of the owner shown alongside a post.
type OwnerSummary struct {
	Username string
	Name     string
	PhotoURL string
}

// PostWithOwner is a post joined with its owner's summary.
type PostWithOwner struct {
	Post
	Owner OwnerSummary
}

// PostPatch carries a sparse post update. Only the text is mutable.
type PostPatch struct {
	Text *string
}
