package domain

import "time"

const (
	MaxTitleLength   = 200
	MaxSummaryLength = 500
	MaxContentLength = 100_000

	// RecentPostsLimit is how many posts the index returns.
	RecentPostsLimit = 20
)

type Post struct {
	ID        string
	AuthorID  string
	Title     string
	Summary   string
	Content   string
	Cover     string // committed media key, empty when none was uploaded
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Author is the public part of a user.
type Author struct {
	ID       string
	Username string
}

// PostView is a post joined with its author.
type PostView struct {
	Post
	Author Author
}
