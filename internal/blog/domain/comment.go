package domain

import "time"

const MaxCommentLength = 5_000

type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// CommentView is a comment joined with its author.
type CommentView struct {
	Comment
	Author Author
}
