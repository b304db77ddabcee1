package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64          `db:"id"`
	Username     string         `db:"username"`
	PasswordHash string         `db:"password_hash"`
	Title        sql.NullString `db:"title"`
	Bio          string         `db:"bio"`
	CreatedAt    time.Time      `db:"created_at"`
}

// DisplayTitle returns the profile title or "" when none is set.
func (u User) DisplayTitle() string {
	if u.Title.Valid {
		return u.Title.String
	}
	return ""
}

type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type Tag struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type Post struct {
	ID         int64          `db:"id"`
	UserID     int64          `db:"user_id"`
	Title      string         `db:"title"`
	Image      sql.NullString `db:"image"`
	CategoryID int64          `db:"category_id"`
	CreatedAt  time.Time      `db:"created_at"`
}

// PostTag links one post to one tag.
type PostTag struct {
	ID     int64 `db:"id"`
	PostID int64 `db:"post_id"`
	TagID  int64 `db:"tag_id"`
}

type Comment struct {
	ID        int64     `db:"id"`
	PostID    int64     `db:"post_id"`
	UserID    int64     `db:"user_id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

// PostSummary is a post joined with its author, category and tags, as
// listed on the home and profile pages.
type PostSummary struct {
	Post
	Author   string `db:"author"`
	Category string `db:"category"`
	Tags     []Tag  `db:"-"`
}

// TagNames returns the tag labels in PostTag insertion order.
func (p PostSummary) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// CommentView is a comment joined with its author's username.
type CommentView struct {
	Comment
	Author string `db:"author"`
}

// Vote values stored in post_votes.
const (
	Downvote = -1
	NoVote   = 0
	Upvote   = 1
)

// PostDetail is everything the detail page shows about one post.
type PostDetail struct {
	PostSummary
	Upvotes   int
	Downvotes int
	MyVote    int
}
