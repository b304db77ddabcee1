package store

import (
	"context"
	"fmt"
	"time"

	"blog/internal/models"
)

// CreateComment stores a comment by userID on postID. A post id that does
// not resolve yields ErrNotFound.
func (s *Store) CreateComment(ctx context.Context, postID, userID int64, body string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments(post_id,user_id,body,created_at) VALUES(?,?,?,?)`,
		postID, userID, body, time.Now().UTC())
	if isForeignKeyViolation(err) {
		return 0, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return res.LastInsertId()
}

// CommentsForPost returns every comment on postID with its author, newest
// first.
func (s *Store) CommentsForPost(ctx context.Context, postID int64) ([]models.CommentView, error) {
	var comments []models.CommentView
	err := s.db.SelectContext(ctx, &comments, `SELECT c.id, c.post_id, c.user_id, c.body, c.created_at,
		u.username AS author
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ?
		ORDER BY c.created_at DESC, c.id DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("select comments: %w", err)
	}
	return comments, nil
}
