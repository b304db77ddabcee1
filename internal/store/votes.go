package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"blog/internal/models"
)

// VoteCounts returns the number of upvoters and downvoters of postID.
func (s *Store) VoteCounts(ctx context.Context, postID int64) (up, down int, err error) {
	var row struct {
		Up   int `db:"up"`
		Down int `db:"down"`
	}
	err = s.db.GetContext(ctx, &row, `SELECT
		IFNULL(SUM(CASE WHEN value = 1 THEN 1 ELSE 0 END), 0) AS up,
		IFNULL(SUM(CASE WHEN value = -1 THEN 1 ELSE 0 END), 0) AS down
		FROM post_votes WHERE post_id = ?`, postID)
	if err != nil {
		return 0, 0, fmt.Errorf("count votes: %w", err)
	}
	return row.Up, row.Down, nil
}

// UserVote returns the vote userID cast on postID, or models.NoVote.
func (s *Store) UserVote(ctx context.Context, postID, userID int64) (int, error) {
	var v int
	err := s.db.GetContext(ctx, &v, `SELECT value FROM post_votes WHERE post_id = ? AND user_id = ?`, postID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NoVote, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select vote: %w", err)
	}
	return v, nil
}

// SetVote records userID as an upvoter or downvoter of postID, moving them
// out of the other set. models.NoVote removes them from both.
func (s *Store) SetVote(ctx context.Context, postID, userID int64, value int) error {
	switch value {
	case models.Upvote, models.Downvote, models.NoVote:
	default:
		return fmt.Errorf("invalid vote value %d", value)
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := exists(ctx, tx, "posts", postID)
		if err != nil {
			return fmt.Errorf("check post: %w", err)
		}
		if !ok {
			return fmt.Errorf("post %d: %w", postID, ErrNotFound)
		}
		if value == models.NoVote {
			_, err = tx.ExecContext(ctx, `DELETE FROM post_votes WHERE post_id = ? AND user_id = ?`, postID, userID)
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO post_votes(post_id,user_id,value,created_at)
			VALUES(?,?,?,?)
			ON CONFLICT(post_id,user_id) DO UPDATE SET value=excluded.value, created_at=excluded.created_at`,
			postID, userID, value, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("upsert vote: %w", err)
		}
		return nil
	})
}
