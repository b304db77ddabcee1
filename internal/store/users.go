package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blog/internal/models"
)

const userColumns = `id, username, password_hash, title, bio, created_at`

// CreateUser inserts a new account and returns its id. A taken username
// yields ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username,password_hash,bio,created_at) VALUES(?,?,'',?)`,
		username, passwordHash, time.Now().UTC())
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("user %q: %w", username, ErrDuplicate)
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE username = ?`, username); err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// UpdateProfile overwrites the title and bio of user id.
func (s *Store) UpdateProfile(ctx context.Context, id int64, title sql.NullString, bio string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET title = ?, bio = ? WHERE id = ?`, title, bio, id)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}
