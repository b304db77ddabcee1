package auth

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// SQLStore keeps sessions in the sessions table.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Save(ctx context.Context, id string, userID int64, expires time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions(id,user_id,expires_at) VALUES(?,?,?)`,
		id, userID, expires.UTC())
	return err
}

func (s *SQLStore) Lookup(ctx context.Context, id string) (int64, error) {
	var row struct {
		UserID    int64     `db:"user_id"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT user_id, expires_at FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, err
	}
	if time.Now().After(row.ExpiresAt) {
		return 0, ErrNoSession
	}
	return row.UserID, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *SQLStore) DeleteUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

// RedisStore keeps sessions in Redis with a TTL. A per-user key tracks the
// live session so a new login can revoke the previous one.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(id string) string { return "session:" + id }
func userKey(userID int64) string { return "session-user:" + strconv.FormatInt(userID, 10) }

func (s *RedisStore) Save(ctx context.Context, id string, userID int64, expires time.Time) error {
	ttl := time.Until(expires)
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(id), userID, ttl)
	pipe.Set(ctx, userKey(userID), id, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Lookup(ctx context.Context, id string) (int64, error) {
	uid, err := s.rdb.Get(ctx, sessionKey(id)).Int64()
	if err == redis.Nil {
		return 0, ErrNoSession
	}
	return uid, err
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}

func (s *RedisStore) DeleteUser(ctx context.Context, userID int64) error {
	id, err := s.rdb.Get(ctx, userKey(userID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	return s.rdb.Del(ctx, sessionKey(id), userKey(userID)).Err()
}

// NewRedisClient creates and pings a Redis client.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}
