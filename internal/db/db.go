package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Open opens the SQLite database at path with foreign keys enforced on
// every connection.
func Open(path string) (*sqlx.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// sqlite3 selects the '?' bindvar in sqlx.
	return sqlx.NewDb(db, "sqlite3"), nil
}

func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			title TEXT,
			bio TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions(
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS categories(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tags(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS posts(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			image TEXT,
			category_id INTEGER NOT NULL REFERENCES categories(id),
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS posts_created_idx ON posts(created_at, id);`,
		`CREATE INDEX IF NOT EXISTS posts_user_idx ON posts(user_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS post_tags(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS post_tags_post_idx ON post_tags(post_id);`,
		// One row per (post, user): a user is an upvoter or a downvoter, never both.
		`CREATE TABLE IF NOT EXISTS post_votes(
			post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			value INTEGER NOT NULL CHECK(value IN (-1,1)),
			created_at DATETIME NOT NULL,
			PRIMARY KEY(post_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS comments(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			body TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS comments_post_idx ON comments(post_id, created_at);`,
		// Reference data
		`INSERT OR IGNORE INTO categories(id,name) VALUES
			(1,'General'),(2,'News'),(3,'Q&A'),(4,'Showcase');`,
		`INSERT OR IGNORE INTO tags(id,name) VALUES
			(1,'go'),(2,'web'),(3,'databases'),(4,'tutorial'),(5,'opinion');`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
