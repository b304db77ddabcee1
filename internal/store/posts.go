package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"blog/internal/models"
)

// NewPost is the validated input of a post creation.
type NewPost struct {
	UserID     int64
	Title      string
	Image      string // media key, "" when no image
	CategoryID int64
	TagIDs     []int64
}

func (s *Store) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := s.db.SelectContext(ctx, &cats, `SELECT id, name FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return cats, nil
}

func (s *Store) Tags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.SelectContext(ctx, &tags, `SELECT id, name FROM tags ORDER BY name`); err != nil {
		return nil, fmt.Errorf("select tags: %w", err)
	}
	return tags, nil
}

// CreatePost inserts the post and one post_tags row per tag id, in order,
// inside a single transaction. An unknown category or tag id aborts the
// whole write with ErrNotFound.
func (s *Store) CreatePost(ctx context.Context, p NewPost) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := exists(ctx, tx, "categories", p.CategoryID)
		if err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if !ok {
			return fmt.Errorf("category %d: %w", p.CategoryID, ErrNotFound)
		}

		image := sql.NullString{String: p.Image, Valid: p.Image != ""}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO posts(user_id,title,image,category_id,created_at) VALUES(?,?,?,?,?)`,
			p.UserID, p.Title, image, p.CategoryID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}

		for _, tagID := range p.TagIDs {
			ok, err := exists(ctx, tx, "tags", tagID)
			if err != nil {
				return fmt.Errorf("check tag: %w", err)
			}
			if !ok {
				return fmt.Errorf("tag %d: %w", tagID, ErrNotFound)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO post_tags(post_id,tag_id) VALUES(?,?)`, id, tagID); err != nil {
				return fmt.Errorf("insert post tag: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// summaries is the base query for post listings: posts joined with their
// author and category, newest first with the id as tiebreak.
func summaries() sq.SelectBuilder {
	return sq.Select(
		"p.id", "p.user_id", "p.title", "p.image", "p.category_id", "p.created_at",
		"u.username AS author", "c.name AS category",
	).
		From("posts p").
		Join("users u ON u.id = p.user_id").
		Join("categories c ON c.id = p.category_id").
		OrderBy("p.created_at DESC", "p.id DESC")
}

func (s *Store) listPosts(ctx context.Context, b sq.SelectBuilder) ([]models.PostSummary, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	var posts []models.PostSummary
	if err := s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}
	if err := s.attachTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// RecentPosts returns the limit newest posts with author, category and tags.
func (s *Store) RecentPosts(ctx context.Context, limit int) ([]models.PostSummary, error) {
	return s.listPosts(ctx, summaries().Limit(uint64(limit)))
}

// PostsByUser returns the limit newest posts owned by userID.
func (s *Store) PostsByUser(ctx context.Context, userID int64, limit int) ([]models.PostSummary, error) {
	return s.listPosts(ctx, summaries().Where(sq.Eq{"p.user_id": userID}).Limit(uint64(limit)))
}

type postTagRow struct {
	PostID int64  `db:"post_id"`
	ID     int64  `db:"id"`
	Name   string `db:"name"`
}

// attachTags loads the tags of all posts in one query.
func (s *Store) attachTags(ctx context.Context, posts []models.PostSummary) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	query, args, err := sq.Select("pt.post_id", "t.id", "t.name").
		From("post_tags pt").
		Join("tags t ON t.id = pt.tag_id").
		Where(sq.Eq{"pt.post_id": ids}).
		OrderBy("pt.id").
		ToSql()
	if err != nil {
		return err
	}
	var rows []postTagRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("select post tags: %w", err)
	}
	byPost := make(map[int64][]models.Tag, len(posts))
	for _, r := range rows {
		byPost[r.PostID] = append(byPost[r.PostID], models.Tag{ID: r.ID, Name: r.Name})
	}
	for i := range posts {
		posts[i].Tags = byPost[posts[i].ID]
	}
	return nil
}

// PostDetail loads one post with its author, category, tags, vote counts
// and the vote cast by viewerID (0 for none).
func (s *Store) PostDetail(ctx context.Context, id, viewerID int64) (*models.PostDetail, error) {
	query, args, err := summaries().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var d models.PostDetail
	err = s.db.GetContext(ctx, &d.PostSummary, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select post: %w", err)
	}
	posts := []models.PostSummary{d.PostSummary}
	if err := s.attachTags(ctx, posts); err != nil {
		return nil, err
	}
	d.PostSummary = posts[0]

	if d.Upvotes, d.Downvotes, err = s.VoteCounts(ctx, id); err != nil {
		return nil, err
	}
	if viewerID != 0 {
		if d.MyVote, err = s.UserVote(ctx, id, viewerID); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

// PostExists reports whether a post with the given id exists.
func (s *Store) PostExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, s.db, "posts", id)
}
