package store

import "context"

// PostTagIDs returns the tag ids linked to postID in insertion order.
func (s *Store) PostTagIDs(ctx context.Context, postID int64) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `SELECT tag_id FROM post_tags WHERE post_id = ? ORDER BY id`, postID)
	return ids, err
}
