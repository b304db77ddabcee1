package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/internal/db"
)

func TestConstraintClassification(t *testing.T) {
	ctx := context.Background()
	dbc, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbc.Close() })
	require.NoError(t, db.Migrate(ctx, dbc))

	insertUser := `INSERT INTO users(username,password_hash,bio,created_at) VALUES(?,?,'',?)`
	_, err = dbc.ExecContext(ctx, insertUser, "alice", "h", time.Now().UTC())
	require.NoError(t, err)

	t.Run("unique", func(t *testing.T) {
		_, err := dbc.ExecContext(ctx, insertUser, "alice", "h", time.Now().UTC())
		require.Error(t, err)
		assert.True(t, isUniqueViolation(err))
		assert.False(t, isForeignKeyViolation(err))
	})

	t.Run("foreign key", func(t *testing.T) {
		_, err := dbc.ExecContext(ctx,
			`INSERT INTO comments(post_id,user_id,body,created_at) VALUES(9999,1,'x',?)`, time.Now().UTC())
		require.Error(t, err)
		assert.True(t, isForeignKeyViolation(err))
		assert.False(t, isUniqueViolation(err))
	})

	t.Run("matching text is not enough", func(t *testing.T) {
		err := errors.New("UNIQUE constraint failed: users.username")
		assert.False(t, isUniqueViolation(err))
		assert.False(t, isForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")))
		assert.False(t, isUniqueViolation(nil))
	})
}
