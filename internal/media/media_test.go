package media

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	d, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	key := NewKey(".png")
	assert.True(t, strings.HasPrefix(key, "posts/"))
	assert.Equal(t, "/media/"+key, URL(key))

	require.NoError(t, d.Put(ctx, key, "image/png", strings.NewReader("data"), 4))

	rc, ct, err := d.Open(ctx, key)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "data", string(b))
	assert.Equal(t, "image/png", ct)

	require.NoError(t, d.Remove(ctx, key))
	_, _, err = d.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, d.Remove(ctx, key))
}

func TestValidKey(t *testing.T) {
	for key, ok := range map[string]bool{
		"posts/a.png":    true,
		"../etc/passwd":  false,
		"/abs":           false,
		"posts/../../x":  false,
		"posts//a.png":   false,
		"":               false,
		`posts\..\x.png`: false,
	} {
		assert.Equal(t, ok, validKey(key), key)
	}
}
