package forms

import (
	"bytes"
	"mime/multipart"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["image"][0]
}

func TestValidateLogin(t *testing.T) {
	l, errs := ValidateLogin(url.Values{"username": {" alice "}, "password": {"pw"}})
	assert.Nil(t, errs)
	assert.Equal(t, "alice", l.Username)

	_, errs = ValidateLogin(url.Values{"username": {"alice"}})
	require.NotNil(t, errs)
	assert.Equal(t, "This field is required.", errs.Get("password"))
	assert.Empty(t, errs.Get("username"))
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name  string
		in    url.Values
		field string
	}{
		{"ok", url.Values{"username": {"alice"}, "password1": {"correct-horse"}, "password2": {"correct-horse"}}, ""},
		{"missing username", url.Values{"password1": {"correct-horse"}, "password2": {"correct-horse"}}, "username"},
		{"bad characters", url.Values{"username": {"al ice"}, "password1": {"correct-horse"}, "password2": {"correct-horse"}}, "username"},
		{"too long", url.Values{"username": {strings.Repeat("a", 151)}, "password1": {"correct-horse"}, "password2": {"correct-horse"}}, "username"},
		{"short password", url.Values{"username": {"alice"}, "password1": {"short"}, "password2": {"short"}}, "password1"},
		{"numeric password", url.Values{"username": {"alice"}, "password1": {"1234567890"}, "password2": {"1234567890"}}, "password1"},
		{"password is username", url.Values{"username": {"aliceAlice"}, "password1": {"alicealice"}, "password2": {"alicealice"}}, "password1"},
		{"mismatch", url.Values{"username": {"alice"}, "password1": {"correct-horse"}, "password2": {"battery-staple"}}, "password2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, errs := ValidateRegistration(tt.in)
			if tt.field == "" {
				assert.Nil(t, errs)
				assert.Equal(t, "alice", r.Username)
				return
			}
			require.NotNil(t, errs)
			assert.NotEmpty(t, errs.Get(tt.field), "errors: %v", errs)
		})
	}
}

func TestValidateProfile(t *testing.T) {
	p, errs := ValidateProfile(url.Values{"title": {"  "}, "bio": {"hi"}})
	assert.Nil(t, errs)
	assert.False(t, p.Title.Valid)
	assert.Equal(t, "hi", p.Bio)

	p, errs = ValidateProfile(url.Values{"title": {"Engineer"}})
	assert.Nil(t, errs)
	assert.True(t, p.Title.Valid)
	assert.Equal(t, "Engineer", p.Title.String)

	_, errs = ValidateProfile(url.Values{"title": {strings.Repeat("x", 101)}})
	assert.NotEmpty(t, errs.Get("title"))
}

func TestValidateComment(t *testing.T) {
	body, errs := ValidateComment(url.Values{"body": {" nice post "}})
	assert.Nil(t, errs)
	assert.Equal(t, "nice post", body)

	_, errs = ValidateComment(url.Values{"body": {"   "}})
	assert.Equal(t, "This field is required.", errs.Get("body"))
}

func TestValidatePost(t *testing.T) {
	t.Run("text only", func(t *testing.T) {
		p, errs := ValidatePost(url.Values{"title": {"Hello"}, "category": {"2"}, "tags": {"3", "1"}}, nil)
		assert.Nil(t, errs)
		assert.Equal(t, int64(2), p.CategoryID)
		assert.Equal(t, []int64{3, 1}, p.TagIDs)
		assert.Nil(t, p.Image)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, errs := ValidatePost(url.Values{}, nil)
		assert.NotEmpty(t, errs.Get("title"))
		assert.NotEmpty(t, errs.Get("category"))
	})

	t.Run("bad ids", func(t *testing.T) {
		_, errs := ValidatePost(url.Values{"title": {"x"}, "category": {"abc"}, "tags": {"1", "zz"}}, nil)
		assert.NotEmpty(t, errs.Get("category"))
		assert.NotEmpty(t, errs.Get("tags"))
	})

	t.Run("png image", func(t *testing.T) {
		fh := fileHeader(t, "pic.png", pngHeader)
		p, errs := ValidatePost(url.Values{"title": {"x"}, "category": {"1"}}, fh)
		assert.Nil(t, errs)
		assert.Equal(t, "image/png", p.ContentType)
		assert.Equal(t, ".png", p.ImageExt())
		assert.NotNil(t, p.Image)
	})

	t.Run("not an image", func(t *testing.T) {
		fh := fileHeader(t, "pic.png", []byte("just some text"))
		_, errs := ValidatePost(url.Values{"title": {"x"}, "category": {"1"}}, fh)
		assert.NotEmpty(t, errs.Get("image"))
	})
}
