// Package forms validates submitted form values. Every Validate function
// returns either a usable payload and nil Errors, or field errors.
package forms

import (
	"database/sql"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Errors maps a field name to its messages.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the first message for field.
func (e Errors) Get(field string) string {
	if len(e[field]) == 0 {
		return ""
	}
	return e[field][0]
}

// OrNil returns nil when no error was recorded.
func (e Errors) OrNil() Errors {
	if len(e) == 0 {
		return nil
	}
	return e
}

func required(e Errors, field, value string) {
	if value == "" {
		e.Add(field, "This field is required.")
	}
}

func maxRunes(e Errors, field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		e.Add(field, fmt.Sprintf("Ensure this value has at most %d characters.", n))
	}
}

type Login struct {
	Username string
	Password string
}

func ValidateLogin(v url.Values) (Login, Errors) {
	e := Errors{}
	l := Login{
		Username: strings.TrimSpace(v.Get("username")),
		Password: v.Get("password"),
	}
	required(e, "username", l.Username)
	required(e, "password", l.Password)
	return l, e.OrNil()
}

type Registration struct {
	Username string
	Password string
}

var usernameRe = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

const minPasswordLen = 8

func ValidateRegistration(v url.Values) (Registration, Errors) {
	e := Errors{}
	r := Registration{
		Username: strings.TrimSpace(v.Get("username")),
		Password: v.Get("password1"),
	}
	confirm := v.Get("password2")

	required(e, "username", r.Username)
	maxRunes(e, "username", r.Username, 150)
	if r.Username != "" && !usernameRe.MatchString(r.Username) {
		e.Add("username", "Enter a valid username. It may contain only letters, numbers, and @/./+/-/_ characters.")
	}

	required(e, "password1", r.Password)
	required(e, "password2", confirm)
	if r.Password != "" {
		if utf8.RuneCountInString(r.Password) < minPasswordLen {
			e.Add("password1", fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLen))
		}
		if allDigits(r.Password) {
			e.Add("password1", "This password is entirely numeric.")
		}
		if r.Username != "" && strings.EqualFold(r.Password, r.Username) {
			e.Add("password1", "The password is too similar to the username.")
		}
	}
	if confirm != "" && r.Password != confirm {
		e.Add("password2", "The two password fields didn't match.")
	}
	return r, e.OrNil()
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

type Profile struct {
	Title sql.NullString
	Bio   string
}

func ValidateProfile(v url.Values) (Profile, Errors) {
	e := Errors{}
	title := strings.TrimSpace(v.Get("title"))
	p := Profile{
		Title: sql.NullString{String: title, Valid: title != ""},
		Bio:   strings.TrimSpace(v.Get("bio")),
	}
	maxRunes(e, "title", title, 100)
	maxRunes(e, "bio", p.Bio, 5000)
	return p, e.OrNil()
}

func ValidateComment(v url.Values) (string, Errors) {
	e := Errors{}
	body := strings.TrimSpace(v.Get("body"))
	required(e, "body", body)
	maxRunes(e, "body", body, 2000)
	return body, e.OrNil()
}

// Post is a validated new-post submission. Image is nil when no file was
// uploaded.
type Post struct {
	Title       string
	CategoryID  int64
	TagIDs      []int64
	Image       *multipart.FileHeader
	ContentType string
}

// ImageExt returns the file extension matching the detected content type.
func (p Post) ImageExt() string {
	return imageTypes[p.ContentType]
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ValidatePost checks the text fields in v and the optional image. The image
// type is sniffed from its content, not trusted from the client.
func ValidatePost(v url.Values, image *multipart.FileHeader) (Post, Errors) {
	e := Errors{}
	p := Post{Title: strings.TrimSpace(v.Get("title"))}
	required(e, "title", p.Title)
	maxRunes(e, "title", p.Title, 200)

	cat := strings.TrimSpace(v.Get("category"))
	required(e, "category", cat)
	if cat != "" {
		id, err := strconv.ParseInt(cat, 10, 64)
		if err != nil || id <= 0 {
			e.Add("category", "Select a valid choice.")
		}
		p.CategoryID = id
	}

	for _, raw := range v["tags"] {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			e.Add("tags", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", raw))
			continue
		}
		p.TagIDs = append(p.TagIDs, id)
	}

	if image != nil && image.Size > 0 {
		ct, err := sniff(image)
		if err != nil {
			e.Add("image", "The submitted file could not be read.")
		} else if _, ok := imageTypes[ct]; !ok {
			e.Add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		} else {
			p.Image = image
			p.ContentType = ct
		}
	}
	return p, e.OrNil()
}

func sniff(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return "", err
	}
	ct := http.DetectContentType(buf[:n])
	// DetectContentType may append parameters.
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct, nil
}
