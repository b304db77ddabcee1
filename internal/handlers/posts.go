package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"blog/internal/auth"
	"blog/internal/forms"
	"blog/internal/media"
	"blog/internal/metrics"
	"blog/internal/models"
	"blog/internal/store"
)

// maxUploadSize bounds a new-post request body, image included.
const maxUploadSize = 10 << 20

// postID parses the {postID} route parameter.
func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	return id, err == nil && id > 0
}

// -------- Post detail & comments

// detailPage builds the detail page context for post id as seen by viewer.
func (h *Handler) detailPage(ctx context.Context, id int64, viewer *models.User) (map[string]any, error) {
	var viewerID int64
	if viewer != nil {
		viewerID = viewer.ID
	}
	post, err := h.store.PostDetail(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	comments, err := h.store.CommentsForPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"Title":    post.Title,
		"Post":     post,
		"Tags":     strings.Join(post.TagNames(), ", "),
		"Comments": comments,
	}, nil
}

func (h *Handler) PostDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	u, _ := auth.UserFrom(r.Context())
	page, err := h.detailPage(r.Context(), id, u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "post", page)
}

// CreateComment handles the comment form posted to a detail page.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	u, _ := auth.UserFrom(r.Context())

	body, errs := forms.ValidateComment(r.PostForm)
	if errs != nil {
		page, err := h.detailPage(r.Context(), id, u)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		page["Form"] = r.PostForm
		page["Errors"] = errs
		h.render(w, r, http.StatusOK, "post", page)
		return
	}

	if _, err := h.store.CreateComment(r.Context(), id, u.ID, body); err != nil {
		h.fail(w, r, err)
		return
	}
	metrics.CommentsCreated.Inc()
	redirect(w, r, postURL(id))
}

// Vote records the caller's up or down vote, or clears it with value 0.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	value, err := strconv.Atoi(r.FormValue("value"))
	if err != nil || value < models.Downvote || value > models.Upvote {
		http.Error(w, "invalid vote", http.StatusBadRequest)
		return
	}
	u, _ := auth.UserFrom(r.Context())
	if err := h.store.SetVote(r.Context(), id, u.ID, value); err != nil {
		h.fail(w, r, err)
		return
	}
	metrics.Votes.WithLabelValues(strconv.Itoa(value)).Inc()
	redirect(w, r, postURL(id))
}

// -------- New post

func (h *Handler) newPostPage(ctx context.Context) (map[string]any, error) {
	cats, err := h.store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := h.store.Tags(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"Title": "New Post", "Categories": cats, "Tags": tags}, nil
}

func (h *Handler) NewPost(w http.ResponseWriter, r *http.Request) {
	page, err := h.newPostPage(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "new_post", page)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	u, _ := auth.UserFrom(r.Context())

	input, errs := forms.ValidatePost(r.PostForm, imageField(r))
	if errs != nil {
		page, err := h.newPostPage(r.Context())
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		page["Form"] = r.PostForm
		page["Errors"] = errs
		h.render(w, r, http.StatusOK, "new_post", page)
		return
	}

	var key string
	if input.Image != nil {
		key = media.NewKey(input.ImageExt())
		if err := h.storeImage(r.Context(), key, input); err != nil {
			h.serverError(w, r, err)
			return
		}
	}

	id, err := h.store.CreatePost(r.Context(), store.NewPost{
		UserID:     u.ID,
		Title:      input.Title,
		Image:      key,
		CategoryID: input.CategoryID,
		TagIDs:     input.TagIDs,
	})
	if err != nil {
		if key != "" {
			_ = h.media.Remove(r.Context(), key)
		}
		h.fail(w, r, err)
		return
	}
	metrics.PostsCreated.Inc()
	redirect(w, r, postURL(id))
}

// imageField returns the uploaded image, or nil when none was sent.
func imageField(r *http.Request) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		return files[0]
	}
	return nil
}

func (h *Handler) storeImage(ctx context.Context, key string, p forms.Post) error {
	f, err := p.Image.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	if err := h.media.Put(ctx, key, p.ContentType, f, p.Image.Size); err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	return nil
}
