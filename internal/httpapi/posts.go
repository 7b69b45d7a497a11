package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/VitaminP8/postsync/internal/auth"
	"github.com/VitaminP8/postsync/internal/post"
	"github.com/gin-gonic/gin"
)

const maxImageSize = 10 << 20

type PostHandler struct {
	posts     post.PostStorage
	uploadDir string
	logger    *slog.Logger
}

type postRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
}

func (r postRequest) input() post.Input {
	return post.Input{Title: r.Title, Description: r.Description, Image: r.Image}
}

func (h *PostHandler) List(c *gin.Context) {
	views, err := h.posts.GetAllPosts(c.Request.Context(), "")
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *PostHandler) ListOwn(c *gin.Context) {
	id, _ := auth.UserID(c)
	views, err := h.posts.GetAllPosts(c.Request.Context(), id)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *PostHandler) Get(c *gin.Context) {
	view, err := h.posts.GetPostById(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Create accepts JSON or a multipart form with an optional image file.
func (h *PostHandler) Create(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	owner, _ := auth.UserID(c)
	view, err := h.posts.CreatePost(c.Request.Context(), owner, in)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Update changes only the fields present in the request. A multipart
// request may replace the image.
func (h *PostHandler) Update(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	owner, _ := auth.UserID(c)
	view, err := h.posts.UpdatePost(c.Request.Context(), owner, c.Param("id"), in)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// bindInput reads a JSON body or a multipart form. Absent fields stay nil.
// It writes the error response itself and reports false on failure.
func (h *PostHandler) bindInput(c *gin.Context) (post.Input, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req postRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return post.Input{}, false
		}
		return req.input(), true
	}

	var in post.Input
	if title, ok := c.GetPostForm("title"); ok {
		in.Title = &title
	}
	if description, ok := c.GetPostForm("description"); ok {
		in.Description = &description
	}
	image, ok := h.saveImage(c)
	if !ok {
		return post.Input{}, false
	}
	if image != "" {
		in.Image = &image
	}
	return in, true
}

func (h *PostHandler) Delete(c *gin.Context) {
	owner, _ := auth.UserID(c)
	if err := h.posts.DeletePostById(c.Request.Context(), owner, c.Param("id")); err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// saveImage stores the optional "image" form file and returns its public
// path. It writes the error response itself and reports false on failure.
func (h *PostHandler) saveImage(c *gin.Context) (string, bool) {
	header, err := c.FormFile("image")
	if err == http.ErrMissingFile {
		return "", true
	}
	if err != nil {
		badRequest(c, "invalid image upload")
		return "", false
	}
	if h.uploadDir == "" {
		badRequest(c, "image uploads are disabled")
		return "", false
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		badRequest(c, "only image files are allowed")
		return "", false
	}
	if header.Size > maxImageSize {
		badRequest(c, "image is larger than 10MB")
		return "", false
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		renderError(c, h.logger, fmt.Errorf("could not create upload dir: %w", err))
		return "", false
	}
	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(header.Filename))
	if err := c.SaveUploadedFile(header, filepath.Join(h.uploadDir, name)); err != nil {
		renderError(c, h.logger, fmt.Errorf("could not save image: %w", err))
		return "", false
	}
	return "uploads/" + name, true
}
