package catalog

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ahmad-alkadri/meme-depot/internal/apperr"
	"github.com/ahmad-alkadri/meme-depot/internal/httpserver"
)

type createForm struct {
	Image *multipart.FileHeader `form:"image" binding:"required"`
	Text  string                `form:"text" binding:"required"`
	Name  string                `form:"meme_name" binding:"required"`
}

type listQuery struct {
	Limit  int `form:"limit,default=5" binding:"min=0,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

type memeResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"meme_name"`
	ImageURL string `json:"image_url"`
	Text     string `json:"text"`
}

type memeFullResponse struct {
	memeResponse
	DateAdded   time.Time `json:"date_added"`
	DateUpdated time.Time `json:"date_updated"`
}

type memeDeletedResponse struct {
	memeResponse
	Deleted bool `json:"deleted"`
}

func newMemeResponse(m Meme) memeResponse {
	return memeResponse{ID: m.ID, Name: m.Name, ImageURL: m.ImageURL, Text: m.Text}
}

func newMemeFullResponse(m Meme) memeFullResponse {
	return memeFullResponse{memeResponse: newMemeResponse(m), DateAdded: m.DateAdded, DateUpdated: m.DateUpdated}
}

// HTTPHandler exposes the catalog over HTTP.
type HTTPHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the /memes endpoints on r.
func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	memes := r.Group("/memes")
	memes.POST("", h.CreateMeme)
	memes.GET("", h.ListMemes)
	memes.GET("/:id", h.GetMeme)
	memes.PUT("/:id", h.UpdateMeme)
	memes.DELETE("/:id", h.DeleteMeme)
}

// CreateMeme stores the uploaded image and inserts a new meme.
func (h *HTTPHandler) CreateMeme(c *gin.Context) {
	var form createForm
	if err := c.ShouldBind(&form); err != nil {
		httpserver.AbortWithValidation(c, h.logger, err, "invalid parameters")
		return
	}

	upload, err := readUpload(form.Image)
	if err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	m, err := h.service.Create(c.Request.Context(), NewMeme{
		Name:     form.Name,
		Text:     form.Text,
		Filename: upload.Filename,
		Image:    upload.Data,
	})
	if err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, newMemeResponse(m))
}

// ListMemes returns a page of memes.
func (h *HTTPHandler) ListMemes(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpserver.AbortWithValidation(c, h.logger, err, "invalid parameters")
		return
	}

	memes, err := h.service.List(c.Request.Context(), q.Offset, q.Limit)
	if err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	resp := make([]memeFullResponse, 0, len(memes))
	for _, m := range memes {
		resp = append(resp, newMemeFullResponse(m))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) GetMeme(c *gin.Context) {
	id, ok := h.memeID(c)
	if !ok {
		return
	}

	m, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, newMemeFullResponse(m))
}

// UpdateMeme applies the optional image, text and meme_name fields. A request
// without any of them is acknowledged without touching anything.
func (h *HTTPHandler) UpdateMeme(c *gin.Context) {
	id, ok := h.memeID(c)
	if !ok {
		return
	}

	var changes MemeChanges
	if text, ok := c.GetPostForm("text"); ok {
		changes.Text = &text
	}
	if name, ok := c.GetPostForm("meme_name"); ok {
		changes.Name = &name
	}

	image, err := optionalUpload(c)
	if err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	if image == nil && changes.Empty() {
		c.JSON(http.StatusOK, gin.H{"data": "Nothing to update"})
		return
	}

	m, err := h.service.Update(c.Request.Context(), id, changes, image)
	if err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, newMemeFullResponse(m))
}

func (h *HTTPHandler) DeleteMeme(c *gin.Context) {
	id, ok := h.memeID(c)
	if !ok {
		return
	}

	m, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, memeDeletedResponse{memeResponse: newMemeResponse(m), Deleted: true})
}

func (h *HTTPHandler) memeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpserver.AbortWithValidation(c, h.logger, err, "invalid meme id")
		return 0, false
	}
	return id, true
}

// optionalUpload returns the "image" part of a multipart request, or nil
// when the request carries none.
func optionalUpload(c *gin.Context) (*ImageUpload, error) {
	fh, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	case err != nil:
		return nil, apperr.Validation(err, "invalid image upload")
	case fh.Filename == "" && fh.Size == 0:
		return nil, nil
	}
	return readUpload(fh)
}

func readUpload(fh *multipart.FileHeader) (*ImageUpload, error) {
	filename := filepath.Base(fh.Filename)
	if strings.TrimSpace(filename) == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, apperr.Validation(nil, "image must have a filename")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Validation(err, "invalid image upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperr.Validation(err, "invalid image upload")
	}
	if len(data) == 0 {
		return nil, apperr.Validation(nil, "image must not be empty")
	}
	return &ImageUpload{Filename: filename, Data: data}, nil
}
