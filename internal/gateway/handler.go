package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ahmad-alkadri/meme-depot/internal/httpserver"
)

type uploadRequest struct {
	Filename string `json:"filename" binding:"required"`
	Image    string `json:"image" binding:"required"`
}

type replaceRequest struct {
	Filename    string `json:"filename" binding:"required"`
	OldFilename string `json:"old_filename" binding:"required"`
	Image       string `json:"image" binding:"required"`
}

// HTTPHandler exposes the gateway service over HTTP.
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

// RegisterRoutes mounts the gateway endpoints on r.
func (h *HTTPHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/", h.Upload)
	r.PUT("/", h.Replace)
	r.DELETE("/:filename", h.Delete)
}

// Upload stores a new image and responds with its presigned URL as a JSON string.
func (h *HTTPHandler) Upload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpserver.AbortWithValidation(c, h.logger, err, "invalid parameters")
		return
	}

	data, err := DecodeImage(req.Image)
	if err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	imageURL, err := h.service.Upload(c.Request.Context(), req.Filename, data)
	if err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, imageURL)
}

// Replace stores an image under a new name and removes the old one.
func (h *HTTPHandler) Replace(c *gin.Context) {
	var req replaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpserver.AbortWithValidation(c, h.logger, err, "invalid parameters")
		return
	}

	data, err := DecodeImage(req.Image)
	if err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	imageURL, err := h.service.Replace(c.Request.Context(), req.Filename, req.OldFilename, data)
	if err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, imageURL)
}

func (h *HTTPHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("filename")); err != nil {
		httpserver.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
