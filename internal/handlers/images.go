package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pocketideas/api/internal/models"
	"pocketideas/api/internal/service"
)

type imageResponse struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"itemId"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	ByteSize    int64     `json:"byteSize"`
	Width       *int      `json:"width"`
	Height      *int      `json:"height"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toImageResponse(img models.ItemImage) imageResponse {
	return imageResponse{
		ID:          img.ID,
		ItemID:      img.ItemID,
		URL:         img.URL,
		ContentType: img.ContentType,
		ByteSize:    img.ByteSize,
		Width:       img.Width,
		Height:      img.Height,
		SortOrder:   img.SortOrder,
		CreatedAt:   img.CreatedAt,
	}
}

func (h HandlerSet) UploadImage(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Upload.MaxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	img, err := h.imageService.Upload(c.Request.Context(), service.UploadImageInput{
		ItemID: c.Param("id"),
		Data:   data,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image": toImageResponse(img)})
}

func (h HandlerSet) RemoveImage(c *gin.Context) {
	if err := h.imageService.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) ListImages(c *gin.Context) {
	images, err := h.imageService.ListForItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]imageResponse, 0, len(images))
	for _, img := range images {
		resp = append(resp, toImageResponse(img))
	}
	c.JSON(http.StatusOK, gin.H{"images": resp})
}

type reorderImagesRequest struct {
	ImageIDs []string `json:"imageIds" binding:"required"`
}

func (h HandlerSet) ReorderImages(c *gin.Context) {
	var req reorderImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.imageService.Reorder(c.Request.Context(), c.Param("id"), req.ImageIDs); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
