package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pocketideas/api/internal/models"
	"pocketideas/api/internal/service"
)

type linkResponse struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"itemId"`
	Title       *string   `json:"title"`
	URL         string    `json:"url"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toLinkResponse(link models.ItemLink) linkResponse {
	return linkResponse{
		ID:          link.ID,
		ItemID:      link.ItemID,
		Title:       link.Title,
		URL:         link.URL,
		Description: link.Description,
		ImageURL:    link.ImageURL,
		CreatedAt:   link.CreatedAt,
	}
}

type addLinkRequest struct {
	Title *string `json:"title"`
	URL   string  `json:"url" binding:"required"`
}

func (h HandlerSet) AddLink(c *gin.Context) {
	var req addLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.linkService.Add(c.Request.Context(), service.AddLinkInput{
		ItemID: c.Param("id"),
		Title:  req.Title,
		URL:    req.URL,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"link": toLinkResponse(link)})
}

func (h HandlerSet) RemoveLink(c *gin.Context) {
	if err := h.linkService.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) ListLinks(c *gin.Context) {
	links, err := h.linkService.ListForItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]linkResponse, 0, len(links))
	for _, link := range links {
		resp = append(resp, toLinkResponse(link))
	}
	c.JSON(http.StatusOK, gin.H{"links": resp})
}
