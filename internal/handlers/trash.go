package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pocketideas/api/internal/models"
)

type trashItemResponse struct {
	itemResponse
	DaysRemaining int `json:"daysRemaining"`
}

// TrashItem soft-deletes an item: it disappears from normal queries but
// stays recoverable until purged or the retention sweep removes it.
func (h HandlerSet) TrashItem(c *gin.Context) {
	item, err := h.itemService.SoftDelete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": toItemResponse(item)})
}

func (h HandlerSet) ListTrash(c *gin.Context) {
	items, err := h.itemService.TrashItems(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]trashItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, trashItemResponse{
			itemResponse:  toItemResponse(item),
			DaysRemaining: h.daysRemaining(item),
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": resp})
}

func (h HandlerSet) RestoreFromTrash(c *gin.Context) {
	item, err := h.itemService.RestoreFromTrash(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": toItemResponse(item)})
}

func (h HandlerSet) PurgeItem(c *gin.Context) {
	if err := h.itemService.Purge(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) EmptyTrash(c *gin.Context) {
	purged, err := h.itemService.EmptyTrash(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"purged": purged})
}

func (h HandlerSet) daysRemaining(item models.Item) int {
	if item.DeletedAt == nil {
		return 0
	}
	expiry := item.DeletedAt.Add(h.cfg.Retention.TrashTTL)
	remaining := int(time.Until(expiry).Hours() / 24)
	if remaining < 0 {
		return 0
	}
	return remaining
}
