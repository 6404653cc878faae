package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pocketideas/api/internal/middleware"
	"pocketideas/api/internal/models"
	"pocketideas/api/internal/repository"
	"pocketideas/api/internal/service"
)

type itemResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Type        string     `json:"type"`
	Description *string    `json:"description"`
	Priority    int        `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
	Pinned      bool       `json:"pinned"`
	Version     int        `json:"version"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	CreatedByID string     `json:"createdById"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toItemResponse(item models.Item) itemResponse {
	return itemResponse{
		ID:          item.ID,
		Title:       item.Title,
		Type:        string(item.Type),
		Description: item.Description,
		Priority:    item.Priority,
		Status:      string(item.Status),
		DueDate:     item.DueDate,
		Tags:        item.Tags,
		Pinned:      item.Pinned,
		Version:     item.Version,
		DeletedAt:   item.DeletedAt,
		CreatedByID: item.CreatedByID,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

type createItemRequest struct {
	Title       string     `json:"title" binding:"required"`
	Type        string     `json:"type" binding:"required"`
	Description *string    `json:"description"`
	Priority    *int       `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
	Pinned      bool       `json:"pinned"`
}

func (h HandlerSet) CreateItem(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.itemService.Create(c.Request.Context(), user.ID, service.CreateItemInput{
		Title:       req.Title,
		Type:        models.ItemType(req.Type),
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
		Pinned:      req.Pinned,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": toItemResponse(item)})
}

type updateItemRequest struct {
	Title            *string    `json:"title"`
	Type             *string    `json:"type"`
	Description      *string    `json:"description"`
	ClearDescription bool       `json:"clearDescription"`
	Priority         *int       `json:"priority"`
	Status           *string    `json:"status"`
	DueDate          *time.Time `json:"dueDate"`
	ClearDueDate     bool       `json:"clearDueDate"`
	Tags             *[]string  `json:"tags"`
	Pinned           *bool      `json:"pinned"`
	ExpectedVersion  *int       `json:"expectedVersion"`
}

func (h HandlerSet) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.UpdateItemInput{
		Title:            req.Title,
		Description:      req.Description,
		ClearDescription: req.ClearDescription,
		Priority:         req.Priority,
		DueDate:          req.DueDate,
		ClearDueDate:     req.ClearDueDate,
		Tags:             req.Tags,
		Pinned:           req.Pinned,
	}
	if req.Type != nil {
		itemType := models.ItemType(*req.Type)
		input.Type = &itemType
	}
	if req.Status != nil {
		status := models.ItemStatus(*req.Status)
		input.Status = &status
	}

	result, err := h.itemService.Update(c.Request.Context(), c.Param("id"), input, req.ExpectedVersion)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if result.Conflict {
		c.JSON(http.StatusConflict, gin.H{
			"conflict":       true,
			"currentVersion": result.CurrentVersion,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": toItemResponse(result.Item)})
}

func (h HandlerSet) GetItem(c *gin.Context) {
	item, err := h.itemService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": toItemResponse(item)})
}

func (h HandlerSet) ListItems(c *gin.Context) {
	filter := repository.ItemFilter{
		Search: c.Query("search"),
	}

	switch status := c.Query("status"); {
	case status == "all":
		filter.StatusAll = true
	case status != "":
		itemStatus := models.ItemStatus(strings.ToUpper(status))
		filter.Status = &itemStatus
	}

	if itemType := c.Query("type"); itemType != "" {
		t := models.ItemType(strings.ToUpper(itemType))
		filter.Type = &t
	}
	if tags := c.Query("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}
	if pinned := c.Query("pinned"); pinned != "" {
		value := pinned == "true"
		filter.Pinned = &value
	}

	sort := repository.ItemSort{
		Field:      repository.SortByUpdatedAt,
		Descending: true,
	}
	if field := c.Query("sort"); field != "" {
		sort.Field = repository.SortField(field)
	}
	if order := c.Query("order"); order != "" {
		sort.Descending = order != "asc"
	}

	items, err := h.itemService.List(c.Request.Context(), filter, sort)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toItemResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{"items": resp})
}

func (h HandlerSet) MarkDone(c *gin.Context) {
	h.respondTransition(c, h.itemService.MarkDone)
}

func (h HandlerSet) RestoreItem(c *gin.Context) {
	h.respondTransition(c, h.itemService.Restore)
}

func (h HandlerSet) ArchiveItem(c *gin.Context) {
	h.respondTransition(c, h.itemService.Archive)
}

func (h HandlerSet) TogglePinned(c *gin.Context) {
	h.respondTransition(c, h.itemService.TogglePinned)
}

func (h HandlerSet) respondTransition(c *gin.Context, op func(ctx context.Context, id string) (models.Item, error)) {
	item, err := op(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": toItemResponse(item)})
}
