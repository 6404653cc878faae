package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) ExportAll(c *gin.Context) {
	export, err := h.exportService.ExportAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="pocketideas-export.json"`)
	c.JSON(http.StatusOK, export)
}
