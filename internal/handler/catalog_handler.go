package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-signal-board/internal/models"
	"github.com/noah-isme/classroom-signal-board/pkg/response"
)

type catalogService interface {
	List() []models.RequestType
}

// CatalogHandler serves the request catalog.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler builds a catalog handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// List godoc
// @Summary List request types
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.List())
}
