package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-signal-board/internal/dto"
	"github.com/noah-isme/classroom-signal-board/internal/models"
	"github.com/noah-isme/classroom-signal-board/internal/service"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
	"github.com/noah-isme/classroom-signal-board/pkg/response"
)

type teacherService interface {
	Board(ctx context.Context) (*dto.TeacherBoard, error)
	Resolve(ctx context.Context, id, action string) (*dto.TeacherBoard, error)
}

type exportService interface {
	Export(ctx context.Context, format string) (*service.ExportResult, error)
}

type statsProvider interface {
	Snapshot() models.BoardStats
}

// TeacherHandler exposes the teacher board.
type TeacherHandler struct {
	service teacherService
	exports exportService
	stats   statsProvider
	hub     streamHub
}

// NewTeacherHandler builds a teacher handler. exports, stats and hub are optional.
func NewTeacherHandler(service teacherService, exports exportService, stats statsProvider, hub streamHub) *TeacherHandler {
	return &TeacherHandler{service: service, exports: exports, stats: stats, hub: hub}
}

// Board godoc
// @Summary Teacher board
// @Description Every request sorted by priority then newest first. Pending rows carry actions, resolved rows an indicator.
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teacher/board [get]
func (h *TeacherHandler) Board(c *gin.Context) {
	board, err := h.service.Board(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board)
}

// Resolve godoc
// @Summary Resolve a pending request
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param action path string true "seen, accept or reject"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher/requests/{id}/{action} [post]
func (h *TeacherHandler) Resolve(c *gin.Context) {
	board, err := h.service.Resolve(c.Request.Context(), c.Param("id"), c.Param("action"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board)
}

// Export godoc
// @Summary Download the board
// @Tags Teacher
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Success 200 {file} file
// @Router /teacher/export [get]
func (h *TeacherHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export disabled"))
		return
	}
	result, err := h.exports.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

// Stats godoc
// @Summary Board activity since start
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teacher/stats [get]
func (h *TeacherHandler) Stats(c *gin.Context) {
	if h.stats == nil {
		response.JSON(c, http.StatusOK, models.BoardStats{})
		return
	}
	response.JSON(c, http.StatusOK, h.stats.Snapshot())
}

// Stream godoc
// @Summary Stream the teacher board
// @Description Websocket pushing the full board whenever it changes. Pass the session token as ?token=.
// @Tags Teacher
// @Param token query string true "Session token"
// @Success 101
// @Router /teacher/stream [get]
func (h *TeacherHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "streaming disabled"))
		return
	}
	board, err := h.service.Board(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	initial, err := service.TeacherEvent(board)
	if err != nil {
		response.Error(c, err)
		return
	}
	_ = h.hub.Serve(c.Writer, c.Request, service.TopicTeacher, initial)
}
