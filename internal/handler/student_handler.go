package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-signal-board/internal/dto"
	"github.com/noah-isme/classroom-signal-board/internal/models"
	"github.com/noah-isme/classroom-signal-board/internal/service"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
	"github.com/noah-isme/classroom-signal-board/pkg/response"
)

type studentService interface {
	Board(ctx context.Context, student string) (*dto.StudentBoard, error)
	Raise(ctx context.Context, student string, req dto.RaiseRequest) (*dto.RaiseResult, error)
	Withdraw(ctx context.Context, student, id string, confirmed bool) ([]models.RequestRecord, error)
}

// streamHub upgrades a request to a websocket subscribed to topic.
type streamHub interface {
	Serve(w http.ResponseWriter, r *http.Request, topic string, initial []byte) error
}

// StudentHandler exposes the student board.
type StudentHandler struct {
	service studentService
	hub     streamHub
}

// NewStudentHandler builds a student handler. hub may be nil to disable streaming.
func NewStudentHandler(service studentService, hub streamHub) *StudentHandler {
	return &StudentHandler{service: service, hub: hub}
}

// Board godoc
// @Summary Student board
// @Description Catalog buttons and the student's own requests, sorted by priority then newest first.
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/board [get]
func (h *StudentHandler) Board(c *gin.Context) {
	board, err := h.service.Board(c.Request.Context(), studentName(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board)
}

// Raise godoc
// @Summary Raise a request
// @Tags Student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RaiseRequest true "Request type"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/requests [post]
func (h *StudentHandler) Raise(c *gin.Context) {
	var req dto.RaiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	result, err := h.service.Raise(c.Request.Context(), studentName(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Withdraw godoc
// @Summary Withdraw an own request
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param confirm query bool true "Explicit confirmation"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /student/requests/{id} [delete]
func (h *StudentHandler) Withdraw(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	remaining, err := h.service.Withdraw(c.Request.Context(), studentName(c), c.Param("id"), confirmed)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, remaining)
}

// Stream godoc
// @Summary Stream the student's own requests
// @Description Websocket pushing the student's requests whenever the board changes. Pass the session token as ?token=.
// @Tags Student
// @Param token query string true "Session token"
// @Success 101
// @Router /student/stream [get]
func (h *StudentHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "streaming disabled"))
		return
	}
	name := studentName(c)
	board, err := h.service.Board(c.Request.Context(), name)
	if err != nil {
		response.Error(c, err)
		return
	}
	initial, err := service.StudentEvent(board.Requests)
	if err != nil {
		response.Error(c, err)
		return
	}
	_ = h.hub.Serve(c.Writer, c.Request, service.StudentTopic(name), initial)
}
