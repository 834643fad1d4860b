package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-signal-board/internal/dto"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
	"github.com/noah-isme/classroom-signal-board/pkg/response"
)

type sessionService interface {
	StartStudent(ctx context.Context, req dto.StudentSessionRequest) (*dto.SessionResponse, error)
	StartTeacher(ctx context.Context, req dto.TeacherSessionRequest) (*dto.SessionResponse, error)
}

// SessionHandler exposes the entry view endpoints.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler builds a session handler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// StartStudent godoc
// @Summary Start a student session
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body dto.StudentSessionRequest true "Student name"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /session/student [post]
func (h *SessionHandler) StartStudent(c *gin.Context) {
	var req dto.StudentSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	session, err := h.service.StartStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// StartTeacher godoc
// @Summary Start a teacher session
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body dto.TeacherSessionRequest true "Teacher PIN"
// @Success 201 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session/teacher [post]
func (h *SessionHandler) StartTeacher(c *gin.Context) {
	var req dto.TeacherSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
			return
		}
	}
	session, err := h.service.StartTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}
