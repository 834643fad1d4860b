package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-signal-board/internal/dto"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
)

type sessionServiceMock struct {
	studentReq dto.StudentSessionRequest
	teacherReq dto.TeacherSessionRequest
}

func (m *sessionServiceMock) StartStudent(ctx context.Context, req dto.StudentSessionRequest) (*dto.SessionResponse, error) {
	m.studentReq = req
	return &dto.SessionResponse{Token: "token", Role: "student", Name: req.Name, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *sessionServiceMock) StartTeacher(ctx context.Context, req dto.TeacherSessionRequest) (*dto.SessionResponse, error) {
	m.teacherReq = req
	if req.PIN != "1234" {
		return nil, appErrors.ErrInvalidPIN
	}
	return &dto.SessionResponse{Token: "token", Role: "teacher"}, nil
}

func postJSON(handler gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/session", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	handler(c)
	return w
}

func TestSessionHandlerStartStudent(t *testing.T) {
	svc := &sessionServiceMock{}
	handler := NewSessionHandler(svc)

	w := postJSON(handler.StartStudent, `{"name":"Alice"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Alice", svc.studentReq.Name)
	assert.Contains(t, w.Body.String(), `"token":"token"`)

	w = postJSON(handler.StartStudent, `nope`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerStartTeacher(t *testing.T) {
	handler := NewSessionHandler(&sessionServiceMock{})

	assert.Equal(t, http.StatusCreated, postJSON(handler.StartTeacher, `{"pin":"1234"}`).Code)
	w := postJSON(handler.StartTeacher, `{"pin":"0000"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_PIN")
}
