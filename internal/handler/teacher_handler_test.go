package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-signal-board/internal/dto"
	"github.com/noah-isme/classroom-signal-board/internal/middleware"
	"github.com/noah-isme/classroom-signal-board/internal/models"
	"github.com/noah-isme/classroom-signal-board/internal/service"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
	"github.com/noah-isme/classroom-signal-board/pkg/realtime"
)

type teacherServiceMock struct {
	resolved map[string]string
}

func (m *teacherServiceMock) Board(ctx context.Context) (*dto.TeacherBoard, error) {
	return &dto.TeacherBoard{
		Items: []dto.TeacherBoardItem{{
			RequestRecord: models.RequestRecord{ID: "r-1", StudentName: "Alice", Type: "urgent", Status: models.StatusPending},
			Actions:       []string{"seen"},
		}},
		PendingCount: 1,
	}, nil
}

func (m *teacherServiceMock) Resolve(ctx context.Context, id, action string) (*dto.TeacherBoard, error) {
	if id != "r-1" {
		return nil, appErrors.ErrNotFound
	}
	if m.resolved == nil {
		m.resolved = make(map[string]string)
	}
	if _, done := m.resolved[id]; done {
		return nil, appErrors.ErrAlreadyResolved
	}
	m.resolved[id] = action
	return &dto.TeacherBoard{}, nil
}

type exportServiceMock struct {
	format string
}

func (m *exportServiceMock) Export(ctx context.Context, format string) (*service.ExportResult, error) {
	m.format = format
	if format == "docx" {
		return nil, appErrors.ErrValidation
	}
	return &service.ExportResult{Filename: "requests.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("Student\n")}, nil
}

func teacherContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, target, nil)
	c.Set(middleware.ContextSessionKey, &models.SessionClaims{Role: models.RoleTeacher})
	return c, w
}

func TestTeacherHandlerResolve(t *testing.T) {
	svc := &teacherServiceMock{}
	handler := NewTeacherHandler(svc, nil, nil, nil)

	c, w := teacherContext(http.MethodPost, "/teacher/requests/r-1/accept")
	c.Params = gin.Params{{Key: "id", Value: "r-1"}, {Key: "action", Value: "accept"}}
	handler.Resolve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "accept", svc.resolved["r-1"])

	c, w = teacherContext(http.MethodPost, "/teacher/requests/r-1/reject")
	c.Params = gin.Params{{Key: "id", Value: "r-1"}, {Key: "action", Value: "reject"}}
	handler.Resolve(c)
	assert.Equal(t, http.StatusConflict, w.Code)

	c, w = teacherContext(http.MethodPost, "/teacher/requests/zzz/seen")
	c.Params = gin.Params{{Key: "id", Value: "zzz"}, {Key: "action", Value: "seen"}}
	handler.Resolve(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTeacherHandlerBoard(t *testing.T) {
	handler := NewTeacherHandler(&teacherServiceMock{}, nil, nil, nil)
	c, w := teacherContext(http.MethodGet, "/teacher/board")

	handler.Board(c)
	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.TeacherBoard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Items, 1)
	assert.Equal(t, []string{"seen"}, envelope.Data.Items[0].Actions)
}

func TestTeacherHandlerExport(t *testing.T) {
	exports := &exportServiceMock{}
	handler := NewTeacherHandler(&teacherServiceMock{}, exports, nil, nil)

	c, w := teacherContext(http.MethodGet, "/teacher/export?format=csv")
	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exports.format)
	assert.Equal(t, `attachment; filename="requests.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Student\n", w.Body.String())

	c, w = teacherContext(http.MethodGet, "/teacher/export?format=docx")
	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTeacherHandlerStats(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordRaised("urgent")
	handler := NewTeacherHandler(&teacherServiceMock{}, nil, metrics, nil)
	c, w := teacherContext(http.MethodGet, "/teacher/stats")

	handler.Stats(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"raised":1`)
}

func TestTeacherHandlerStreamSendsInitialBoard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := realtime.NewHub(nil, nil)
	defer hub.Close()
	handler := NewTeacherHandler(&teacherServiceMock{}, nil, nil, hub)

	router := gin.New()
	router.GET("/teacher/stream", handler.Stream)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/teacher/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type string           `json:"type"`
		Data dto.TeacherBoard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, service.EventTeacherBoard, event.Type)
	assert.Equal(t, 1, event.Data.PendingCount)

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, hub.Publish(service.TopicTeacher, []byte(`{"type":"teacher.board"}`)))
}
