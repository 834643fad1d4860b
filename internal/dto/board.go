package dto

import "github.com/noah-isme/classroom-signal-board/internal/models"

// Teacher actions offered on a pending request.
const (
	ActionSeen   = "seen"
	ActionAccept = "accept"
	ActionReject = "reject"
)

// RaiseRequest is the payload for raising a request from a catalog entry.
type RaiseRequest struct {
	Type string `json:"type" validate:"required"`
}

// Acknowledgment is the transient confirmation banner shown after raising.
type Acknowledgment struct {
	Message     string `json:"message"`
	HideAfterMs int64  `json:"hide_after_ms"`
}

// StudentBoard is everything the student view renders.
type StudentBoard struct {
	StudentName string                 `json:"student_name"`
	Buttons     []models.RequestType   `json:"buttons"`
	Requests    []models.RequestRecord `json:"requests"`
}

// RaiseResult is returned after a request was stored.
type RaiseResult struct {
	Request  models.RequestRecord   `json:"request"`
	Requests []models.RequestRecord `json:"requests"`
	Ack      Acknowledgment         `json:"ack"`
}

// TeacherBoardItem is one rendered row: a pending row carries actions, a
// resolved row carries a static indicator, never both.
type TeacherBoardItem struct {
	models.RequestRecord
	Actions   []string `json:"actions,omitempty"`
	Indicator string   `json:"indicator,omitempty"`
}

// TeacherBoard is everything the teacher view renders.
type TeacherBoard struct {
	Items        []TeacherBoardItem `json:"items"`
	PendingCount int                `json:"pending_count"`
}

// BoardEvent is pushed to websocket subscribers.
type BoardEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
