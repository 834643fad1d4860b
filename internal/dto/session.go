package dto

import "time"

// StudentSessionRequest starts a student session under a display name.
type StudentSessionRequest struct {
	Name string `json:"name" validate:"required"`
}

// TeacherSessionRequest starts a teacher session.
type TeacherSessionRequest struct {
	PIN string `json:"pin"`
}

// SessionResponse carries the signed session token.
type SessionResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}
