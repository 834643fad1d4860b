package models

import "github.com/golang-jwt/jwt/v5"

// SessionRole distinguishes the two board views.
type SessionRole string

const (
	RoleStudent SessionRole = "student"
	RoleTeacher SessionRole = "teacher"
)

// SessionClaims is carried by board session tokens. For students Name is the
// display name every raised request is filed under.
type SessionClaims struct {
	Name string      `json:"name,omitempty"`
	Role SessionRole `json:"role"`
	jwt.RegisteredClaims
}
