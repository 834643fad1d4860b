package models

import "time"

// BoardStats summarises board activity since the process started.
type BoardStats struct {
	Pending                  int       `json:"pending"`
	Raised                   uint64    `json:"raised"`
	Resolved                 uint64    `json:"resolved"`
	Withdrawn                uint64    `json:"withdrawn"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
