package models

// RequestCategory tells whether a request needs a decision or only an acknowledgment.
type RequestCategory string

const (
	CategoryRequest RequestCategory = "request"
	CategoryStatus  RequestCategory = "status"
)

// RequestStatus captures the lifecycle of a raised request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusSeen     RequestStatus = "seen"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// Terminal reports whether no further transition may leave the status.
func (s RequestStatus) Terminal() bool {
	switch s {
	case StatusSeen, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// Label is the static indicator shown for a resolved request.
func (s RequestStatus) Label() string {
	switch s {
	case StatusSeen:
		return "Seen"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	default:
		return "Pending"
	}
}

// RequestType is one catalog entry a student can raise.
type RequestType struct {
	Type     string          `json:"type"`
	Icon     string          `json:"icon"`
	Message  string          `json:"message"`
	Category RequestCategory `json:"category"`
	Priority int             `json:"priority"`
}

// RequestRecord is a raised request as persisted in the shared store.
// The JSON shape is the one the browser views read and write.
type RequestRecord struct {
	ID          string          `json:"id"`
	StudentName string          `json:"studentName"`
	Type        string          `json:"type"`
	Icon        string          `json:"icon"`
	Message     string          `json:"message"`
	Category    RequestCategory `json:"category"`
	Priority    int             `json:"priority"`
	Status      RequestStatus   `json:"status"`
	DisplayTime string          `json:"displayTime"`
	Timestamp   int64           `json:"timestamp"`
}
