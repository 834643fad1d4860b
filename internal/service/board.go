package service

import (
	"sort"

	"github.com/noah-isme/classroom-signal-board/internal/dto"
	"github.com/noah-isme/classroom-signal-board/internal/models"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
)

// SortRecords orders records by priority ascending, newest first within a
// priority. The input slice is not modified.
func SortRecords(records []models.RequestRecord) []models.RequestRecord {
	sorted := append([]models.RequestRecord(nil), records...)
	if sorted == nil {
		sorted = []models.RequestRecord{}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].Timestamp > sorted[j].Timestamp
	})
	return sorted
}

// FilterByStudent keeps the records whose studentName equals name exactly.
func FilterByStudent(records []models.RequestRecord, name string) []models.RequestRecord {
	filtered := make([]models.RequestRecord, 0, len(records))
	for _, record := range records {
		if record.StudentName == name {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// StatusForAction maps a teacher control to the status it sets.
func StatusForAction(action string) (models.RequestStatus, bool) {
	switch action {
	case dto.ActionSeen:
		return models.StatusSeen, true
	case dto.ActionAccept:
		return models.StatusAccepted, true
	case dto.ActionReject:
		return models.StatusRejected, true
	default:
		return "", false
	}
}

// Transition moves a pending record to a terminal status. Any terminal
// status may be forced regardless of the controls the category offers.
func Transition(record *models.RequestRecord, status models.RequestStatus) error {
	if record.Status != models.StatusPending {
		return appErrors.ErrAlreadyResolved
	}
	if !status.Terminal() {
		return appErrors.Clone(appErrors.ErrValidation, "status must be seen, accepted or rejected")
	}
	record.Status = status
	return nil
}

func indexByID(records []models.RequestRecord, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

func countPending(records []models.RequestRecord) int {
	pending := 0
	for _, record := range records {
		if record.Status == models.StatusPending {
			pending++
		}
	}
	return pending
}
