package service

import (
	"sort"

	"github.com/noah-isme/classroom-signal-board/internal/dto"
	"github.com/noah-isme/classroom-signal-board/internal/models"
)

// DefaultRequestTypes is the catalog students pick from.
var DefaultRequestTypes = []models.RequestType{
	{Type: "urgent", Icon: "🚨", Message: "Urgent!", Category: models.CategoryRequest, Priority: 1},
	{Type: "needHelp", Icon: "🆘", Message: "I need help", Category: models.CategoryRequest, Priority: 2},
	{Type: "notFeelingWell", Icon: "🤒", Message: "Not feeling well", Category: models.CategoryRequest, Priority: 3},
	{Type: "restroom", Icon: "🚻", Message: "Restroom", Category: models.CategoryRequest, Priority: 4},
	{Type: "didntUnderstand", Icon: "❓", Message: "Didn't understand", Category: models.CategoryStatus, Priority: 5},
	{Type: "understood", Icon: "✅", Message: "Understood!", Category: models.CategoryStatus, Priority: 6},
}

// urgentAckOnlyCount is how many of the most urgent request types only get
// a "seen" control when the urgent exception is enabled.
const urgentAckOnlyCount = 2

// CatalogService answers questions about the static request catalog.
type CatalogService struct {
	ordered []models.RequestType
	byType  map[string]models.RequestType
	ackOnly map[string]bool
}

// NewCatalogService builds the catalog. A nil or empty types slice falls back
// to DefaultRequestTypes.
func NewCatalogService(types []models.RequestType, urgentAckOnly bool) *CatalogService {
	if len(types) == 0 {
		types = DefaultRequestTypes
	}
	ordered := append([]models.RequestType(nil), types...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].Type < ordered[j].Type
	})

	svc := &CatalogService{
		ordered: ordered,
		byType:  make(map[string]models.RequestType, len(ordered)),
		ackOnly: make(map[string]bool, len(ordered)),
	}
	urgent := 0
	for _, def := range ordered {
		svc.byType[def.Type] = def
		switch {
		case def.Category == models.CategoryStatus:
			svc.ackOnly[def.Type] = true
		case urgentAckOnly && urgent < urgentAckOnlyCount:
			svc.ackOnly[def.Type] = true
			urgent++
		}
	}
	return svc
}

// List returns the catalog ordered by ascending priority.
func (s *CatalogService) List() []models.RequestType {
	return append([]models.RequestType(nil), s.ordered...)
}

// Lookup resolves a request type identifier.
func (s *CatalogService) Lookup(requestType string) (models.RequestType, bool) {
	def, ok := s.byType[requestType]
	return def, ok
}

// AckOnly reports whether a pending request of this type is only acknowledged
// instead of accepted or rejected. Unknown types fall back to their category
// on the record, see ActionsFor.
func (s *CatalogService) AckOnly(requestType string) bool {
	return s.ackOnly[requestType]
}

// ActionsFor returns the controls offered on a pending record.
func (s *CatalogService) ActionsFor(record models.RequestRecord) []string {
	if s.AckOnly(record.Type) {
		return []string{dto.ActionSeen}
	}
	if _, known := s.byType[record.Type]; !known && record.Category == models.CategoryStatus {
		return []string{dto.ActionSeen}
	}
	return []string{dto.ActionAccept, dto.ActionReject}
}
