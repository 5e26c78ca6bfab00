package dto

import (
	"encoding/json"
	"time"
)

// Event kinds pushed to dashboard viewers.
const (
	EventReportSubmitted = "report_submitted"
	EventReportAnalyzed  = "report_analyzed"
	EventReportReviewed  = "report_reviewed"
	EventCleanupReviewed = "cleanup_reviewed"
)

// ReviewEvent is broadcast over the websocket hub whenever a record changes state.
type ReviewEvent struct {
	Type          string    `json:"type"`
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Status        string    `json:"status"`
	PointsAwarded int       `json:"pointsAwarded,omitempty"`
	ObjectsCount  int       `json:"objectsCount,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// MarshalJSON formats the timestamp as RFC 3339 in UTC.
func (e ReviewEvent) MarshalJSON() ([]byte, error) {
	type Alias ReviewEvent
	return json.Marshal(&struct {
		Timestamp string `json:"timestamp"`
		Alias
	}{
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		Alias:     (Alias)(e),
	})
}
