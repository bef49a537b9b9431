// Package events defines the dispatch event and the publishers that emit it.
package events

// Dispatch statuses carried by BulkActionEvent.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BulkActionEvent is emitted after a bulk action handler has run.
type BulkActionEvent struct {
	ObjectType    string `json:"objectType"`
	ObjectSubtype string `json:"objectSubtype"`
	Action        string `json:"action"`
	Status        string `json:"status"`
	Count         int    `json:"count"`
	IDs           []int  `json:"ids"`
	Message       string `json:"message,omitempty"`
	ActorID       string `json:"actorId,omitempty"`
	DurationMs    int64  `json:"durationMs"`
	Timestamp     string `json:"timestamp"`
}
