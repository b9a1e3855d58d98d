// Package messaging публикует и потребляет события заявок через RabbitMQ.
package messaging

import "time"

// Типы событий заявок.
const (
	EventSubmissionCreated       = "submission.created"
	EventSubmissionStatusChanged = "submission.status_changed"
)

// SubmissionEvent - сообщение в очереди событий заявок.
type SubmissionEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	SubmissionID   string    `json:"submission_id"`
	Reference      string    `json:"reference"`
	ToolName       string    `json:"tool_name"`
	UserID         string    `json:"user_id,omitempty"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	AmountPaid     float64   `json:"amount_paid"`
	OccurredAt     time.Time `json:"occurred_at"`
}
