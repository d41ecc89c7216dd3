package audit

import (
	"context"
	"time"
)

// Action names a submission lifecycle action worth auditing.
type Action string

const (
	ActionFormSubmitted  Action = "form_submitted"
	ActionDraftSaved     Action = "draft_saved"
	ActionDraftDiscarded Action = "draft_discarded"
	ActionPoolIDRetired  Action = "pool_id_retired"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	ResponseID string    `json:"responseId,omitempty"`
	TemplateID string    `json:"templateId,omitempty"`
	// Subject is the record reference the action concerns.
	Subject   string `json:"subject,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	// Records counts the records written by the action.
	Records int    `json:"records,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can read events back.
type Lister interface {
	ListByResponse(ctx context.Context, responseID string) ([]Event, error)
}
