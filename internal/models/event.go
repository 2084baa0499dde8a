package models

import "time"

// EventStatus mirrors the accounting_events.status column.
type EventStatus string

const (
	EventPending   EventStatus = "PENDING"
	EventProcessed EventStatus = "PROCESSED"
	EventFailed    EventStatus = "FAILED"
	EventCancelled EventStatus = "CANCELLED"
)

// AccountingEvent is the persistence representation of an accounting event row.
type AccountingEvent struct {
	EventID            string
	EventType          string
	EventDate          time.Time
	Status             EventStatus
	SourceDocumentType *string // nullable: not every event has a natural source document
	SourceDocumentID   *string
	AffectedCompanies  []string
	EventData          []byte // JSONB
	ProcessedAt        *time.Time
	ErrorMessage       *string
	RetryCount         int
	AuditFields
}
