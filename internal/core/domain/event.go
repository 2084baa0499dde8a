package domain

import (
	"encoding/json"
	"time"
)

// EventType identifies which posting rule applies to an accounting event.
type EventType string

const (
	EventExpenseApproved         EventType = "EXPENSE_APPROVED"
	EventExpensePaid             EventType = "EXPENSE_PAID"
	EventExpensePaidIntercompany EventType = "EXPENSE_PAID_INTERCOMPANY"
	EventReceiptIssued           EventType = "RECEIPT_ISSUED"
)

// EventStatus indicates the processing state of an accounting event.
type EventStatus string

const (
	EventPending   EventStatus = "PENDING"
	EventProcessed EventStatus = "PROCESSED"
	EventFailed    EventStatus = "FAILED"
	EventCancelled EventStatus = "CANCELLED"
)

// CanProcess reports whether an event in this status may be (re)processed.
func (s EventStatus) CanProcess() bool {
	return s == EventPending || s == EventFailed
}

// IsTerminal reports whether no further transition is permitted from this status.
func (s EventStatus) IsTerminal() bool {
	return s == EventProcessed || s == EventCancelled
}

// AccountingEvent is a persisted business fact awaiting conversion into
// balanced journal entries. Once PROCESSED or CANCELLED it is never mutated.
type AccountingEvent struct {
	EventID            string          `json:"eventID"`
	EventType          EventType       `json:"eventType"`
	EventDate          time.Time       `json:"eventDate"` // accounting date stamped on resulting journals
	Status             EventStatus     `json:"status"`
	SourceDocumentType string          `json:"sourceDocumentType"` // e.g. "expense", "receipt"
	SourceDocumentID   string          `json:"sourceDocumentID"`
	AffectedCompanies  []string        `json:"affectedCompanies"` // >= 2 entries for intercompany events
	EventData          json.RawMessage `json:"eventData"`         // one payload shape per EventType
	ProcessedAt        *time.Time      `json:"processedAt"`
	ErrorMessage       string          `json:"errorMessage"`
	RetryCount         int             `json:"retryCount"`
	AuditFields
}

// EventProcessResult reports the outcome of processing a single event.
// Business failures are carried in Error rather than returned as Go errors.
type EventProcessResult struct {
	Success         bool     `json:"success"`
	JournalEntryIDs []string `json:"journalEntryIDs,omitempty"`
	Error           string   `json:"error,omitempty"`
}
