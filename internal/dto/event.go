package dto

import (
	"encoding/json"
	"time"

	"github.com/chartermate/charter-ledger/internal/core/domain"
)

// CreateEventRequest is the payload for creating and processing an accounting event.
type CreateEventRequest struct {
	EventType          domain.EventType `json:"eventType" binding:"required"`
	EventDate          time.Time        `json:"eventDate" binding:"required"`
	AffectedCompanies  []string         `json:"affectedCompanies" binding:"required,min=1"`
	EventData          json.RawMessage  `json:"eventData" binding:"required"`
	SourceDocumentType string           `json:"sourceDocumentType"`
	SourceDocumentID   string           `json:"sourceDocumentID"`
}

// EventResponse defines the data returned for an accounting event.
type EventResponse struct {
	EventID            string          `json:"eventID"`
	EventType          string          `json:"eventType"`
	EventDate          time.Time       `json:"eventDate"`
	Status             string          `json:"status"`
	SourceDocumentType string          `json:"sourceDocumentType,omitempty"`
	SourceDocumentID   string          `json:"sourceDocumentID,omitempty"`
	AffectedCompanies  []string        `json:"affectedCompanies"`
	EventData          json.RawMessage `json:"eventData,omitempty"`
	ProcessedAt        *time.Time      `json:"processedAt,omitempty"`
	ErrorMessage       string          `json:"errorMessage,omitempty"`
	RetryCount         int             `json:"retryCount"`
	CreatedAt          time.Time       `json:"createdAt"`
	CreatedBy          string          `json:"createdBy"`
}

// ProcessResultResponse reports the processing outcome alongside the event.
type ProcessResultResponse struct {
	Success         bool     `json:"success"`
	JournalEntryIDs []string `json:"journalEntryIDs,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// CreateEventResponse combines the stored event with its processing result.
type CreateEventResponse struct {
	Event  EventResponse         `json:"event"`
	Result ProcessResultResponse `json:"result"`
}

// ListEventsParams holds query parameters for listing events.
type ListEventsParams struct {
	Status    *string `form:"status"`
	CompanyID string  `form:"companyID"`
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListEventsResponse is a single page of events plus the cursor for the next page.
type ListEventsResponse struct {
	Events    []EventResponse `json:"events"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToEventResponse converts a domain AccountingEvent to its response DTO.
func ToEventResponse(e *domain.AccountingEvent) EventResponse {
	return EventResponse{
		EventID:            e.EventID,
		EventType:          string(e.EventType),
		EventDate:          e.EventDate,
		Status:             string(e.Status),
		SourceDocumentType: e.SourceDocumentType,
		SourceDocumentID:   e.SourceDocumentID,
		AffectedCompanies:  e.AffectedCompanies,
		EventData:          e.EventData,
		ProcessedAt:        e.ProcessedAt,
		ErrorMessage:       e.ErrorMessage,
		RetryCount:         e.RetryCount,
		CreatedAt:          e.CreatedAt,
		CreatedBy:          e.CreatedBy,
	}
}

// ToProcessResultResponse converts a domain EventProcessResult to its response DTO.
func ToProcessResultResponse(r domain.EventProcessResult) ProcessResultResponse {
	return ProcessResultResponse{
		Success:         r.Success,
		JournalEntryIDs: r.JournalEntryIDs,
		Error:           r.Error,
	}
}
