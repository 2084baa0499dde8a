package services

import (
	"context"

	"github.com/chartermate/charter-ledger/internal/core/domain"
	"github.com/chartermate/charter-ledger/internal/dto"
)

// EventSvcFacade is the Event Processor's public surface, exposed to the
// booking/expense/receipt workflows. Business-logic failures while processing
// are reported inside EventProcessResult; returned errors are reserved for
// conditions like an unknown event ID or a duplicate creation attempt.
type EventSvcFacade interface {
	// CreateAndProcess creates the event in PENDING state and immediately
	// processes it. The returned event reflects the post-processing state.
	CreateAndProcess(ctx context.Context, req dto.CreateEventRequest, creatorUserID string) (*domain.AccountingEvent, domain.EventProcessResult, error)

	// ProcessEvent runs rule evaluation and posting for a PENDING or FAILED event.
	ProcessEvent(ctx context.Context, eventID, userID string) (domain.EventProcessResult, error)

	// RetryEvent re-processes a FAILED event, incrementing its retry count.
	RetryEvent(ctx context.Context, eventID, userID string) (domain.EventProcessResult, error)

	// CancelEvent terminally cancels a PENDING or FAILED event. No journals are posted.
	CancelEvent(ctx context.Context, eventID, userID string) error

	// CheckDuplicate reports whether an event with the given type and source
	// document already exists, regardless of that event's status.
	CheckDuplicate(ctx context.Context, eventType domain.EventType, sourceDocumentType, sourceDocumentID string) (bool, error)

	// GetEvent loads a single event.
	GetEvent(ctx context.Context, eventID string) (*domain.AccountingEvent, error)

	// GetEventJournals returns the journal entries (with lines) linked to the event.
	GetEventJournals(ctx context.Context, eventID string) ([]domain.JournalEntry, error)

	// ListEvents returns a paginated event listing for operator screens.
	ListEvents(ctx context.Context, params dto.ListEventsParams) (*dto.ListEventsResponse, error)
}

// ServiceContainer bundles the service facades handed to the HTTP layer.
type ServiceContainer struct {
	Event EventSvcFacade
}
