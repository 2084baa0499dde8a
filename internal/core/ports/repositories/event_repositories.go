package repositories

import (
	"context"
	"time"

	"github.com/chartermate/charter-ledger/internal/core/domain"
)

// EventRepositoryFacade owns persistence of AccountingEvent rows.
// Status transitions are conditional updates: they only take effect while the
// row is still in a state the transition is allowed from, and report
// apperrors.ErrConflict otherwise.
type EventRepositoryFacade interface {
	// CreateEvent inserts a new event in PENDING state. A uniqueness violation
	// on (event type, source document) surfaces as apperrors.ErrDuplicate.
	CreateEvent(ctx context.Context, event domain.AccountingEvent) error

	// FindEventByID returns apperrors.ErrNotFound when the event does not exist.
	FindEventByID(ctx context.Context, eventID string) (*domain.AccountingEvent, error)

	// ExistsBySourceDocument reports whether any event with the given type and
	// source document exists, regardless of its status.
	ExistsBySourceDocument(ctx context.Context, eventType domain.EventType, sourceDocumentType, sourceDocumentID string) (bool, error)

	// MarkEventFailed records an error message and moves the event to FAILED.
	// Only valid while the event is PENDING or FAILED.
	MarkEventFailed(ctx context.Context, eventID, errorMessage, updatedBy string, updatedAt time.Time) error

	// MarkEventCancelled moves a PENDING or FAILED event to CANCELLED.
	MarkEventCancelled(ctx context.Context, eventID, updatedBy string, updatedAt time.Time) error

	// IncrementRetryCount bumps the retry counter of a FAILED event.
	IncrementRetryCount(ctx context.Context, eventID, updatedBy string, updatedAt time.Time) error

	// ListEvents returns a page of events, newest first, optionally filtered by
	// status and affected company, with a cursor token for the next page.
	ListEvents(ctx context.Context, status *domain.EventStatus, companyID string, limit int, nextToken *string) ([]domain.AccountingEvent, *string, error)
}
