package repositories

import (
	"context"

	"github.com/chartermate/charter-ledger/internal/core/domain"
)

// JournalPosterFacade is the single writer of auto-generated journal entries.
type JournalPosterFacade interface {
	// PostJournals persists, as one atomic unit: a journal header per planned
	// entry, all lines, one event link per header, and the event's transition
	// to PROCESSED. Either everything is visible afterwards or nothing is.
	// An unbalanced plan is rejected (apperrors.ErrUnbalanced) before any
	// write; a CAS miss on the event status reports apperrors.ErrConflict.
	// Returns the created journal entry IDs in plan order.
	PostJournals(ctx context.Context, event domain.AccountingEvent, plan domain.JournalPostingPlan) ([]string, error)
}

// JournalRepositoryFacade adds read access to posted journals.
type JournalRepositoryFacade interface {
	JournalPosterFacade

	// FindJournalEntryByID loads a header with its lines.
	FindJournalEntryByID(ctx context.Context, journalEntryID string) (*domain.JournalEntry, error)

	// FindJournalEntriesByEventID loads every header (with lines) linked to the event.
	FindJournalEntriesByEventID(ctx context.Context, eventID string) ([]domain.JournalEntry, error)
}
