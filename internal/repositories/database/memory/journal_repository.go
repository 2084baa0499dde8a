package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/chartermate/charter-ledger/internal/apperrors"
	"github.com/chartermate/charter-ledger/internal/core/domain"
	portsrepo "github.com/chartermate/charter-ledger/internal/core/ports/repositories"
	"github.com/chartermate/charter-ledger/internal/utils/accounting"
	"github.com/google/uuid"
)

type journalRepository struct {
	store *Store
}

var _ portsrepo.JournalRepositoryFacade = (*journalRepository)(nil)

// PostJournals stages headers, lines and links for the whole plan and then
// publishes them together with the event's PROCESSED transition. The
// FailBeforeCommit hook fires after staging so tests can assert that an
// aborted posting leaves nothing behind.
func (r *journalRepository) PostJournals(_ context.Context, event domain.AccountingEvent, plan domain.JournalPostingPlan) ([]string, error) {
	if err := accounting.ValidatePlanBalance(plan); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.events[event.EventID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if !stored.Status.CanProcess() {
		return nil, apperrors.NewAppError(409, "event "+event.EventID+" was processed or cancelled concurrently", apperrors.ErrConflict)
	}

	now := time.Now().UTC()
	staged := make([]domain.JournalEntry, 0, len(plan))
	stagedLinks := make([]domain.EventJournalEntryLink, 0, len(plan))
	journalIDs := make([]string, 0, len(plan))

	for _, planned := range plan {
		entry := domain.JournalEntry{
			JournalEntryID:     uuid.NewString(),
			ReferenceNumber:    fmt.Sprintf("JE-%s-%s", event.EventDate.Format("20060102"), uuid.NewString()[:8]),
			EntryDate:          event.EventDate,
			CompanyID:          planned.CompanyID,
			Description:        planned.Description,
			Status:             domain.Posted,
			TotalDebit:         planned.TotalDebit(),
			TotalCredit:        planned.TotalCredit(),
			SourceDocumentType: event.SourceDocumentType,
			SourceDocumentID:   event.SourceDocumentID,
			IsAutoGenerated:    true,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     event.CreatedBy,
				LastUpdatedAt: now,
				LastUpdatedBy: event.CreatedBy,
			},
		}
		for _, line := range planned.Lines {
			entry.Lines = append(entry.Lines, domain.JournalEntryLine{
				LineID:         uuid.NewString(),
				JournalEntryID: entry.JournalEntryID,
				AccountCode:    line.AccountCode,
				EntryType:      line.EntryType,
				Amount:         line.Amount,
				Description:    line.Description,
				LineOrder:      line.LineOrder,
			})
		}
		staged = append(staged, entry)
		stagedLinks = append(stagedLinks, domain.EventJournalEntryLink{
			EventID:        event.EventID,
			JournalEntryID: entry.JournalEntryID,
			CompanyID:      planned.CompanyID,
			CreatedAt:      now,
		})
		journalIDs = append(journalIDs, entry.JournalEntryID)
	}

	if s.FailBeforeCommit != nil {
		if err := s.FailBeforeCommit(); err != nil {
			return nil, err
		}
	}

	for _, entry := range staged {
		s.journals[entry.JournalEntryID] = entry
	}
	s.links = append(s.links, stagedLinks...)

	stored.Status = domain.EventProcessed
	processedAt := now
	stored.ProcessedAt = &processedAt
	stored.ErrorMessage = ""
	stored.LastUpdatedAt = now
	stored.LastUpdatedBy = event.CreatedBy
	s.events[event.EventID] = stored

	return journalIDs, nil
}

func (r *journalRepository) FindJournalEntryByID(_ context.Context, journalEntryID string) (*domain.JournalEntry, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.journals[journalEntryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &entry, nil
}

func (r *journalRepository) FindJournalEntriesByEventID(_ context.Context, eventID string) ([]domain.JournalEntry, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := []domain.JournalEntry{}
	for _, link := range s.links {
		if link.EventID != eventID {
			continue
		}
		if entry, ok := s.journals[link.JournalEntryID]; ok {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CompanyID < entries[j].CompanyID
	})
	return entries, nil
}
