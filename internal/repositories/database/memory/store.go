// Package memory provides an in-process implementation of the repository
// ports backed by maps. It mirrors the transactional behavior of the
// PostgreSQL repositories closely enough for service-level tests: posting
// stages every row and publishes them in one step, so a failure mid-posting
// leaves no partial journals behind.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chartermate/charter-ledger/internal/apperrors"
	"github.com/chartermate/charter-ledger/internal/core/domain"
	portsrepo "github.com/chartermate/charter-ledger/internal/core/ports/repositories"
	"github.com/chartermate/charter-ledger/internal/utils/pagination"
)

// Store holds all tables behind one mutex.
type Store struct {
	mu       sync.Mutex
	events   map[string]domain.AccountingEvent
	journals map[string]domain.JournalEntry
	links    []domain.EventJournalEntryLink

	// FailBeforeCommit, when set, is invoked after a posting has been fully
	// staged but before it becomes visible. Returning an error aborts the
	// posting, which must leave the store untouched.
	FailBeforeCommit func() error
}

func NewStore() *Store {
	return &Store{
		events:   make(map[string]domain.AccountingEvent),
		journals: make(map[string]domain.JournalEntry),
	}
}

// NewRepositoryProvider wires the store into the repository ports.
func NewRepositoryProvider(s *Store) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		EventRepo:   &eventRepository{store: s},
		JournalRepo: &journalRepository{store: s},
	}
}

// JournalCount reports the number of stored journal headers.
func (s *Store) JournalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.journals)
}

// LinkCount reports the number of stored event-to-journal links.
func (s *Store) LinkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

type eventRepository struct {
	store *Store
}

var _ portsrepo.EventRepositoryFacade = (*eventRepository)(nil)

func (r *eventRepository) CreateEvent(_ context.Context, event domain.AccountingEvent) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.SourceDocumentID != "" {
		for _, existing := range s.events {
			if existing.EventType == event.EventType &&
				existing.SourceDocumentType == event.SourceDocumentType &&
				existing.SourceDocumentID == event.SourceDocumentID {
				return apperrors.NewAppError(409, "an event for this source document already exists", apperrors.ErrDuplicate)
			}
		}
	}
	s.events[event.EventID] = event
	return nil
}

func (r *eventRepository) FindEventByID(_ context.Context, eventID string) (*domain.AccountingEvent, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &event, nil
}

func (r *eventRepository) ExistsBySourceDocument(_ context.Context, eventType domain.EventType, sourceDocumentType, sourceDocumentID string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range s.events {
		if event.EventType == eventType &&
			event.SourceDocumentType == sourceDocumentType &&
			event.SourceDocumentID == sourceDocumentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *eventRepository) MarkEventFailed(_ context.Context, eventID, errorMessage, updatedBy string, updatedAt time.Time) error {
	return r.update(eventID, func(event *domain.AccountingEvent) error {
		if !event.Status.CanProcess() {
			return apperrors.NewAppError(409, "event "+eventID+" is "+string(event.Status), apperrors.ErrConflict)
		}
		event.Status = domain.EventFailed
		event.ErrorMessage = errorMessage
		event.LastUpdatedAt = updatedAt
		event.LastUpdatedBy = updatedBy
		return nil
	})
}

func (r *eventRepository) MarkEventCancelled(_ context.Context, eventID, updatedBy string, updatedAt time.Time) error {
	return r.update(eventID, func(event *domain.AccountingEvent) error {
		if !event.Status.CanProcess() {
			return apperrors.NewAppError(409, "event "+eventID+" is "+string(event.Status), apperrors.ErrConflict)
		}
		event.Status = domain.EventCancelled
		event.LastUpdatedAt = updatedAt
		event.LastUpdatedBy = updatedBy
		return nil
	})
}

func (r *eventRepository) IncrementRetryCount(_ context.Context, eventID, updatedBy string, updatedAt time.Time) error {
	return r.update(eventID, func(event *domain.AccountingEvent) error {
		if event.Status != domain.EventFailed {
			return apperrors.NewAppError(409, "event "+eventID+" is not in a retryable state", apperrors.ErrConflict)
		}
		event.RetryCount++
		event.LastUpdatedAt = updatedAt
		event.LastUpdatedBy = updatedBy
		return nil
	})
}

func (r *eventRepository) update(eventID string, fn func(*domain.AccountingEvent) error) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if err := fn(&event); err != nil {
		return err
	}
	s.events[eventID] = event
	return nil
}

func (r *eventRepository) ListEvents(_ context.Context, status *domain.EventStatus, companyID string, limit int, nextToken *string) ([]domain.AccountingEvent, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]domain.AccountingEvent, 0, len(s.events))
	for _, event := range s.events {
		if status != nil && event.Status != *status {
			continue
		}
		if companyID != "" && !containsCompany(event.AffectedCompanies, companyID) {
			continue
		}
		matched = append(matched, event)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].EventDate.Equal(matched[j].EventDate) {
			return matched[i].EventDate.After(matched[j].EventDate)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := 0
	if nextToken != nil {
		eventDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid pagination token", err)
		}
		for i, event := range matched {
			if event.EventDate.Before(eventDate) ||
				(event.EventDate.Equal(eventDate) && event.CreatedAt.Before(createdAt)) {
				start = i
				break
			}
			start = len(matched)
		}
	}

	end := start + limit
	if end >= len(matched) {
		return matched[start:], nil, nil
	}
	last := matched[end-1]
	token := pagination.EncodeToken(last.EventDate, last.CreatedAt)
	return matched[start:end], &token, nil
}

func containsCompany(companies []string, companyID string) bool {
	for _, c := range companies {
		if strings.EqualFold(c, companyID) {
			return true
		}
	}
	return false
}
