package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/chartermate/charter-ledger/internal/apperrors"
	"github.com/chartermate/charter-ledger/internal/core/domain"
	portsrepo "github.com/chartermate/charter-ledger/internal/core/ports/repositories"
	portssvc "github.com/chartermate/charter-ledger/internal/core/ports/services"
	"github.com/chartermate/charter-ledger/internal/dto"
	"github.com/chartermate/charter-ledger/internal/middleware"
	"github.com/chartermate/charter-ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// eventService orchestrates event intake, rule evaluation, atomic posting and
// the retry/cancel state machine.
type eventService struct {
	eventRepo   portsrepo.EventRepositoryFacade
	journalRepo portsrepo.JournalRepositoryFacade
	whtIssuer   portssvc.WHTCertificateIssuer
	validate    *validator.Validate
}

// NewEventService creates the Event Processor. whtIssuer may be nil when
// certificate issuance is not wired (e.g. in tests).
func NewEventService(eventRepo portsrepo.EventRepositoryFacade, journalRepo portsrepo.JournalRepositoryFacade, whtIssuer portssvc.WHTCertificateIssuer) portssvc.EventSvcFacade {
	return &eventService{
		eventRepo:   eventRepo,
		journalRepo: journalRepo,
		whtIssuer:   whtIssuer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

var _ portssvc.EventSvcFacade = (*eventService)(nil)

// CreateAndProcess creates the event row in PENDING state, then immediately
// processes it. It is deliberately one operation so an event can never exist
// without at least one processing attempt having been made.
func (s *eventService) CreateAndProcess(ctx context.Context, req dto.CreateEventRequest, creatorUserID string) (*domain.AccountingEvent, domain.EventProcessResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	event := domain.AccountingEvent{
		EventID:            uuid.NewString(),
		EventType:          req.EventType,
		EventDate:          req.EventDate,
		Status:             domain.EventPending,
		SourceDocumentType: req.SourceDocumentType,
		SourceDocumentID:   req.SourceDocumentID,
		AffectedCompanies:  req.AffectedCompanies,
		EventData:          req.EventData,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.eventRepo.CreateEvent(ctx, event); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Duplicate accounting event rejected",
				slog.String("event_type", string(req.EventType)),
				slog.String("source_document_type", req.SourceDocumentType),
				slog.String("source_document_id", req.SourceDocumentID))
			return nil, domain.EventProcessResult{}, err
		}
		logger.Error("Failed to create accounting event", slog.String("error", err.Error()))
		return nil, domain.EventProcessResult{}, fmt.Errorf("failed to create event: %w", err)
	}

	result := s.process(ctx, &event, creatorUserID)
	return &event, result, nil
}

// ProcessEvent re-runs rule evaluation and posting for an existing event.
// Calling it with an unknown ID is a defect condition and returns an error;
// calling it on a terminal event returns apperrors.ErrConflict.
func (s *eventService) ProcessEvent(ctx context.Context, eventID, userID string) (domain.EventProcessResult, error) {
	event, err := s.eventRepo.FindEventByID(ctx, eventID)
	if err != nil {
		return domain.EventProcessResult{}, fmt.Errorf("failed to find event %s: %w", eventID, err)
	}
	if !event.Status.CanProcess() {
		return domain.EventProcessResult{}, fmt.Errorf("%w: cannot process event in status %s", apperrors.ErrConflict, event.Status)
	}
	return s.process(ctx, event, userID), nil
}

// RetryEvent re-attempts a FAILED event, incrementing its retry counter.
func (s *eventService) RetryEvent(ctx context.Context, eventID, userID string) (domain.EventProcessResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	event, err := s.eventRepo.FindEventByID(ctx, eventID)
	if err != nil {
		return domain.EventProcessResult{}, fmt.Errorf("failed to find event %s: %w", eventID, err)
	}
	if event.Status != domain.EventFailed {
		return domain.EventProcessResult{}, fmt.Errorf("%w: only failed events can be retried, status is %s", apperrors.ErrConflict, event.Status)
	}

	now := time.Now().UTC()
	if err := s.eventRepo.IncrementRetryCount(ctx, eventID, userID, now); err != nil {
		// A concurrent retry or cancel got there first.
		return domain.EventProcessResult{}, fmt.Errorf("failed to increment retry count for event %s: %w", eventID, err)
	}
	event.RetryCount++

	logger.Info("Retrying accounting event", slog.String("event_id", eventID), slog.Int("retry_count", event.RetryCount))
	return s.process(ctx, event, userID), nil
}

// CancelEvent terminally cancels a PENDING or FAILED event without posting.
func (s *eventService) CancelEvent(ctx context.Context, eventID, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	event, err := s.eventRepo.FindEventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to find event %s: %w", eventID, err)
	}
	if !event.Status.CanProcess() {
		return fmt.Errorf("%w: cannot cancel event in status %s", apperrors.ErrConflict, event.Status)
	}

	if err := s.eventRepo.MarkEventCancelled(ctx, eventID, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to cancel event", slog.String("event_id", eventID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to cancel event %s: %w", eventID, err)
	}

	logger.Info("Accounting event cancelled", slog.String("event_id", eventID))
	return nil
}

// CheckDuplicate reports whether an event for the given source document
// already exists, regardless of its status, so that even a failed prior
// attempt blocks a second event (callers must retry instead). The check is
// advisory; the storage uniqueness constraint closes the remaining race.
func (s *eventService) CheckDuplicate(ctx context.Context, eventType domain.EventType, sourceDocumentType, sourceDocumentID string) (bool, error) {
	if sourceDocumentType == "" || sourceDocumentID == "" {
		return false, nil
	}
	return s.eventRepo.ExistsBySourceDocument(ctx, eventType, sourceDocumentType, sourceDocumentID)
}

// GetEvent loads a single event.
func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.AccountingEvent, error) {
	event, err := s.eventRepo.FindEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to find event %s: %w", eventID, err)
	}
	return event, nil
}

// GetEventJournals returns the journal entries linked to the event.
func (s *eventService) GetEventJournals(ctx context.Context, eventID string) ([]domain.JournalEntry, error) {
	if _, err := s.eventRepo.FindEventByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("failed to find event %s: %w", eventID, err)
	}
	entries, err := s.journalRepo.FindJournalEntriesByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journals for event %s: %w", eventID, err)
	}
	return entries, nil
}

// ListEvents returns a paginated event listing for operator screens.
func (s *eventService) ListEvents(ctx context.Context, params dto.ListEventsParams) (*dto.ListEventsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var status *domain.EventStatus
	if params.Status != nil && *params.Status != "" {
		st := domain.EventStatus(*params.Status)
		switch st {
		case domain.EventPending, domain.EventProcessed, domain.EventFailed, domain.EventCancelled:
			status = &st
		default:
			return nil, fmt.Errorf("%w: unknown event status %q", apperrors.ErrValidation, *params.Status)
		}
	}

	events, nextToken, err := s.eventRepo.ListEvents(ctx, status, params.CompanyID, params.Limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list events from repository", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	responses := make([]dto.EventResponse, len(events))
	for i := range events {
		responses[i] = dto.ToEventResponse(&events[i])
	}
	return &dto.ListEventsResponse{Events: responses, NextToken: nextToken}, nil
}

// process runs validation, rule evaluation and atomic posting for one event.
// Every failure is recorded on the event and reported in the result; nothing
// business-related escapes as an error.
func (s *eventService) process(ctx context.Context, event *domain.AccountingEvent, userID string) domain.EventProcessResult {
	logger := middleware.GetLoggerFromCtx(ctx)

	payload, journalIDs, err := s.attemptPosting(ctx, *event)
	if err != nil {
		now := time.Now().UTC()
		if markErr := s.eventRepo.MarkEventFailed(ctx, event.EventID, err.Error(), userID, now); markErr != nil {
			logger.Error("Failed to record event failure",
				slog.String("event_id", event.EventID),
				slog.String("processing_error", err.Error()),
				slog.String("error", markErr.Error()))
		}
		event.Status = domain.EventFailed
		event.ErrorMessage = err.Error()

		logger.Warn("Accounting event failed",
			slog.String("event_id", event.EventID),
			slog.String("event_type", string(event.EventType)),
			slog.String("error", err.Error()))
		return domain.EventProcessResult{Success: false, Error: err.Error()}
	}

	now := time.Now().UTC()
	event.Status = domain.EventProcessed
	event.ProcessedAt = &now
	event.ErrorMessage = ""

	logger.Info("Accounting event processed",
		slog.String("event_id", event.EventID),
		slog.String("event_type", string(event.EventType)),
		slog.Int("journal_count", len(journalIDs)))

	s.runSideEffects(ctx, event, payload)
	return domain.EventProcessResult{Success: true, JournalEntryIDs: journalIDs}
}

// attemptPosting performs the fallible part of processing: payload decoding
// and validation, rule evaluation, balance validation, atomic posting.
func (s *eventService) attemptPosting(ctx context.Context, event domain.AccountingEvent) (domain.EventPayload, []string, error) {
	payload, err := domain.DecodeEventData(event.EventType, event.EventData)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := s.validate.Struct(payload); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	plan, err := ComputeJournals(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := accounting.ValidatePlanBalance(plan); err != nil {
		return nil, nil, err
	}

	journalIDs, err := s.journalRepo.PostJournals(ctx, event, plan)
	if err != nil {
		return nil, nil, err
	}
	return payload, journalIDs, nil
}

// runSideEffects triggers fire-and-forget follow-ups after a successful
// posting. Side-effect failures are logged and never fail the event.
func (s *eventService) runSideEffects(ctx context.Context, event *domain.AccountingEvent, payload domain.EventPayload) {
	if s.whtIssuer == nil {
		return
	}
	paid, ok := payload.(domain.ExpensePaidData)
	if !ok || paid.WithholdingAmount.LessThanOrEqual(decimal.Zero) {
		return
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	req := portssvc.WHTCertificateRequest{
		EventID:           event.EventID,
		CompanyID:         paid.CompanyID,
		VendorName:        paid.VendorName,
		WithholdingAmount: paid.WithholdingAmount,
		Currency:          paid.Currency,
		PaymentDate:       event.EventDate,
	}
	if err := s.whtIssuer.IssueCertificate(ctx, req); err != nil {
		logger.Error("WHT certificate issuance failed",
			slog.String("event_id", event.EventID),
			slog.String("company_id", paid.CompanyID),
			slog.String("error", err.Error()))
	}
}
