package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chartermate/charter-ledger/internal/apperrors"
	"github.com/chartermate/charter-ledger/internal/core/domain"
	portsrepo "github.com/chartermate/charter-ledger/internal/core/ports/repositories"
	"github.com/chartermate/charter-ledger/internal/models"
	"github.com/chartermate/charter-ledger/internal/utils/accounting"
	"github.com/chartermate/charter-ledger/internal/utils/mapping"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// maxReferenceAttempts bounds the retry loop for reference-number collisions.
	maxReferenceAttempts = 3
	referenceRetryDelay  = 25 * time.Millisecond

	journalReferenceConstraint = "journal_entries_company_reference_uq"
)

// PgxJournalRepository is the Atomic Poster: the single writer of
// auto-generated journal entries, lines and event links.
type PgxJournalRepository struct {
	BaseRepository
}

func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

// PostJournals writes headers, lines, event links and the event's PROCESSED
// transition in a single database transaction. A reference-number collision
// rolls everything back and the whole posting is retried with fresh numbers,
// bounded and slightly backed off.
func (r *PgxJournalRepository) PostJournals(ctx context.Context, event domain.AccountingEvent, plan domain.JournalPostingPlan) ([]string, error) {
	if err := accounting.ValidatePlanBalance(plan); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * referenceRetryDelay):
			}
		}

		journalIDs, err := r.postOnce(ctx, event, plan)
		if err == nil {
			return journalIDs, nil
		}
		if !isUniqueViolation(err, journalReferenceConstraint) {
			return nil, err
		}
		lastErr = err
	}
	return nil, apperrors.NewAppError(500, "failed to allocate a unique journal reference number", lastErr)
}

func (r *PgxJournalRepository) postOnce(ctx context.Context, event domain.AccountingEvent, plan domain.JournalPostingPlan) ([]string, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	now := time.Now().UTC()
	userID := event.CreatedBy

	headerQuery := `
		INSERT INTO journal_entries (
			journal_entry_id, reference_number, entry_date, company_id, description, status,
			total_debit, total_credit, source_document_type, source_document_id, is_auto_generated,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	lineQuery := `
		INSERT INTO journal_entry_lines (line_id, journal_entry_id, account_code, entry_type, amount, description, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	linkQuery := `
		INSERT INTO event_journal_entry_links (event_id, journal_entry_id, company_id, created_at)
		VALUES ($1, $2, $3, $4);
	`

	journalIDs := make([]string, 0, len(plan))
	batch := &pgx.Batch{}

	for _, planned := range plan {
		header := domain.JournalEntry{
			JournalEntryID:     uuid.NewString(),
			ReferenceNumber:    generateReferenceNumber(event.EventDate),
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
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		m := mapping.ToModelJournalEntry(header)

		batch.Queue(headerQuery,
			m.JournalEntryID,
			m.ReferenceNumber,
			m.EntryDate,
			m.CompanyID,
			m.Description,
			m.Status,
			m.TotalDebit,
			m.TotalCredit,
			m.SourceDocumentType,
			m.SourceDocumentID,
			m.IsAutoGenerated,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)

		for _, line := range planned.Lines {
			batch.Queue(lineQuery,
				uuid.NewString(),
				header.JournalEntryID,
				line.AccountCode,
				string(line.EntryType),
				line.Amount,
				line.Description,
				line.LineOrder,
			)
		}

		batch.Queue(linkQuery, event.EventID, header.JournalEntryID, planned.CompanyID, now)
		journalIDs = append(journalIDs, header.JournalEntryID)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return nil, wrapBatchError(event.EventID, err)
	}

	// Final step: flip the event to PROCESSED, guarded on its current status.
	// Losing this compare-and-swap (a concurrent process/retry finished first)
	// aborts the whole transaction, so the same event can never post twice.
	casQuery := `
		UPDATE accounting_events
		SET status = 'PROCESSED', processed_at = $2, error_message = NULL, last_updated_at = $2, last_updated_by = $3
		WHERE event_id = $1 AND status IN ('PENDING', 'FAILED');
	`
	cmdTag, err := tx.Exec(ctx, casQuery, event.EventID, now, userID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to mark event "+event.EventID+" processed", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, apperrors.NewAppError(409, "event "+event.EventID+" was processed or cancelled concurrently", apperrors.ErrConflict)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return journalIDs, nil
}

// wrapBatchError preserves unique violations so the caller can retry on
// reference collisions, and wraps everything else as a storage failure.
func wrapBatchError(eventID string, err error) error {
	if isUniqueViolation(err, "") {
		return err
	}
	return apperrors.NewAppError(500, "failed to post journal entries for event "+eventID, err)
}

// generateReferenceNumber builds a human-readable journal reference such as
// JE-20260115-9F3A21C4. Uniqueness per company is enforced by the database;
// collisions are rare and resolved by the bounded retry in PostJournals.
func generateReferenceNumber(entryDate time.Time) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("JE-%s-%s", entryDate.Format("20060102"), suffix)
}

// FindJournalEntryByID retrieves a journal header with its lines.
func (r *PgxJournalRepository) FindJournalEntryByID(ctx context.Context, journalEntryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT journal_entry_id, reference_number, entry_date, company_id, description, status,
		       total_debit, total_credit, source_document_type, source_document_id, is_auto_generated,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM journal_entries
		WHERE journal_entry_id = $1;
	`
	var m models.JournalEntry
	err := r.Pool.QueryRow(ctx, query, journalEntryID).Scan(
		&m.JournalEntryID,
		&m.ReferenceNumber,
		&m.EntryDate,
		&m.CompanyID,
		&m.Description,
		&m.Status,
		&m.TotalDebit,
		&m.TotalCredit,
		&m.SourceDocumentType,
		&m.SourceDocumentID,
		&m.IsAutoGenerated,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find journal entry "+journalEntryID, err)
	}

	entry := mapping.ToDomainJournalEntry(m)
	lines, err := r.findLinesByJournalIDs(ctx, []string{journalEntryID})
	if err != nil {
		return nil, err
	}
	entry.Lines = lines[journalEntryID]
	return &entry, nil
}

// FindJournalEntriesByEventID loads every journal entry linked to the event,
// with lines, ordered by company for stable output.
func (r *PgxJournalRepository) FindJournalEntriesByEventID(ctx context.Context, eventID string) ([]domain.JournalEntry, error) {
	query := `
		SELECT j.journal_entry_id, j.reference_number, j.entry_date, j.company_id, j.description, j.status,
		       j.total_debit, j.total_credit, j.source_document_type, j.source_document_id, j.is_auto_generated,
		       j.created_at, j.created_by, j.last_updated_at, j.last_updated_by
		FROM journal_entries j
		JOIN event_journal_entry_links l ON l.journal_entry_id = j.journal_entry_id
		WHERE l.event_id = $1
		ORDER BY j.company_id, j.created_at;
	`
	rows, err := r.Pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query journals for event "+eventID, err)
	}
	defer rows.Close()

	entries := []domain.JournalEntry{}
	ids := []string{}
	for rows.Next() {
		var m models.JournalEntry
		if scanErr := rows.Scan(
			&m.JournalEntryID,
			&m.ReferenceNumber,
			&m.EntryDate,
			&m.CompanyID,
			&m.Description,
			&m.Status,
			&m.TotalDebit,
			&m.TotalCredit,
			&m.SourceDocumentType,
			&m.SourceDocumentID,
			&m.IsAutoGenerated,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		); scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan journal row for event "+eventID, scanErr)
		}
		entries = append(entries, mapping.ToDomainJournalEntry(m))
		ids = append(ids, m.JournalEntryID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating journal rows for event "+eventID, err)
	}

	linesByJournal, err := r.findLinesByJournalIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Lines = linesByJournal[entries[i].JournalEntryID]
	}
	return entries, nil
}

// findLinesByJournalIDs loads all lines for the given headers in line order.
func (r *PgxJournalRepository) findLinesByJournalIDs(ctx context.Context, journalIDs []string) (map[string][]domain.JournalEntryLine, error) {
	result := make(map[string][]domain.JournalEntryLine, len(journalIDs))
	if len(journalIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT line_id, journal_entry_id, account_code, entry_type, amount, description, line_order
		FROM journal_entry_lines
		WHERE journal_entry_id = ANY($1)
		ORDER BY journal_entry_id, line_order;
	`
	rows, err := r.Pool.Query(ctx, query, journalIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query journal entry lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.JournalEntryLine
		if scanErr := rows.Scan(
			&m.LineID,
			&m.JournalEntryID,
			&m.AccountCode,
			&m.EntryType,
			&m.Amount,
			&m.Description,
			&m.LineOrder,
		); scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan journal entry line row", scanErr)
		}
		line := mapping.ToDomainJournalEntryLine(m)
		result[line.JournalEntryID] = append(result[line.JournalEntryID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating journal entry line rows", err)
	}
	return result, nil
}
