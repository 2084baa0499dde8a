package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/chartermate/charter-ledger/internal/apperrors"
	"github.com/chartermate/charter-ledger/internal/core/domain"
	portsrepo "github.com/chartermate/charter-ledger/internal/core/ports/repositories"
	"github.com/chartermate/charter-ledger/internal/models"
	"github.com/chartermate/charter-ledger/internal/utils/mapping"
	"github.com/chartermate/charter-ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `
	event_id, event_type, event_date, status, source_document_type, source_document_id,
	affected_companies, event_data, processed_at, error_message, retry_count,
	created_at, created_by, last_updated_at, last_updated_by
`

// PgxEventRepository persists accounting events.
type PgxEventRepository struct {
	BaseRepository
}

func newPgxEventRepository(pool *pgxpool.Pool) portsrepo.EventRepositoryFacade {
	return &PgxEventRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EventRepositoryFacade = (*PgxEventRepository)(nil)

// CreateEvent inserts a new event row. The partial unique index on
// (event_type, source_document_type, source_document_id) turns racing inserts
// for the same source document into apperrors.ErrDuplicate.
func (r *PgxEventRepository) CreateEvent(ctx context.Context, event domain.AccountingEvent) error {
	m := mapping.ToModelEvent(event)
	query := `
		INSERT INTO accounting_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.EventID,
		m.EventType,
		m.EventDate,
		m.Status,
		m.SourceDocumentType,
		m.SourceDocumentID,
		m.AffectedCompanies,
		m.EventData,
		m.ProcessedAt,
		m.ErrorMessage,
		m.RetryCount,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "accounting_events_source_document_uq") {
			return apperrors.NewAppError(409, "an event for this source document already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert accounting event "+m.EventID, err)
	}
	return nil
}

// FindEventByID retrieves an event by its ID.
func (r *PgxEventRepository) FindEventByID(ctx context.Context, eventID string) (*domain.AccountingEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM accounting_events WHERE event_id = $1;`

	m, err := scanEventRow(r.Pool.QueryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find event by ID "+eventID, err)
	}

	event := mapping.ToDomainEvent(m)
	return &event, nil
}

// ExistsBySourceDocument reports whether any event matches the given type and
// source document, regardless of its status.
func (r *PgxEventRepository) ExistsBySourceDocument(ctx context.Context, eventType domain.EventType, sourceDocumentType, sourceDocumentID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM accounting_events
			WHERE event_type = $1 AND source_document_type = $2 AND source_document_id = $3
		);
	`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, string(eventType), sourceDocumentType, sourceDocumentID).Scan(&exists); err != nil {
		return false, apperrors.NewAppError(500, "failed to check for duplicate event", err)
	}
	return exists, nil
}

// MarkEventFailed records the processing error and moves the event to FAILED.
// The status guard makes concurrent transitions on one event detectable.
func (r *PgxEventRepository) MarkEventFailed(ctx context.Context, eventID, errorMessage, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE accounting_events
		SET status = 'FAILED', error_message = $2, last_updated_at = $3, last_updated_by = $4
		WHERE event_id = $1 AND status IN ('PENDING', 'FAILED');
	`
	return r.guardedUpdate(ctx, query, eventID, errorMessage, updatedAt, updatedBy)
}

// MarkEventCancelled moves a PENDING or FAILED event to the terminal CANCELLED state.
func (r *PgxEventRepository) MarkEventCancelled(ctx context.Context, eventID, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE accounting_events
		SET status = 'CANCELLED', last_updated_at = $2, last_updated_by = $3
		WHERE event_id = $1 AND status IN ('PENDING', 'FAILED');
	`
	return r.guardedUpdate(ctx, query, eventID, updatedAt, updatedBy)
}

// IncrementRetryCount bumps the retry counter while the event is still FAILED.
func (r *PgxEventRepository) IncrementRetryCount(ctx context.Context, eventID, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE accounting_events
		SET retry_count = retry_count + 1, last_updated_at = $2, last_updated_by = $3
		WHERE event_id = $1 AND status = 'FAILED';
	`
	return r.guardedUpdate(ctx, query, eventID, updatedAt, updatedBy)
}

// guardedUpdate executes a status-guarded update and maps a zero row count to
// ErrConflict (the event moved out of the expected state) or ErrNotFound.
func (r *PgxEventRepository) guardedUpdate(ctx context.Context, query string, eventID string, args ...any) error {
	cmdTag, err := r.Pool.Exec(ctx, query, append([]any{eventID}, args...)...)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update event "+eventID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounting_events WHERE event_id = $1);`, eventID).Scan(&exists); err != nil {
			return apperrors.NewAppError(500, "failed to verify event "+eventID, err)
		}
		if !exists {
			return apperrors.NewNotFoundError("event " + eventID + " not found")
		}
		return apperrors.NewAppError(409, "event "+eventID+" is no longer in an updatable state", apperrors.ErrConflict)
	}
	return nil
}

// ListEvents retrieves a paginated list of events, newest first, using
// token-based pagination over (event_date, created_at).
func (r *PgxEventRepository) ListEvents(ctx context.Context, status *domain.EventStatus, companyID string, limit int, nextToken *string) ([]domain.AccountingEvent, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to determine whether there is a next page.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + eventColumns + ` FROM accounting_events`

	filterClause := `WHERE 1=1`
	args := []any{}
	if status != nil {
		args = append(args, string(*status))
		filterClause += ` AND status = $` + strconv.Itoa(len(args))
	}
	if companyID != "" {
		args = append(args, companyID)
		filterClause += ` AND $` + strconv.Itoa(len(args)) + ` = ANY(affected_companies)`
	}

	orderByClause := `ORDER BY event_date DESC, created_at DESC`

	if nextToken != nil && *nextToken != "" {
		lastEventDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastEventDate, lastCreatedAt)
		filterClause += ` AND (event_date, created_at) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query accounting events", err)
	}
	defer rows.Close()

	modelEvents := make([]models.AccountingEvent, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanEventRow(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan accounting event row", scanErr)
		}
		modelEvents = append(modelEvents, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating accounting event rows", err)
	}

	var nextTokenVal *string
	results := modelEvents
	if len(modelEvents) > limit {
		last := modelEvents[limit-1]
		token := pagination.EncodeToken(last.EventDate, last.CreatedAt)
		nextTokenVal = &token
		results = modelEvents[:limit]
	}

	return mapping.ToDomainEventSlice(results), nextTokenVal, nil
}

// scanEventRow scans one accounting_events row in eventColumns order.
func scanEventRow(row pgx.Row) (models.AccountingEvent, error) {
	var m models.AccountingEvent
	err := row.Scan(
		&m.EventID,
		&m.EventType,
		&m.EventDate,
		&m.Status,
		&m.SourceDocumentType,
		&m.SourceDocumentID,
		&m.AffectedCompanies,
		&m.EventData,
		&m.ProcessedAt,
		&m.ErrorMessage,
		&m.RetryCount,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}
