package mapping

import (
	"encoding/json"

	"github.com/chartermate/charter-ledger/internal/core/domain"
	"github.com/chartermate/charter-ledger/internal/models"
)

// ToModelEvent converts a domain AccountingEvent to its model representation.
func ToModelEvent(d domain.AccountingEvent) models.AccountingEvent {
	m := models.AccountingEvent{
		EventID:           d.EventID,
		EventType:         string(d.EventType),
		EventDate:         d.EventDate,
		Status:            models.EventStatus(d.Status),
		AffectedCompanies: d.AffectedCompanies,
		EventData:         []byte(d.EventData),
		ProcessedAt:       d.ProcessedAt,
		RetryCount:        d.RetryCount,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
	if d.SourceDocumentType != "" {
		m.SourceDocumentType = &d.SourceDocumentType
	}
	if d.SourceDocumentID != "" {
		m.SourceDocumentID = &d.SourceDocumentID
	}
	if d.ErrorMessage != "" {
		m.ErrorMessage = &d.ErrorMessage
	}
	return m
}

// ToDomainEvent converts a model AccountingEvent to its domain representation.
func ToDomainEvent(m models.AccountingEvent) domain.AccountingEvent {
	d := domain.AccountingEvent{
		EventID:           m.EventID,
		EventType:         domain.EventType(m.EventType),
		EventDate:         m.EventDate,
		Status:            domain.EventStatus(m.Status),
		AffectedCompanies: m.AffectedCompanies,
		EventData:         json.RawMessage(m.EventData),
		ProcessedAt:       m.ProcessedAt,
		RetryCount:        m.RetryCount,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
	if m.SourceDocumentType != nil {
		d.SourceDocumentType = *m.SourceDocumentType
	}
	if m.SourceDocumentID != nil {
		d.SourceDocumentID = *m.SourceDocumentID
	}
	if m.ErrorMessage != nil {
		d.ErrorMessage = *m.ErrorMessage
	}
	return d
}

// ToDomainEventSlice converts a slice of model events.
func ToDomainEventSlice(ms []models.AccountingEvent) []domain.AccountingEvent {
	ds := make([]domain.AccountingEvent, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainEvent(m)
	}
	return ds
}
