package mapping

import (
	"github.com/chartermate/charter-ledger/internal/core/domain"
	"github.com/chartermate/charter-ledger/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to its model representation.
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	m := models.JournalEntry{
		JournalEntryID:  d.JournalEntryID,
		ReferenceNumber: d.ReferenceNumber,
		EntryDate:       d.EntryDate,
		CompanyID:       d.CompanyID,
		Description:     d.Description,
		Status:          models.JournalStatus(d.Status),
		TotalDebit:      d.TotalDebit,
		TotalCredit:     d.TotalCredit,
		IsAutoGenerated: d.IsAutoGenerated,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
	if d.SourceDocumentType != "" {
		m.SourceDocumentType = &d.SourceDocumentType
	}
	if d.SourceDocumentID != "" {
		m.SourceDocumentID = &d.SourceDocumentID
	}
	return m
}

// ToDomainJournalEntry converts a model JournalEntry to its domain representation.
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	d := domain.JournalEntry{
		JournalEntryID:  m.JournalEntryID,
		ReferenceNumber: m.ReferenceNumber,
		EntryDate:       m.EntryDate,
		CompanyID:       m.CompanyID,
		Description:     m.Description,
		Status:          domain.JournalStatus(m.Status),
		TotalDebit:      m.TotalDebit,
		TotalCredit:     m.TotalCredit,
		IsAutoGenerated: m.IsAutoGenerated,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
	if m.SourceDocumentType != nil {
		d.SourceDocumentType = *m.SourceDocumentType
	}
	if m.SourceDocumentID != nil {
		d.SourceDocumentID = *m.SourceDocumentID
	}
	return d
}

// ToModelJournalEntryLine converts a domain line to its model representation.
func ToModelJournalEntryLine(d domain.JournalEntryLine) models.JournalEntryLine {
	return models.JournalEntryLine{
		LineID:         d.LineID,
		JournalEntryID: d.JournalEntryID,
		AccountCode:    d.AccountCode,
		EntryType:      models.EntryType(d.EntryType),
		Amount:         d.Amount,
		Description:    d.Description,
		LineOrder:      d.LineOrder,
	}
}

// ToDomainJournalEntryLine converts a model line to its domain representation.
func ToDomainJournalEntryLine(m models.JournalEntryLine) domain.JournalEntryLine {
	return domain.JournalEntryLine{
		LineID:         m.LineID,
		JournalEntryID: m.JournalEntryID,
		AccountCode:    m.AccountCode,
		EntryType:      domain.EntryType(m.EntryType),
		Amount:         m.Amount,
		Description:    m.Description,
		LineOrder:      m.LineOrder,
	}
}

// ToDomainJournalEntryLineSlice converts a slice of model lines.
func ToDomainJournalEntryLineSlice(ms []models.JournalEntryLine) []domain.JournalEntryLine {
	ds := make([]domain.JournalEntryLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainJournalEntryLine(m)
	}
	return ds
}
