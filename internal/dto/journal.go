package dto

import (
	"time"

	"github.com/chartermate/charter-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalEntryLineResponse defines the data returned for a journal line.
type JournalEntryLineResponse struct {
	LineID      string          `json:"lineID"`
	AccountCode string          `json:"accountCode"`
	EntryType   string          `json:"entryType"` // DEBIT or CREDIT
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	LineOrder   int             `json:"lineOrder"`
}

// JournalEntryResponse defines the data returned for a journal entry header.
type JournalEntryResponse struct {
	JournalEntryID     string                     `json:"journalEntryID"`
	ReferenceNumber    string                     `json:"referenceNumber"`
	EntryDate          time.Time                  `json:"entryDate"`
	CompanyID          string                     `json:"companyID"`
	Description        string                     `json:"description"`
	Status             string                     `json:"status"`
	TotalDebit         decimal.Decimal            `json:"totalDebit"`
	TotalCredit        decimal.Decimal            `json:"totalCredit"`
	SourceDocumentType string                     `json:"sourceDocumentType,omitempty"`
	SourceDocumentID   string                     `json:"sourceDocumentID,omitempty"`
	IsAutoGenerated    bool                       `json:"isAutoGenerated"`
	Lines              []JournalEntryLineResponse `json:"lines"`
	CreatedAt          time.Time                  `json:"createdAt"`
}

// GetEventJournalsResponse lists the journal entries linked to one event.
type GetEventJournalsResponse struct {
	EventID  string                 `json:"eventID"`
	Journals []JournalEntryResponse `json:"journals"`
}

// ToJournalEntryLineResponse converts a domain line to its response DTO.
func ToJournalEntryLineResponse(line *domain.JournalEntryLine) JournalEntryLineResponse {
	return JournalEntryLineResponse{
		LineID:      line.LineID,
		AccountCode: line.AccountCode,
		EntryType:   string(line.EntryType),
		Amount:      line.Amount,
		Description: line.Description,
		LineOrder:   line.LineOrder,
	}
}

// ToJournalEntryResponse converts a domain journal entry to its response DTO.
func ToJournalEntryResponse(entry *domain.JournalEntry) JournalEntryResponse {
	lines := make([]JournalEntryLineResponse, len(entry.Lines))
	for i := range entry.Lines {
		lines[i] = ToJournalEntryLineResponse(&entry.Lines[i])
	}
	return JournalEntryResponse{
		JournalEntryID:     entry.JournalEntryID,
		ReferenceNumber:    entry.ReferenceNumber,
		EntryDate:          entry.EntryDate,
		CompanyID:          entry.CompanyID,
		Description:        entry.Description,
		Status:             string(entry.Status),
		TotalDebit:         entry.TotalDebit,
		TotalCredit:        entry.TotalCredit,
		SourceDocumentType: entry.SourceDocumentType,
		SourceDocumentID:   entry.SourceDocumentID,
		IsAutoGenerated:    entry.IsAutoGenerated,
		Lines:              lines,
		CreatedAt:          entry.CreatedAt,
	}
}

// ToJournalEntryResponses converts a slice of domain journal entries.
func ToJournalEntryResponses(entries []domain.JournalEntry) []JournalEntryResponse {
	responses := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToJournalEntryResponse(&entries[i])
	}
	return responses
}
