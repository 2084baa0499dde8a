package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus mirrors the journal_entries.status column.
type JournalStatus string

const (
	Draft  JournalStatus = "DRAFT"
	Posted JournalStatus = "POSTED"
)

// EntryType mirrors the journal_entry_lines.entry_type column.
type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// JournalEntry is the persistence representation of a journal header row.
type JournalEntry struct {
	JournalEntryID     string
	ReferenceNumber    string
	EntryDate          time.Time
	CompanyID          string
	Description        string
	Status             JournalStatus
	TotalDebit         decimal.Decimal
	TotalCredit        decimal.Decimal
	SourceDocumentType *string
	SourceDocumentID   *string
	IsAutoGenerated    bool
	AuditFields
}

// JournalEntryLine is the persistence representation of a journal line row.
type JournalEntryLine struct {
	LineID         string
	JournalEntryID string
	AccountCode    string
	EntryType      EntryType
	Amount         decimal.Decimal
	Description    string
	LineOrder      int
}

// EventJournalEntryLink is the persistence representation of the
// event↔journal join row.
type EventJournalEntryLink struct {
	EventID        string
	JournalEntryID string
	CompanyID      string
	CreatedAt      time.Time
}
