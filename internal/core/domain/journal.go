package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry header.
type JournalStatus string

const (
	Draft  JournalStatus = "DRAFT"
	Posted JournalStatus = "POSTED"
)

// EntryType indicates whether a journal line is a Debit or a Credit.
type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// JournalEntry is one balanced posting in a single company's books.
// Invariant: TotalDebit equals TotalCredit.
type JournalEntry struct {
	JournalEntryID     string             `json:"journalEntryID"`
	ReferenceNumber    string             `json:"referenceNumber"` // human-readable, unique per company
	EntryDate          time.Time          `json:"entryDate"`
	CompanyID          string             `json:"companyID"`
	Description        string             `json:"description"`
	Status             JournalStatus      `json:"status"`
	TotalDebit         decimal.Decimal    `json:"totalDebit"`
	TotalCredit        decimal.Decimal    `json:"totalCredit"`
	SourceDocumentType string             `json:"sourceDocumentType"` // mirrors the originating event
	SourceDocumentID   string             `json:"sourceDocumentID"`
	IsAutoGenerated    bool               `json:"isAutoGenerated"`
	Lines              []JournalEntryLine `json:"lines,omitempty"`
	AuditFields
}

// JournalEntryLine is a single debit or credit leg of a journal entry.
type JournalEntryLine struct {
	LineID         string          `json:"lineID"`
	JournalEntryID string          `json:"journalEntryID"`
	AccountCode    string          `json:"accountCode"` // chart-of-accounts reference, assumed valid
	EntryType      EntryType       `json:"entryType"`
	Amount         decimal.Decimal `json:"amount"` // always positive
	Description    string          `json:"description"`
	LineOrder      int             `json:"lineOrder"`
}

// EventJournalEntryLink ties a journal entry back to the event that produced it.
// An intercompany event produces two headers, each with its own link row, both
// referencing the same event.
type EventJournalEntryLink struct {
	EventID        string    `json:"eventID"`
	JournalEntryID string    `json:"journalEntryID"`
	CompanyID      string    `json:"companyID"`
	CreatedAt      time.Time `json:"createdAt"`
}
