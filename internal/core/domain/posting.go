package domain

import "github.com/shopspring/decimal"

// PlannedLine is one leg of a not-yet-persisted journal entry.
type PlannedLine struct {
	AccountCode string
	EntryType   EntryType
	Amount      decimal.Decimal
	Description string
	LineOrder   int
}

// PlannedEntry is one company's journal entry computed from an event,
// before identifiers and reference numbers are assigned.
type PlannedEntry struct {
	CompanyID   string
	Description string
	Lines       []PlannedLine
}

// TotalDebit sums the debit legs of the planned entry.
func (e PlannedEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		if line.EntryType == Debit {
			total = total.Add(line.Amount)
		}
	}
	return total
}

// TotalCredit sums the credit legs of the planned entry.
func (e PlannedEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		if line.EntryType == Credit {
			total = total.Add(line.Amount)
		}
	}
	return total
}

// JournalPostingPlan is the full set of per-company entries for one event.
// Single-company events produce one entry, intercompany events two.
type JournalPostingPlan []PlannedEntry
