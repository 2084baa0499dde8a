package accounting

import (
	"fmt"

	"github.com/chartermate/charter-ledger/internal/apperrors"
	"github.com/chartermate/charter-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ValidateEntryBalance checks a single planned entry for the double-entry
// invariants: at least one debit and one credit leg, all amounts positive,
// and debit total equal to credit total.
func ValidateEntryBalance(entry domain.PlannedEntry) error {
	if entry.CompanyID == "" {
		return fmt.Errorf("%w: planned entry has no company", apperrors.ErrValidation)
	}

	debits := 0
	credits := 0
	for _, line := range entry.Lines {
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: line amount must be positive for account %s", apperrors.ErrValidation, line.AccountCode)
		}
		switch line.EntryType {
		case domain.Debit:
			debits++
		case domain.Credit:
			credits++
		default:
			return fmt.Errorf("%w: unknown entry type %q for account %s", apperrors.ErrValidation, line.EntryType, line.AccountCode)
		}
	}
	if debits == 0 || credits == 0 {
		return fmt.Errorf("%w: entry for company %s needs at least one debit and one credit line", apperrors.ErrValidation, entry.CompanyID)
	}

	totalDebit := entry.TotalDebit()
	totalCredit := entry.TotalCredit()
	if !totalDebit.Equal(totalCredit) {
		return fmt.Errorf("%w: company %s debits %s vs credits %s",
			apperrors.ErrUnbalanced, entry.CompanyID, totalDebit.String(), totalCredit.String())
	}
	return nil
}

// ValidatePlanBalance checks every entry of a posting plan.
func ValidatePlanBalance(plan domain.JournalPostingPlan) error {
	if len(plan) == 0 {
		return fmt.Errorf("%w: posting plan is empty", apperrors.ErrValidation)
	}
	for _, entry := range plan {
		if err := ValidateEntryBalance(entry); err != nil {
			return err
		}
	}
	return nil
}

// ReconcileRounding adjusts a group of lines so their amounts sum exactly to
// target. The residual is folded into the line with the largest amount; when
// two lines are equally largest, the lowest line order absorbs it. The input
// slice is modified in place and returned.
func ReconcileRounding(lines []domain.PlannedLine, target decimal.Decimal) []domain.PlannedLine {
	if len(lines) == 0 {
		return lines
	}

	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Amount)
	}
	diff := target.Sub(sum)
	if diff.IsZero() {
		return lines
	}

	largest := 0
	for i := 1; i < len(lines); i++ {
		cmp := lines[i].Amount.Cmp(lines[largest].Amount)
		if cmp > 0 || (cmp == 0 && lines[i].LineOrder < lines[largest].LineOrder) {
			largest = i
		}
	}
	lines[largest].Amount = lines[largest].Amount.Add(diff)
	return lines
}
