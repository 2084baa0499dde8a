package services

import (
	"fmt"

	"github.com/chartermate/charter-ledger/internal/core/domain"
	"github.com/chartermate/charter-ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// Chart-of-accounts codes used by the posting rules. The codes are assumed to
// exist; this subsystem does not validate them against the account master.
const (
	AccountCash                   = "1000"
	AccountVATInput               = "1155"
	AccountAccountsReceivable     = "1200"
	AccountIntercompanyReceivable = "1210"
	AccountAccountsPayable        = "2000"
	AccountVATOutput              = "2155"
	AccountIntercompanyPayable    = "2210"
	AccountRevenueDefault         = "4100"
	AccountExpenseDefault         = "6300"
)

// ComputeJournals maps a typed event payload to its per-company journal
// entries. It is pure: every amount and account code it needs was resolved
// into the payload by the caller, so each rule is independently testable.
func ComputeJournals(payload domain.EventPayload) (domain.JournalPostingPlan, error) {
	switch p := payload.(type) {
	case domain.ExpenseApprovedData:
		return planExpenseApproved(p)
	case domain.ExpensePaidData:
		return planExpensePaid(p)
	case domain.ExpensePaidIntercompanyData:
		return planExpensePaidIntercompany(p)
	case domain.ReceiptIssuedData:
		return planReceiptIssued(p)
	default:
		return nil, fmt.Errorf("no posting rule for payload type %T", payload)
	}
}

// planExpenseApproved books an approved vendor expense: debit each line's
// expense account, debit input VAT, credit accounts payable for the total.
func planExpenseApproved(p domain.ExpenseApprovedData) (domain.JournalPostingPlan, error) {
	if p.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("expense total must be positive, got %s", p.TotalAmount)
	}

	lines := make([]domain.PlannedLine, 0, len(p.LineItems)+2)
	for i, item := range p.LineItems {
		account := item.AccountCode
		if account == "" {
			account = AccountExpenseDefault
		}
		lines = append(lines, domain.PlannedLine{
			AccountCode: account,
			EntryType:   domain.Debit,
			Amount:      item.Amount,
			Description: item.Description,
			LineOrder:   i + 1,
		})
	}

	// The expense lines must sum to the subtotal; fractional-cent residue from
	// upstream rounding is folded into the largest line.
	subtotal := p.TotalAmount.Sub(p.VATAmount)
	lines = accounting.ReconcileRounding(lines, subtotal)

	if p.VATAmount.GreaterThan(decimal.Zero) {
		lines = append(lines, domain.PlannedLine{
			AccountCode: AccountVATInput,
			EntryType:   domain.Debit,
			Amount:      p.VATAmount,
			Description: "Input VAT",
			LineOrder:   len(lines) + 1,
		})
	}

	lines = append(lines, domain.PlannedLine{
		AccountCode: AccountAccountsPayable,
		EntryType:   domain.Credit,
		Amount:      p.TotalAmount,
		Description: payableDescription(p.VendorName),
		LineOrder:   len(lines) + 1,
	})

	return domain.JournalPostingPlan{{
		CompanyID:   p.CompanyID,
		Description: expenseDescription("Expense approved", p.VendorName),
		Lines:       lines,
	}}, nil
}

// planExpensePaid settles an approved expense from bank or cash:
// debit accounts payable, credit the paying account's GL code.
func planExpensePaid(p domain.ExpensePaidData) (domain.JournalPostingPlan, error) {
	if p.PaymentAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("payment amount must be positive, got %s", p.PaymentAmount)
	}
	payingAccount, err := payingAccountCode(p.PaidFrom, p.BankAccountGLCode)
	if err != nil {
		return nil, err
	}

	lines := []domain.PlannedLine{
		{
			AccountCode: AccountAccountsPayable,
			EntryType:   domain.Debit,
			Amount:      p.PaymentAmount,
			Description: payableDescription(p.VendorName),
			LineOrder:   1,
		},
		{
			AccountCode: payingAccount,
			EntryType:   domain.Credit,
			Amount:      p.PaymentAmount,
			Description: paymentSourceDescription(p.PaidFrom),
			LineOrder:   2,
		},
	}

	return domain.JournalPostingPlan{{
		CompanyID:   p.CompanyID,
		Description: expenseDescription("Expense paid", p.VendorName),
		Lines:       lines,
	}}, nil
}

// planExpensePaidIntercompany books one payment across two sets of books.
// The payer lends to the owner: it records a receivable from the owner and a
// credit to its own bank; the owner clears its payable and records a payable
// back to the payer. Getting either direction wrong silently unbalances the
// consolidated position, so the two entries are built symmetrically here.
func planExpensePaidIntercompany(p domain.ExpensePaidIntercompanyData) (domain.JournalPostingPlan, error) {
	if p.PaymentAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("payment amount must be positive, got %s", p.PaymentAmount)
	}
	if p.PayingCompanyID == p.ReceivingCompanyID {
		return nil, fmt.Errorf("intercompany payment requires distinct companies, got %s twice", p.PayingCompanyID)
	}
	payingAccount, err := payingAccountCode(p.PaidFrom, p.BankAccountGLCode)
	if err != nil {
		return nil, err
	}

	memo := fmt.Sprintf("Intercompany expense payment by %s for %s", p.PayingCompanyName, p.ReceivingCompanyName)
	if p.ProjectName != "" {
		memo = fmt.Sprintf("%s (%s)", memo, p.ProjectName)
	}

	payerEntry := domain.PlannedEntry{
		CompanyID:   p.PayingCompanyID,
		Description: memo,
		Lines: []domain.PlannedLine{
			{
				AccountCode: AccountIntercompanyReceivable,
				EntryType:   domain.Debit,
				Amount:      p.PaymentAmount,
				Description: fmt.Sprintf("Intercompany receivable from %s", p.ReceivingCompanyName),
				LineOrder:   1,
			},
			{
				AccountCode: payingAccount,
				EntryType:   domain.Credit,
				Amount:      p.PaymentAmount,
				Description: paymentSourceDescription(p.PaidFrom),
				LineOrder:   2,
			},
		},
	}

	ownerEntry := domain.PlannedEntry{
		CompanyID:   p.ReceivingCompanyID,
		Description: memo,
		Lines: []domain.PlannedLine{
			{
				AccountCode: AccountAccountsPayable,
				EntryType:   domain.Debit,
				Amount:      p.PaymentAmount,
				Description: "Accounts payable settled by affiliate",
				LineOrder:   1,
			},
			{
				AccountCode: AccountIntercompanyPayable,
				EntryType:   domain.Credit,
				Amount:      p.PaymentAmount,
				Description: fmt.Sprintf("Intercompany payable to %s", p.PayingCompanyName),
				LineOrder:   2,
			},
		},
	}

	return domain.JournalPostingPlan{payerEntry, ownerEntry}, nil
}

// planReceiptIssued books charter revenue: debit bank/cash (or accounts
// receivable for credit sales), credit revenue and output VAT.
func planReceiptIssued(p domain.ReceiptIssuedData) (domain.JournalPostingPlan, error) {
	if p.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("receipt total must be positive, got %s", p.TotalAmount)
	}

	var receivingAccount string
	switch p.PaymentMethod {
	case "bank":
		if p.BankAccountGLCode == "" {
			return nil, fmt.Errorf("bank receipt requires a bank account GL code")
		}
		receivingAccount = p.BankAccountGLCode
	case "cash":
		receivingAccount = AccountCash
	case "credit":
		receivingAccount = AccountAccountsReceivable
	default:
		return nil, fmt.Errorf("unknown payment method %q", p.PaymentMethod)
	}

	revenueAccount := p.RevenueAccountCode
	if revenueAccount == "" {
		revenueAccount = AccountRevenueDefault
	}

	receiptMemo := "Receipt issued"
	if p.ReceiptNumber != "" {
		receiptMemo = fmt.Sprintf("Receipt %s", p.ReceiptNumber)
	}
	if p.CustomerName != "" {
		receiptMemo = fmt.Sprintf("%s - %s", receiptMemo, p.CustomerName)
	}

	lines := []domain.PlannedLine{{
		AccountCode: receivingAccount,
		EntryType:   domain.Debit,
		Amount:      p.TotalAmount,
		Description: receiptMemo,
		LineOrder:   1,
	}}

	credits := []domain.PlannedLine{{
		AccountCode: revenueAccount,
		EntryType:   domain.Credit,
		Amount:      p.Subtotal,
		Description: "Charter revenue",
		LineOrder:   2,
	}}
	// The revenue leg absorbs any rounding residue against total minus VAT.
	credits = accounting.ReconcileRounding(credits, p.TotalAmount.Sub(p.VATAmount))
	lines = append(lines, credits...)

	if p.VATAmount.GreaterThan(decimal.Zero) {
		lines = append(lines, domain.PlannedLine{
			AccountCode: AccountVATOutput,
			EntryType:   domain.Credit,
			Amount:      p.VATAmount,
			Description: "Output VAT",
			LineOrder:   3,
		})
	}

	return domain.JournalPostingPlan{{
		CompanyID:   p.CompanyID,
		Description: receiptMemo,
		Lines:       lines,
	}}, nil
}

func payingAccountCode(paidFrom, bankGLCode string) (string, error) {
	if paidFrom == "cash" {
		return AccountCash, nil
	}
	if bankGLCode == "" {
		return "", fmt.Errorf("bank payment requires a bank account GL code")
	}
	return bankGLCode, nil
}

func paymentSourceDescription(paidFrom string) string {
	if paidFrom == "cash" {
		return "Paid from cash"
	}
	return "Paid from bank account"
}

func payableDescription(vendorName string) string {
	if vendorName == "" {
		return "Accounts payable"
	}
	return fmt.Sprintf("Accounts payable - %s", vendorName)
}

func expenseDescription(prefix, vendorName string) string {
	if vendorName == "" {
		return prefix
	}
	return fmt.Sprintf("%s - %s", prefix, vendorName)
}
