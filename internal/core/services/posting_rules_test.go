package services_test

import (
	"testing"

	"github.com/chartermate/charter-ledger/internal/core/domain"
	"github.com/chartermate/charter-ledger/internal/core/services"
	"github.com/chartermate/charter-ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func lineByAccount(t *testing.T, entry domain.PlannedEntry, accountCode string) domain.PlannedLine {
	t.Helper()
	for _, line := range entry.Lines {
		if line.AccountCode == accountCode {
			return line
		}
	}
	t.Fatalf("no line for account %s", accountCode)
	return domain.PlannedLine{}
}

func TestComputeJournals_ExpenseApproved(t *testing.T) {
	payload := domain.ExpenseApprovedData{
		CompanyID:  "comp-1",
		VendorName: "Marina Fuel Co",
		Currency:   "EUR",
		LineItems: []domain.ExpenseLineItem{
			{Description: "Fuel", Amount: dec("600.00"), AccountCode: "6310"},
			{Description: "Mooring", Amount: dec("400.00")},
		},
		VATAmount:   dec("70.00"),
		TotalAmount: dec("1070.00"),
	}

	plan, err := services.ComputeJournals(payload)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.NoError(t, accounting.ValidatePlanBalance(plan))

	entry := plan[0]
	assert.Equal(t, "comp-1", entry.CompanyID)
	assert.Len(t, entry.Lines, 4)

	fuel := lineByAccount(t, entry, "6310")
	assert.Equal(t, domain.Debit, fuel.EntryType)
	assert.True(t, fuel.Amount.Equal(dec("600.00")))

	// Missing account code falls back to the default expense account.
	mooring := lineByAccount(t, entry, services.AccountExpenseDefault)
	assert.True(t, mooring.Amount.Equal(dec("400.00")))

	vat := lineByAccount(t, entry, services.AccountVATInput)
	assert.Equal(t, domain.Debit, vat.EntryType)
	assert.True(t, vat.Amount.Equal(dec("70.00")))

	payable := lineByAccount(t, entry, services.AccountAccountsPayable)
	assert.Equal(t, domain.Credit, payable.EntryType)
	assert.True(t, payable.Amount.Equal(dec("1070.00")))
}

func TestComputeJournals_ExpenseApproved_RoundingResidual(t *testing.T) {
	// Three thirds of 100.00 leave a cent unaccounted for; the largest line
	// (tie broken by lowest order) must absorb it to keep the entry balanced.
	payload := domain.ExpenseApprovedData{
		CompanyID: "comp-1",
		Currency:  "EUR",
		LineItems: []domain.ExpenseLineItem{
			{Description: "A", Amount: dec("33.33")},
			{Description: "B", Amount: dec("33.33")},
			{Description: "C", Amount: dec("33.33")},
		},
		VATAmount:   dec("7.00"),
		TotalAmount: dec("107.00"),
	}

	plan, err := services.ComputeJournals(payload)
	require.NoError(t, err)
	require.NoError(t, accounting.ValidatePlanBalance(plan))

	first := plan[0].Lines[0]
	assert.True(t, first.Amount.Equal(dec("33.34")), "expected first line to absorb the residual, got %s", first.Amount)
}

func TestComputeJournals_ExpenseApproved_NonPositiveTotal(t *testing.T) {
	payload := domain.ExpenseApprovedData{
		CompanyID:   "comp-1",
		Currency:    "EUR",
		LineItems:   []domain.ExpenseLineItem{{Amount: dec("10.00")}},
		TotalAmount: decimal.Zero,
	}

	_, err := services.ComputeJournals(payload)
	assert.Error(t, err)
}

func TestComputeJournals_ExpensePaid_Bank(t *testing.T) {
	payload := domain.ExpensePaidData{
		CompanyID:         "comp-1",
		VendorName:        "Marina Fuel Co",
		PaidFrom:          "bank",
		BankAccountGLCode: "1010",
		PaymentAmount:     dec("1070.00"),
		Currency:          "EUR",
	}

	plan, err := services.ComputeJournals(payload)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.NoError(t, accounting.ValidatePlanBalance(plan))

	payable := lineByAccount(t, plan[0], services.AccountAccountsPayable)
	assert.Equal(t, domain.Debit, payable.EntryType)

	bank := lineByAccount(t, plan[0], "1010")
	assert.Equal(t, domain.Credit, bank.EntryType)
	assert.True(t, bank.Amount.Equal(dec("1070.00")))
}

func TestComputeJournals_ExpensePaid_Cash(t *testing.T) {
	payload := domain.ExpensePaidData{
		CompanyID:     "comp-1",
		PaidFrom:      "cash",
		PaymentAmount: dec("200.00"),
		Currency:      "EUR",
	}

	plan, err := services.ComputeJournals(payload)
	require.NoError(t, err)

	cash := lineByAccount(t, plan[0], services.AccountCash)
	assert.Equal(t, domain.Credit, cash.EntryType)
}

func TestComputeJournals_ExpensePaid_BankWithoutGLCode(t *testing.T) {
	payload := domain.ExpensePaidData{
		CompanyID:     "comp-1",
		PaidFrom:      "bank",
		PaymentAmount: dec("200.00"),
		Currency:      "EUR",
	}

	_, err := services.ComputeJournals(payload)
	assert.Error(t, err)
}

func TestComputeJournals_Intercompany_SymmetricEntries(t *testing.T) {
	payload := domain.ExpensePaidIntercompanyData{
		PayingCompanyID:      "comp-mgmt",
		PayingCompanyName:    "Charter Management BV",
		PaidFrom:             "bank",
		BankAccountGLCode:    "1010",
		ReceivingCompanyID:   "comp-owner",
		ReceivingCompanyName: "Yacht Owner Ltd",
		PaymentAmount:        dec("2500.00"),
		Currency:             "EUR",
		ProjectName:          "SY Meltemi refit",
	}

	plan, err := services.ComputeJournals(payload)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	require.NoError(t, accounting.ValidatePlanBalance(plan))

	payer := plan[0]
	owner := plan[1]
	assert.Equal(t, "comp-mgmt", payer.CompanyID)
	assert.Equal(t, "comp-owner", owner.CompanyID)

	// Payer lends: IC receivable debit, bank credit.
	receivable := lineByAccount(t, payer, services.AccountIntercompanyReceivable)
	assert.Equal(t, domain.Debit, receivable.EntryType)
	bank := lineByAccount(t, payer, "1010")
	assert.Equal(t, domain.Credit, bank.EntryType)

	// Owner owes: AP cleared, IC payable credit.
	payable := lineByAccount(t, owner, services.AccountAccountsPayable)
	assert.Equal(t, domain.Debit, payable.EntryType)
	icPayable := lineByAccount(t, owner, services.AccountIntercompanyPayable)
	assert.Equal(t, domain.Credit, icPayable.EntryType)

	// The two sides mirror the same amount, so the consolidated position nets to zero.
	assert.True(t, receivable.Amount.Equal(icPayable.Amount))
	assert.Contains(t, payer.Description, "SY Meltemi refit")
	assert.Equal(t, payer.Description, owner.Description)
}

func TestComputeJournals_Intercompany_SameCompanyRejected(t *testing.T) {
	payload := domain.ExpensePaidIntercompanyData{
		PayingCompanyID:      "comp-1",
		PayingCompanyName:    "One",
		PaidFrom:             "cash",
		ReceivingCompanyID:   "comp-1",
		ReceivingCompanyName: "One",
		PaymentAmount:        dec("100.00"),
		Currency:             "EUR",
	}

	_, err := services.ComputeJournals(payload)
	assert.Error(t, err)
}

func TestComputeJournals_ReceiptIssued_Bank(t *testing.T) {
	payload := domain.ReceiptIssuedData{
		CompanyID:         "comp-1",
		CustomerName:      "J. Doe",
		ReceiptNumber:     "RC-2026-0042",
		PaymentMethod:     "bank",
		BankAccountGLCode: "1010",
		Subtotal:          dec("6000.00"),
		VATAmount:         dec("420.00"),
		TotalAmount:       dec("6420.00"),
		Currency:          "EUR",
	}

	plan, err := services.ComputeJournals(payload)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.NoError(t, accounting.ValidatePlanBalance(plan))

	entry := plan[0]
	bank := lineByAccount(t, entry, "1010")
	assert.Equal(t, domain.Debit, bank.EntryType)
	assert.True(t, bank.Amount.Equal(dec("6420.00")))

	revenue := lineByAccount(t, entry, services.AccountRevenueDefault)
	assert.Equal(t, domain.Credit, revenue.EntryType)
	assert.True(t, revenue.Amount.Equal(dec("6000.00")))

	vat := lineByAccount(t, entry, services.AccountVATOutput)
	assert.Equal(t, domain.Credit, vat.EntryType)
	assert.True(t, vat.Amount.Equal(dec("420.00")))

	assert.Contains(t, entry.Description, "RC-2026-0042")
}

func TestComputeJournals_ReceiptIssued_CreditSale(t *testing.T) {
	payload := domain.ReceiptIssuedData{
		CompanyID:          "comp-1",
		PaymentMethod:      "credit",
		RevenueAccountCode: "4200",
		Subtotal:           dec("1500.00"),
		TotalAmount:        dec("1500.00"),
		Currency:           "EUR",
	}

	plan, err := services.ComputeJournals(payload)
	require.NoError(t, err)
	require.NoError(t, accounting.ValidatePlanBalance(plan))

	ar := lineByAccount(t, plan[0], services.AccountAccountsReceivable)
	assert.Equal(t, domain.Debit, ar.EntryType)

	revenue := lineByAccount(t, plan[0], "4200")
	assert.Equal(t, domain.Credit, revenue.EntryType)
}

func TestComputeJournals_ReceiptIssued_RevenueAbsorbsRounding(t *testing.T) {
	// Subtotal drifts a cent from total minus VAT; the revenue leg absorbs it.
	payload := domain.ReceiptIssuedData{
		CompanyID:     "comp-1",
		PaymentMethod: "cash",
		Subtotal:      dec("999.99"),
		VATAmount:     dec("70.00"),
		TotalAmount:   dec("1070.00"),
		Currency:      "EUR",
	}

	plan, err := services.ComputeJournals(payload)
	require.NoError(t, err)
	require.NoError(t, accounting.ValidatePlanBalance(plan))

	revenue := lineByAccount(t, plan[0], services.AccountRevenueDefault)
	assert.True(t, revenue.Amount.Equal(dec("1000.00")))
}
