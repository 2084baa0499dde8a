package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/chartermate/charter-ledger/internal/apperrors"
	"github.com/chartermate/charter-ledger/internal/core/domain"
	portssvc "github.com/chartermate/charter-ledger/internal/core/ports/services"
	"github.com/chartermate/charter-ledger/internal/core/services"
	"github.com/chartermate/charter-ledger/internal/dto"
	"github.com/chartermate/charter-ledger/internal/repositories/database/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Flow tests run the processor against the in-memory repositories, covering
// the create-process-inspect path end to end without a database.

func newFlowService(t *testing.T) (portssvc.EventSvcFacade, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	repos := memory.NewRepositoryProvider(store)
	return services.NewEventService(repos.EventRepo, repos.JournalRepo, nil), store
}

func flowLineByAccount(t *testing.T, entry domain.JournalEntry, accountCode string) domain.JournalEntryLine {
	t.Helper()
	for _, line := range entry.Lines {
		if line.AccountCode == accountCode {
			return line
		}
	}
	t.Fatalf("no line for account %s", accountCode)
	return domain.JournalEntryLine{}
}

func TestFlow_ExpenseApprovedEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFlowService(t)

	data, err := json.Marshal(domain.ExpenseApprovedData{
		CompanyID:  "comp-1",
		VendorName: "Sailmaker",
		Currency:   "THB",
		LineItems: []domain.ExpenseLineItem{
			{Description: "New genoa", Amount: dec("1000.00"), AccountCode: "6000"},
		},
		VATAmount:   dec("70.00"),
		TotalAmount: dec("1070.00"),
	})
	require.NoError(t, err)

	req := dto.CreateEventRequest{
		EventType:          domain.EventExpenseApproved,
		EventDate:          time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		AffectedCompanies:  []string{"comp-1"},
		EventData:          data,
		SourceDocumentType: "EXPENSE",
		SourceDocumentID:   "exp-1001",
	}

	event, result, err := svc.CreateAndProcess(ctx, req, "user-1")
	require.NoError(t, err)
	require.True(t, result.Success, "processing failed: %s", result.Error)
	require.Len(t, result.JournalEntryIDs, 1)
	assert.Equal(t, domain.EventProcessed, event.Status)

	journals, err := svc.GetEventJournals(ctx, event.EventID)
	require.NoError(t, err)
	require.Len(t, journals, 1)

	entry := journals[0]
	assert.True(t, entry.TotalDebit.Equal(dec("1070.00")))
	assert.True(t, entry.TotalCredit.Equal(dec("1070.00")))
	assert.True(t, entry.IsAutoGenerated)
	require.Len(t, entry.Lines, 3)

	expense := flowLineByAccount(t, entry, "6000")
	assert.Equal(t, domain.Debit, expense.EntryType)
	assert.True(t, expense.Amount.Equal(dec("1000.00")))

	vat := flowLineByAccount(t, entry, services.AccountVATInput)
	assert.Equal(t, domain.Debit, vat.EntryType)
	assert.True(t, vat.Amount.Equal(dec("70.00")))

	payable := flowLineByAccount(t, entry, services.AccountAccountsPayable)
	assert.Equal(t, domain.Credit, payable.EntryType)
	assert.True(t, payable.Amount.Equal(dec("1070.00")))
}

func TestFlow_DuplicateSourceDocument(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFlowService(t)

	data, _ := json.Marshal(domain.ReceiptIssuedData{
		CompanyID:     "comp-1",
		PaymentMethod: "cash",
		Subtotal:      dec("500.00"),
		TotalAmount:   dec("500.00"),
		Currency:      "EUR",
	})
	req := dto.CreateEventRequest{
		EventType:          domain.EventReceiptIssued,
		EventDate:          time.Now().UTC(),
		AffectedCompanies:  []string{"comp-1"},
		EventData:          data,
		SourceDocumentType: "RECEIPT",
		SourceDocumentID:   "rcpt-7",
	}

	_, result, err := svc.CreateAndProcess(ctx, req, "user-1")
	require.NoError(t, err)
	require.True(t, result.Success)

	exists, err := svc.CheckDuplicate(ctx, domain.EventReceiptIssued, "RECEIPT", "rcpt-7")
	require.NoError(t, err)
	assert.True(t, exists)

	_, _, err = svc.CreateAndProcess(ctx, req, "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestFlow_IntercompanyLinksBothHeadersToOneEvent(t *testing.T) {
	ctx := context.Background()
	svc, store := newFlowService(t)

	data, _ := json.Marshal(domain.ExpensePaidIntercompanyData{
		PayingCompanyID:      "comp-mgmt",
		PayingCompanyName:    "Charter Management BV",
		PaidFrom:             "bank",
		BankAccountGLCode:    "1010",
		ReceivingCompanyID:   "comp-owner",
		ReceivingCompanyName: "Yacht Owner Ltd",
		PaymentAmount:        dec("1000.00"),
		Currency:             "THB",
	})
	req := dto.CreateEventRequest{
		EventType:          domain.EventExpensePaidIntercompany,
		EventDate:          time.Now().UTC(),
		AffectedCompanies:  []string{"comp-mgmt", "comp-owner"},
		EventData:          data,
		SourceDocumentType: "EXPENSE",
		SourceDocumentID:   "exp-ic-1",
	}

	event, result, err := svc.CreateAndProcess(ctx, req, "user-1")
	require.NoError(t, err)
	require.True(t, result.Success, "processing failed: %s", result.Error)
	require.Len(t, result.JournalEntryIDs, 2)
	assert.Equal(t, 2, store.JournalCount())
	assert.Equal(t, 2, store.LinkCount())

	journals, err := svc.GetEventJournals(ctx, event.EventID)
	require.NoError(t, err)
	require.Len(t, journals, 2)
	assert.Equal(t, "comp-mgmt", journals[0].CompanyID)
	assert.Equal(t, "comp-owner", journals[1].CompanyID)
	for _, j := range journals {
		assert.True(t, j.TotalDebit.Equal(dec("1000.00")))
		assert.True(t, j.TotalCredit.Equal(dec("1000.00")))
		assert.Equal(t, "EXPENSE", j.SourceDocumentType)
		assert.Equal(t, "exp-ic-1", j.SourceDocumentID)
	}
}

func TestFlow_FailedEventRetrySucceedsAfterFix(t *testing.T) {
	ctx := context.Background()
	svc, store := newFlowService(t)

	data, _ := json.Marshal(domain.ReceiptIssuedData{
		CompanyID:     "comp-1",
		PaymentMethod: "cash",
		Subtotal:      dec("200.00"),
		TotalAmount:   dec("200.00"),
		Currency:      "EUR",
	})
	req := dto.CreateEventRequest{
		EventType:         domain.EventReceiptIssued,
		EventDate:         time.Now().UTC(),
		AffectedCompanies: []string{"comp-1"},
		EventData:         data,
	}

	// First attempt fails at commit time (e.g. storage outage).
	store.FailBeforeCommit = func() error { return assert.AnError }

	event, result, err := svc.CreateAndProcess(ctx, req, "user-1")
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, domain.EventFailed, event.Status)
	assert.Zero(t, store.JournalCount())

	// The outage clears; a retry must post and bump the counter.
	store.FailBeforeCommit = nil

	retryResult, err := svc.RetryEvent(ctx, event.EventID, "user-1")
	require.NoError(t, err)
	assert.True(t, retryResult.Success)
	assert.Equal(t, 1, store.JournalCount())

	stored, err := svc.GetEvent(ctx, event.EventID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventProcessed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Empty(t, stored.ErrorMessage)
}
