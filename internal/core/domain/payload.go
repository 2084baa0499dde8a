package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// EventPayload is the closed set of event data shapes, one per EventType.
// The marker method seals the union so the rule set can match exhaustively.
type EventPayload interface {
	eventPayload()
}

// ExpenseLineItem is one line of an approved expense.
type ExpenseLineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	AccountCode string          `json:"accountCode"` // falls back to the default expense account when empty
}

// ExpenseApprovedData is the payload for EXPENSE_APPROVED.
type ExpenseApprovedData struct {
	CompanyID   string            `json:"companyID" validate:"required"`
	VendorName  string            `json:"vendorName"`
	Currency    string            `json:"currency" validate:"required,len=3"`
	LineItems   []ExpenseLineItem `json:"lineItems" validate:"required,min=1,dive"`
	VATAmount   decimal.Decimal   `json:"vatAmount"`
	TotalAmount decimal.Decimal   `json:"totalAmount" validate:"required"` // subtotal + VAT
}

func (ExpenseApprovedData) eventPayload() {}

// ExpensePaidData is the payload for EXPENSE_PAID (single company).
type ExpensePaidData struct {
	CompanyID         string          `json:"companyID" validate:"required"`
	VendorName        string          `json:"vendorName"`
	Description       string          `json:"description"`
	PaidFrom          string          `json:"paidFrom" validate:"required,oneof=bank cash"`
	BankAccountID     string          `json:"bankAccountID"`
	BankAccountGLCode string          `json:"bankAccountGLCode" validate:"required_unless=PaidFrom cash"`
	PaymentAmount     decimal.Decimal `json:"paymentAmount" validate:"required"`
	WithholdingAmount decimal.Decimal `json:"withholdingAmount"` // drives WHT certificate issuance only
	Currency          string          `json:"currency" validate:"required,len=3"`
}

func (ExpensePaidData) eventPayload() {}

// ExpensePaidIntercompanyData is the payload for EXPENSE_PAID_INTERCOMPANY:
// the paying company settles an expense owned by another company.
type ExpensePaidIntercompanyData struct {
	PayingCompanyID      string          `json:"payingCompanyID" validate:"required"`
	PayingCompanyName    string          `json:"payingCompanyName" validate:"required"`
	PaidFrom             string          `json:"paidFrom" validate:"required,oneof=bank cash"`
	BankAccountID        string          `json:"bankAccountID"`
	BankAccountGLCode    string          `json:"bankAccountGLCode" validate:"required_unless=PaidFrom cash"`
	ReceivingCompanyID   string          `json:"receivingCompanyID" validate:"required"`
	ReceivingCompanyName string          `json:"receivingCompanyName" validate:"required"`
	PaymentAmount        decimal.Decimal `json:"paymentAmount" validate:"required"`
	Currency             string          `json:"currency" validate:"required,len=3"`
	ProjectID            string          `json:"projectID"`
	ProjectName          string          `json:"projectName"`
}

func (ExpensePaidIntercompanyData) eventPayload() {}

// ReceiptIssuedData is the payload for RECEIPT_ISSUED.
type ReceiptIssuedData struct {
	CompanyID          string          `json:"companyID" validate:"required"`
	CustomerName       string          `json:"customerName"`
	ReceiptNumber      string          `json:"receiptNumber"`
	PaymentMethod      string          `json:"paymentMethod" validate:"required,oneof=bank cash credit"`
	BankAccountGLCode  string          `json:"bankAccountGLCode" validate:"required_if=PaymentMethod bank"`
	RevenueAccountCode string          `json:"revenueAccountCode"` // falls back to the default revenue account
	Subtotal           decimal.Decimal `json:"subtotal" validate:"required"`
	VATAmount          decimal.Decimal `json:"vatAmount"`
	TotalAmount        decimal.Decimal `json:"totalAmount" validate:"required"`
	Currency           string          `json:"currency" validate:"required,len=3"`
}

func (ReceiptIssuedData) eventPayload() {}

// DecodeEventData parses raw event data into the typed payload for the given
// event type. An unknown event type or malformed JSON is a validation failure.
func DecodeEventData(eventType EventType, data json.RawMessage) (EventPayload, error) {
	decode := func(target any) error {
		if len(data) == 0 {
			return fmt.Errorf("event data is empty")
		}
		return json.Unmarshal(data, target)
	}

	switch eventType {
	case EventExpenseApproved:
		var p ExpenseApprovedData
		if err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case EventExpensePaid:
		var p ExpensePaidData
		if err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case EventExpensePaidIntercompany:
		var p ExpensePaidIntercompanyData
		if err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	case EventReceiptIssued:
		var p ReceiptIssuedData
		if err := decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}
