package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// WHTCertificateRequest carries what the certificate issuer needs after an
// expense payment with withholding has been posted.
type WHTCertificateRequest struct {
	EventID           string
	CompanyID         string
	VendorName        string
	WithholdingAmount decimal.Decimal
	Currency          string
	PaymentDate       time.Time
}

// WHTCertificateIssuer issues withholding-tax certificates after a successful
// EXPENSE_PAID posting. Failures must not affect the posted journals; the
// processor only logs them.
type WHTCertificateIssuer interface {
	IssueCertificate(ctx context.Context, req WHTCertificateRequest) error
}
