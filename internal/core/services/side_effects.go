package services

import (
	"context"
	"log/slog"

	portssvc "github.com/chartermate/charter-ledger/internal/core/ports/services"
	"github.com/chartermate/charter-ledger/internal/middleware"
)

// loggingWHTIssuer records certificate requests without issuing anything.
// It stands in until the certificate generator service is wired up.
type loggingWHTIssuer struct{}

// NewLoggingWHTIssuer returns a WHT certificate issuer that only logs.
func NewLoggingWHTIssuer() portssvc.WHTCertificateIssuer {
	return &loggingWHTIssuer{}
}

func (l *loggingWHTIssuer) IssueCertificate(ctx context.Context, req portssvc.WHTCertificateRequest) error {
	middleware.GetLoggerFromCtx(ctx).Info("WHT certificate requested",
		slog.String("event_id", req.EventID),
		slog.String("company_id", req.CompanyID),
		slog.String("vendor", req.VendorName),
		slog.String("amount", req.WithholdingAmount.String()),
		slog.String("currency", req.Currency))
	return nil
}
