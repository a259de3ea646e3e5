package jobs

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"

	"github.com/shopspring/decimal"
)

// OverdueEntry is one unpaid invoice past its due date.
type OverdueEntry struct {
	InvoiceID     string
	InvoiceNumber string
	CustomerID    string
	VendorID      string
	Balance       decimal.Decimal
	DaysOverdue   int
}

// OverdueReport summarises unpaid invoices past their due date.
type OverdueReport struct {
	GeneratedAt      time.Time
	Entries          []OverdueEntry
	TotalOutstanding decimal.Decimal
}

// BuildOverdueReport lists overdue invoices with their outstanding balance.
func (jr *JobRunner) BuildOverdueReport(ctx context.Context) (*OverdueReport, error) {
	invoices, err := jr.services.Invoices.ListOverdue(ctx)
	if err != nil {
		return nil, err
	}

	now := jr.now()
	report := &OverdueReport{GeneratedAt: now, TotalOutstanding: decimal.Zero}
	for i := range invoices {
		inv := &invoices[i]
		entry := OverdueEntry{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			CustomerID:    inv.CustomerID,
			VendorID:      inv.VendorID,
			Balance:       inv.Balance(),
		}
		if inv.DueAt != nil {
			entry.DaysOverdue = int(now.Sub(*inv.DueAt).Hours() / 24)
		}
		report.Entries = append(report.Entries, entry)
		report.TotalOutstanding = report.TotalOutstanding.Add(entry.Balance)
	}
	report.TotalOutstanding = domain.Round2(report.TotalOutstanding)
	return report, nil
}

// ReportOverdueInvoices logs every overdue invoice and the total outstanding.
func (jr *JobRunner) ReportOverdueInvoices() {
	jr.runWithRecovery("ReportOverdueInvoices", func() {
		ctx := context.Background()

		report, err := jr.BuildOverdueReport(ctx)
		if err != nil {
			logger.Error("Failed to list overdue invoices", "error", err)
			return
		}

		for _, e := range report.Entries {
			logger.Warn("Invoice overdue",
				"invoice_number", e.InvoiceNumber,
				"invoice_id", e.InvoiceID,
				"customer_id", e.CustomerID,
				"vendor_id", e.VendorID,
				"balance", e.Balance.StringFixed(2),
				"days_overdue", e.DaysOverdue)
		}

		logger.Info("Overdue invoice report",
			"count", len(report.Entries),
			"total_outstanding", report.TotalOutstanding.StringFixed(2))
	})
}
