// Package export renders the journal of a period as files a user can keep:
// a CSV of every movement and a plain-text summary, optionally zipped.
package export

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

const (
	JournalFile = "journal.csv"
	SummaryFile = "summary.txt"
)

// Reporter is the slice of the ledger an export reads.
type Reporter interface {
	Report(ctx context.Context, userID uuid.UUID, filter ledger.EntryFilter) ([]*ledger.Entry, error)
}

// Export is the journal of a period with its totals.
type Export struct {
	Filter  ledger.EntryFilter
	Entries []*ledger.Entry
	Income  decimal.Decimal
	Expense decimal.Decimal
}

func (e *Export) Net() decimal.Decimal {
	return e.Income.Sub(e.Expense)
}

type Service struct {
	reporter Reporter
	now      func() time.Time
}

func NewService(reporter Reporter) *Service {
	return &Service{reporter: reporter, now: time.Now}
}

func (s *Service) Export(ctx context.Context, userID uuid.UUID, filter ledger.EntryFilter) (*Export, error) {
	entries, err := s.reporter.Report(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("building report: %w", err)
	}

	out := &Export{Filter: filter, Entries: entries}

	for _, e := range entries {
		switch e.Kind {
		case ledger.KindIncome:
			out.Income = out.Income.Add(e.Amount)
		case ledger.KindExpense:
			out.Expense = out.Expense.Add(e.Amount)
		}
	}

	return out, nil
}

// WriteCSV writes one row per entry, newest first, under a
// date,kind,category,description,amount header.
func (e *Export) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"date", "kind", "category", "description", "amount"}); err != nil {
		return err
	}

	for _, entry := range e.Entries {
		row := []string{
			entry.Date.Format(time.DateOnly),
			string(entry.Kind),
			entry.CategoryName,
			entry.Description,
			entry.Amount.StringFixed(2),
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// Summary is a short human-readable account of the period.
func (e *Export) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Period:   %s\n", period(e.Filter))
	fmt.Fprintf(&sb, "Entries:  %d\n", len(e.Entries))
	fmt.Fprintf(&sb, "Income:   %s\n", e.Income.StringFixed(2))
	fmt.Fprintf(&sb, "Expenses: %s\n", e.Expense.StringFixed(2))
	fmt.Fprintf(&sb, "Net:      %s\n", e.Net().StringFixed(2))

	return sb.String()
}

// WriteZip writes an archive holding JournalFile and SummaryFile.
func (e *Export) WriteZip(w io.Writer, modified time.Time) error {
	zw := zip.NewWriter(w)

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{JournalFile, e.WriteCSV},
		{SummaryFile, func(w io.Writer) error {
			_, err := io.WriteString(w, e.Summary())
			return err
		}},
	}

	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return fmt.Errorf("adding %s: %w", f.name, err)
		}

		if err := f.write(fw); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
	}

	return zw.Close()
}

// Filename names the archive after the period, e.g.
// capital_20260101_20260331.zip.
func (s *Service) Filename(filter ledger.EntryFilter) string {
	from, to := "start", s.now().Format("20060102")
	if filter.StartDate != nil {
		from = filter.StartDate.Format("20060102")
	}

	if filter.EndDate != nil {
		to = filter.EndDate.Format("20060102")
	}

	return fmt.Sprintf("capital_%s_%s.zip", from, to)
}

func period(f ledger.EntryFilter) string {
	switch {
	case f.StartDate != nil && f.EndDate != nil:
		return f.StartDate.Format(time.DateOnly) + " to " + f.EndDate.Format(time.DateOnly)
	case f.StartDate != nil:
		return "since " + f.StartDate.Format(time.DateOnly)
	case f.EndDate != nil:
		return "until " + f.EndDate.Format(time.DateOnly)
	default:
		return "all time"
	}
}
