// Package cgd parses Caixa Geral de Depósitos CSV exports: account
// movements, account extracts and card statements.
package cgd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/encoding"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

const dateLayout = "02-01-2006"

var errNoHeader = errors.New("no CGD header found: expected the columns of an account, extract or card export")

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]ledger.BatchEntry, error) {
	charset, utf8r, err := encoding.Detect(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	l, cols, header := findHeader(rows)
	if l == nil {
		return nil, errNoHeader
	}

	slog.Debug("parsing cgd export", "layout", l.name, "charset", charset, "rows", len(rows)-header-1)

	return l.entries(cols, rows[header+1:], header+2)
}

func findHeader(rows [][]string) (*layout, map[string]int, int) {
	for i, row := range rows {
		cols := make(map[string]int, len(row))
		for j, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = j
			}
		}

		for k := range layouts {
			if layouts[k].matches(cols) {
				return &layouts[k], cols, i
			}
		}
	}

	return nil, nil, 0
}

func (l *layout) matches(cols map[string]int) bool {
	for _, c := range l.columns() {
		if _, ok := cols[c]; !ok {
			return false
		}
	}

	return true
}

// entries converts data rows. Rows without a parseable date or a non-zero
// amount are footers or separators and are skipped. firstLine is the 1-based
// file line of rows[0].
func (l *layout) entries(cols map[string]int, rows [][]string, firstLine int) ([]ledger.BatchEntry, error) {
	var out []ledger.BatchEntry

	for i, row := range rows {
		date, err := time.Parse(dateLayout, cell(row, cols[l.date]))
		if err != nil {
			continue
		}

		kind, amount, ok := l.amount(cols, row)
		if !ok {
			continue
		}

		desc := cell(row, cols[l.desc])
		if desc == "" {
			return nil, fmt.Errorf("line %d: missing description", firstLine+i)
		}

		out = append(out, ledger.BatchEntry{
			Kind:        kind,
			Amount:      amount,
			Description: desc,
			Date:        date,
		})
	}

	return out, nil
}

func (l *layout) amount(cols map[string]int, row []string) (ledger.Kind, decimal.Decimal, bool) {
	if l.mode == amountSigned {
		d, err := parseAmount(cell(row, cols[l.amount]))
		if err != nil || d.IsZero() {
			return "", decimal.Zero, false
		}

		if d.IsNegative() {
			return ledger.KindExpense, d.Neg(), true
		}

		return ledger.KindIncome, d, true
	}

	if d, err := parseAmount(cell(row, cols[l.debit])); err == nil && !d.IsZero() {
		return ledger.KindExpense, d.Abs(), true
	}

	if d, err := parseAmount(cell(row, cols[l.credit])); err == nil && !d.IsZero() {
		return ledger.KindIncome, d.Abs(), true
	}

	return "", decimal.Zero, false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
