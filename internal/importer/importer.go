// Package importer turns bank statement exports into ledger batches.
package importer

import (
	"io"

	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

type Bank string

const (
	BankCGD Bank = "cgd"
)

// Parser reads one bank's export format. Returned entries carry no category.
type Parser interface {
	Parse(r io.Reader) ([]ledger.BatchEntry, error)
}
