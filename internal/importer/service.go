package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/importer/cgd"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

// Categorizer assigns categories to uncategorized entries.
type Categorizer interface {
	Categorize(ctx context.Context, userID uuid.UUID, entries []ledger.BatchEntry, fallback uuid.UUID) ([]ledger.BatchEntry, error)
}

// Journal writes batches to the ledger.
type Journal interface {
	ImportBatch(ctx context.Context, userID uuid.UUID, entries []ledger.BatchEntry) (*ledger.ImportResult, error)
}

type Service struct {
	parsers     map[Bank]Parser
	categorizer Categorizer
	journal     Journal
}

func NewService(categorizer Categorizer, journal Journal) *Service {
	return &Service{
		parsers: map[Bank]Parser{
			BankCGD: cgd.NewParser(),
		},
		categorizer: categorizer,
		journal:     journal,
	}
}

// Banks lists the supported export formats.
func (s *Service) Banks() []Bank {
	banks := make([]Bank, 0, len(s.parsers))
	for b := range s.parsers {
		banks = append(banks, b)
	}

	slices.Sort(banks)

	return banks
}

// Parse reads a statement without touching the ledger.
func (s *Service) Parse(bank Bank, r io.Reader) ([]ledger.BatchEntry, error) {
	p, ok := s.parsers[bank]
	if !ok {
		return nil, apperr.Invalid("bank", fmt.Sprintf("unsupported bank %q", bank))
	}

	entries, err := p.Parse(r)
	if err != nil {
		return nil, apperr.Invalid("file", err.Error())
	}

	return entries, nil
}

// Import parses a statement, categorizes its rows and hands them to the
// ledger. When the ledger reports duplicates nothing is written and the
// result lists the new rows and the conflicts for review.
func (s *Service) Import(ctx context.Context, userID uuid.UUID, bank Bank, r io.Reader, fallback uuid.UUID) (*ledger.ImportResult, error) {
	entries, err := s.Parse(bank, r)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, apperr.Invalid("file", "no movements found")
	}

	entries, err = s.categorizer.Categorize(ctx, userID, entries, fallback)
	if err != nil {
		return nil, err
	}

	res, err := s.journal.ImportBatch(ctx, userID, entries)
	if err != nil {
		return nil, err
	}

	slog.Info("imported statement",
		"bank", bank,
		"rows", len(entries),
		"imported", len(res.Imported),
		"conflicts", len(res.Conflicts))

	return res, nil
}
