package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/importer"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

const statement = `Data mov.;Descrição;Montante
30-01-2026;PINGO DOCE;-12,40
31-01-2026;SALARIO;1.500,00
`

type stubCategorizer struct {
	category uuid.UUID
	err      error
}

func (s *stubCategorizer) Categorize(_ context.Context, _ uuid.UUID, entries []ledger.BatchEntry, _ uuid.UUID) ([]ledger.BatchEntry, error) {
	if s.err != nil {
		return nil, s.err
	}

	out := make([]ledger.BatchEntry, len(entries))
	for i, e := range entries {
		e.CategoryID = s.category
		out[i] = e
	}

	return out, nil
}

type stubJournal struct {
	got []ledger.BatchEntry
	res *ledger.ImportResult
}

func (s *stubJournal) ImportBatch(_ context.Context, _ uuid.UUID, entries []ledger.BatchEntry) (*ledger.ImportResult, error) {
	s.got = entries
	return s.res, nil
}

func TestService_Import(t *testing.T) {
	category := uuid.New()

	t.Run("Success", func(t *testing.T) {
		journal := &stubJournal{res: &ledger.ImportResult{Imported: []*ledger.Entry{{}, {}}}}
		svc := importer.NewService(&stubCategorizer{category: category}, journal)

		res, err := svc.Import(context.Background(), uuid.New(), importer.BankCGD, strings.NewReader(statement), uuid.Nil)
		require.NoError(t, err)
		assert.Len(t, res.Imported, 2)

		require.Len(t, journal.got, 2)
		assert.Equal(t, category, journal.got[0].CategoryID)
		assert.Equal(t, ledger.KindExpense, journal.got[0].Kind)
		assert.Equal(t, ledger.KindIncome, journal.got[1].Kind)
	})

	t.Run("UnknownBank", func(t *testing.T) {
		svc := importer.NewService(&stubCategorizer{}, &stubJournal{})

		_, err := svc.Import(context.Background(), uuid.New(), "bpi", strings.NewReader(statement), uuid.Nil)

		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "bank")
	})

	t.Run("UnreadableFile", func(t *testing.T) {
		svc := importer.NewService(&stubCategorizer{}, &stubJournal{})

		_, err := svc.Import(context.Background(), uuid.New(), importer.BankCGD, strings.NewReader("hello"), uuid.Nil)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("NoMovements", func(t *testing.T) {
		journal := &stubJournal{}
		svc := importer.NewService(&stubCategorizer{}, journal)

		_, err := svc.Import(context.Background(), uuid.New(), importer.BankCGD, strings.NewReader("Data mov.;Descrição;Montante\n"), uuid.Nil)
		assert.True(t, apperr.IsValidation(err))
		assert.Nil(t, journal.got)
	})

	t.Run("CategorizeError", func(t *testing.T) {
		journal := &stubJournal{}
		svc := importer.NewService(&stubCategorizer{err: errors.New("boom")}, journal)

		_, err := svc.Import(context.Background(), uuid.New(), importer.BankCGD, strings.NewReader(statement), uuid.Nil)
		assert.EqualError(t, err, "boom")
		assert.Nil(t, journal.got)
	})
}

func TestService_Banks(t *testing.T) {
	svc := importer.NewService(nil, nil)
	assert.Equal(t, []importer.Bank{importer.BankCGD}, svc.Banks())
}
