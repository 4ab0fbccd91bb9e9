package cgd_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/capital/internal/importer/cgd"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

type want struct {
	date   time.Time
	kind   ledger.Kind
	amount string
	desc   string
}

func assertEntries(t *testing.T, want []want, got []ledger.BatchEntry) {
	t.Helper()
	require.Len(t, got, len(want))

	for i, w := range want {
		assert.Equal(t, w.date, got[i].Date, "entry %d date", i)
		assert.Equal(t, w.kind, got[i].Kind, "entry %d kind", i)
		assert.True(t, decimal.RequireFromString(w.amount).Equal(got[i].Amount), "entry %d amount: got %s", i, got[i].Amount)
		assert.Equal(t, w.desc, got[i].Description, "entry %d description", i)
		assert.Equal(t, ledger.BatchEntry{}.CategoryID, got[i].CategoryID)
	}
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []want
	}{
		{
			name: "Conta",
			csv: `Consultar saldos e movimentos à ordem - 31-01-2026;"=""0000"""
Nome cliente;JOHN DOE

Dados da conta
Saldo contabilístico;1.000,00 EUR

Data mov.;Data-valor;Descrição;Montante;Saldo contabilístico após movimento
30-01-2026;30-01-2026;INSTITUTO GESTAO FINA;-588,74;48.825,46
09-01-2026;09-01-2026;TFI Wise;8.608,52;52.532,78
`,
			want: []want{
				{date(2026, 1, 30), ledger.KindExpense, "588.74", "INSTITUTO GESTAO FINA"},
				{date(2026, 1, 9), ledger.KindIncome, "8608.52", "TFI Wise"},
			},
		},
		{
			name: "Extrato",
			csv: `Consultar extrato - 15-02-2026 : 0829015676030
Intervalo de ;01-02-2026 a 14-02-2026

Data mov. ;Data valor ;Origem ;Descrição ;Movimento ;Estorno ;Saldo contabilístico após movimento ;
13-02-2026;13-02-2026;"=""0003""";PAGAMENTO TSU ;-608,13;  ;41.393,66;
04-02-2026;04-02-2026;SIBS ;TFI Wise ;4.324,06;  ;51.302,85;
`,
			want: []want{
				{date(2026, 2, 13), ledger.KindExpense, "608.13", "PAGAMENTO TSU"},
				{date(2026, 2, 4), ledger.KindIncome, "4324.06", "TFI Wise"},
			},
		},
		{
			name: "Cartao",
			csv: `Consultar saldos e movimentos de cartões - 15-02-2026
Conta cartão ;4163 **** **** 8016 - EUR - Business Débito

Data ;Data valor ;Descrição ;Débito ;Crédito ;
16-12-2025 ;14-12-2025 ;PA GONDOMAR         GONDOMAR ;64,00 ; ;
18-12-2025 ;17-12-2025 ;REFUND AMAZON ;  ;25,00 ;
 ; ; ; ;Página 1/2 ;
`,
			want: []want{
				{date(2025, 12, 16), ledger.KindExpense, "64", "PA GONDOMAR         GONDOMAR"},
				{date(2025, 12, 18), ledger.KindIncome, "25", "REFUND AMAZON"},
			},
		},
		{
			name: "DifferentColumnOrder",
			csv: `Random;MetaData
Montante;Descrição;Data mov.;Ignored
-10,00;TEST_ORDER;30-01-2026;XXX
`,
			want: []want{
				{date(2026, 1, 30), ledger.KindExpense, "10", "TEST_ORDER"},
			},
		},
		{
			name: "LargeAmount",
			csv: `Data mov.;Descrição;Montante
30-01-2026;BIG TRANSFER;-1.234.567,89
`,
			want: []want{
				{date(2026, 1, 30), ledger.KindExpense, "1234567.89", "BIG TRANSFER"},
			},
		},
		{
			name: "SkipsFootersAndZeroRows",
			csv: `Data mov.;Descrição;Montante
30-01-2026;TEST;-10,00
31-01-2026;ZERO;0,00
Totais;;;;
`,
			want: []want{
				{date(2026, 1, 30), ledger.KindExpense, "10", "TEST"},
			},
		},
		{
			name: "HeaderOnly",
			csv:  `Data mov.;Data-valor;Descrição;Montante`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cgd.NewParser().Parse(strings.NewReader(tt.csv))
			require.NoError(t, err)
			assertEntries(t, tt.want, got)
		})
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantMsg string
	}{
		{
			name:    "EmptyFile",
			csv:     "",
			wantMsg: "no CGD header",
		},
		{
			name:    "UnknownColumns",
			csv:     "date,amount\n2026-01-01,10\n",
			wantMsg: "no CGD header",
		},
		{
			name:    "MissingDescription",
			csv:     "Data mov.;Descrição;Montante\n30-01-2026;;-10,00\n",
			wantMsg: "line 2: missing description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cgd.NewParser().Parse(strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParser_Latin1Encoding(t *testing.T) {
	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte("Data mov.;Descrição;Montante\n30-01-2026;CAFÉ CENTRAL;-10,00\n"))
	require.NoError(t, err)

	got, err := cgd.NewParser().Parse(bytes.NewReader(latin1))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "CAFÉ CENTRAL", got[0].Description)
}
