package cgd

type amountMode int

const (
	// One signed column, e.g. "Montante" holding "-10,00".
	amountSigned amountMode = iota
	// Unsigned "Débito" and "Crédito" columns.
	amountDebitCredit
)

// layout is the header of one CGD export.
type layout struct {
	name   string
	date   string
	desc   string
	mode   amountMode
	amount string
	debit  string
	credit string
}

func (l layout) columns() []string {
	if l.mode == amountDebitCredit {
		return []string{l.date, l.desc, l.debit, l.credit}
	}

	return []string{l.date, l.desc, l.amount}
}

// Card exports share "Descrição" with the others, so they are tried first.
var layouts = []layout{
	{name: "cartão", date: "Data", desc: "Descrição", mode: amountDebitCredit, debit: "Débito", credit: "Crédito"},
	{name: "extrato", date: "Data mov.", desc: "Descrição", mode: amountSigned, amount: "Movimento"},
	{name: "conta", date: "Data mov.", desc: "Descrição", mode: amountSigned, amount: "Montante"},
}
