package category

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

// Category labels incomes and expenses. Defaults have no owner and are
// visible to everyone.
type Category struct {
	ID        uuid.UUID
	Name      string
	Icon      string
	IsDefault bool
	UserID    *uuid.UUID
	CreatedAt time.Time
}

// Usage counts the journal entries that reference a category.
type Usage struct {
	Category *Category
	Incomes  int
	Expenses int
}

func (u Usage) InUse() bool {
	return u.Incomes > 0 || u.Expenses > 0
}

// InUseError reports a category that cannot be deleted because entries
// reference it.
type InUseError struct {
	Incomes  int
	Expenses int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("category is used by %d incomes and %d expenses", e.Incomes, e.Expenses)
}

func (e *InUseError) Unwrap() error {
	return apperr.ErrConflict
}

type Default struct {
	Name string
	Icon string
}

// Defaults are seeded at startup. The ledger's reserved categories are among
// them.
var Defaults = []Default{
	{"Alimentación", "🛒"},
	{"Educación", "📚"},
	{"Ocio", "🎬"},
	{"Otros", "📦"},
	{"Salario", "💼"},
	{"Salud", "💊"},
	{"Servicios", "💡"},
	{"Transporte", "🚌"},
	{"Vivienda", "🏠"},
	{ledger.CategorySavingsPlan, "🐷"},
	{ledger.CategorySubscriptions, "🔁"},
}
