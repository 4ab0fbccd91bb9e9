package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
)

type PlanParams struct {
	Name          string
	TargetAmount  decimal.Decimal
	InitialAmount *decimal.Decimal
	StartDate     string
	TargetDate    string
}

// PlanPatch lists the plan fields an update may change. Nil members are left
// untouched.
type PlanPatch struct {
	Name         *string
	StartDate    *string
	TargetAmount *decimal.Decimal
	TargetDate   *string
}

func (p PlanPatch) empty() bool {
	return p.Name == nil && p.StartDate == nil && p.TargetAmount == nil && p.TargetDate == nil
}

type DepositParams struct {
	Amount      decimal.Decimal
	Date        string
	Description *string
}

// PlanMovement is the outcome of an operation that moved money into a plan.
type PlanMovement struct {
	Plan    *SavingsPlan
	Expense *Expense // nil when nothing was deposited
	Balance decimal.Decimal
}

type PlanDeletion struct {
	Plan            *SavingsPlan
	Reversed        decimal.Decimal
	ExpensesRemoved int
	Balance         decimal.Decimal
}

// checkPlan applies the rules shared by create and update.
func checkPlan(v *apperr.Validator, plan *SavingsPlan) {
	v.Check(plan.Name != "", "name", "is required")
	checkLen(v, "name", plan.Name, maxNameLen)
	checkAmount(v, "target_amount", plan.TargetAmount)

	if !plan.StartDate.IsZero() && !plan.TargetDate.IsZero() && plan.StartDate.After(plan.TargetDate) {
		v.Add("target_date", "must not be before start_date")
	}
}

func (s *Service) CreatePlan(ctx context.Context, userID uuid.UUID, p PlanParams) (*PlanMovement, error) {
	var v apperr.Validator

	plan := &SavingsPlan{
		UserID:       userID,
		Name:         strings.TrimSpace(p.Name),
		TargetAmount: money(p.TargetAmount),
		StartDate:    parseDate(&v, "start_date", p.StartDate),
		TargetDate:   parseDate(&v, "target_date", p.TargetDate),
		Accumulated:  decimal.Zero,
	}

	if p.InitialAmount == nil {
		v.Add("initial_amount", "is required")
	} else {
		plan.InitialAmount = money(*p.InitialAmount)
		v.Check(!plan.InitialAmount.IsNegative(), "initial_amount", "must not be negative")
		checkRange(&v, "initial_amount", plan.InitialAmount)
	}

	checkPlan(&v, plan)

	if err := v.Err(); err != nil {
		return nil, err
	}

	out := &PlanMovement{Plan: plan}

	err := s.withAccount(ctx, userID, func(tx Tx, acct *Account) error {
		categoryID, err := reservedCategory(ctx, tx, CategorySavingsPlan)
		if err != nil {
			return err
		}

		if err := tx.CreatePlan(ctx, plan); err != nil {
			return err
		}

		out.Balance = acct.CurrentCapital

		if !plan.InitialAmount.IsPositive() {
			return nil
		}

		out.Expense, out.Balance, err = depositInto(ctx, tx, plan, categoryID, plan.InitialAmount, plan.StartDate, initialDepositDescription)

		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// depositInto books amount as an expense linked to plan, grows the plan and
// debits its owner. It returns the expense and the new balance.
func depositInto(ctx context.Context, tx Tx, plan *SavingsPlan, categoryID uuid.UUID, amount decimal.Decimal, date time.Time, desc string) (*Expense, decimal.Decimal, error) {
	planID := plan.ID

	ex := &Expense{
		UserID:        plan.UserID,
		CategoryID:    categoryID,
		SavingsPlanID: &planID,
		Amount:        amount,
		Description:   desc,
		Date:          date,
	}

	if err := tx.CreateExpense(ctx, ex); err != nil {
		return nil, decimal.Zero, err
	}

	accumulated, err := tx.AddToPlan(ctx, plan.ID, amount)
	if err != nil {
		return nil, decimal.Zero, err
	}

	plan.Accumulated = accumulated

	balance, err := Debit(ctx, tx, plan.UserID, amount)
	if err != nil {
		return nil, decimal.Zero, err
	}

	return ex, balance, nil
}

// ownedPlan locks the plan and checks that userID owns it.
func ownedPlan(ctx context.Context, tx Tx, userID, planID uuid.UUID) (*SavingsPlan, error) {
	plan, err := tx.LockPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	if plan.UserID != userID {
		return nil, apperr.Forbidden("savings plan")
	}

	return plan, nil
}

// Deposit resolves the plan before validating p, so a missing or foreign plan
// is reported as such whatever the payload holds.
func (s *Service) Deposit(ctx context.Context, userID, planID uuid.UUID, p DepositParams) (*PlanMovement, error) {
	out := &PlanMovement{}

	err := s.withAccount(ctx, userID, func(tx Tx, _ *Account) error {
		plan, err := ownedPlan(ctx, tx, userID, planID)
		if err != nil {
			return err
		}

		amount, date, desc, err := p.validate()
		if err != nil {
			return err
		}

		categoryID, err := reservedCategory(ctx, tx, CategorySavingsPlan)
		if err != nil {
			return err
		}

		out.Plan = plan
		out.Expense, out.Balance, err = depositInto(ctx, tx, plan, categoryID, amount, date, desc)

		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (p DepositParams) validate() (decimal.Decimal, time.Time, string, error) {
	var v apperr.Validator

	amount := money(p.Amount)
	checkAmount(&v, "amount", amount)
	date := parseDate(&v, "date", p.Date)

	desc := depositDescription
	if p.Description != nil && strings.TrimSpace(*p.Description) != "" {
		desc = strings.TrimSpace(*p.Description)
		checkLen(&v, "description", desc, maxDescriptionLen)
	}

	return amount, date, desc, v.Err()
}

// UpdatePlan applies patch and validates the result the way CreatePlan does.
// It never touches the ledger.
func (s *Service) UpdatePlan(ctx context.Context, userID, planID uuid.UUID, patch PlanPatch) (*SavingsPlan, error) {
	var out *SavingsPlan

	err := s.withAccount(ctx, userID, func(tx Tx, _ *Account) error {
		plan, err := ownedPlan(ctx, tx, userID, planID)
		if err != nil {
			return err
		}

		if patch.empty() {
			out = plan
			return nil
		}

		var v apperr.Validator

		updated := *plan
		if patch.Name != nil {
			updated.Name = strings.TrimSpace(*patch.Name)
		}

		if patch.StartDate != nil {
			updated.StartDate = parseDate(&v, "start_date", *patch.StartDate)
		}

		if patch.TargetDate != nil {
			updated.TargetDate = parseDate(&v, "target_date", *patch.TargetDate)
		}

		if patch.TargetAmount != nil {
			updated.TargetAmount = money(*patch.TargetAmount)
		}

		checkPlan(&v, &updated)

		if err := v.Err(); err != nil {
			return err
		}

		if err := tx.UpdatePlan(ctx, &updated); err != nil {
			return err
		}

		out = &updated

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// DeletePlan removes the plan and every expense linked to it, crediting the
// owner with the sum of the removed expenses.
func (s *Service) DeletePlan(ctx context.Context, userID, planID uuid.UUID) (*PlanDeletion, error) {
	out := &PlanDeletion{}

	err := s.withAccount(ctx, userID, func(tx Tx, acct *Account) error {
		plan, err := ownedPlan(ctx, tx, userID, planID)
		if err != nil {
			return err
		}

		removed, err := tx.DeletePlanExpenses(ctx, plan.ID)
		if err != nil {
			return err
		}

		reversed := decimal.Zero
		for _, ex := range removed {
			reversed = reversed.Add(ex.Amount)
		}

		if !reversed.Equal(plan.Accumulated) {
			slog.Warn("savings plan accumulated amount out of sync",
				"plan_id", plan.ID, "accumulated", plan.Accumulated.String(), "recomputed", reversed.String())
		}

		out.Balance = acct.CurrentCapital

		if reversed.IsPositive() {
			out.Balance, err = Credit(ctx, tx, userID, reversed)
			if err != nil {
				return err
			}
		}

		plan.Accumulated = decimal.Zero

		if err := tx.DeletePlan(ctx, plan.ID); err != nil {
			return err
		}

		out.Plan = plan
		out.Reversed = reversed
		out.ExpensesRemoved = len(removed)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Service) GetPlan(ctx context.Context, userID, planID uuid.UUID) (*SavingsPlan, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	if plan.UserID != userID {
		return nil, apperr.Forbidden("savings plan")
	}

	return plan, nil
}

// ListPlans returns the user's plans together with the current balance.
func (s *Service) ListPlans(ctx context.Context, userID uuid.UUID) ([]*SavingsPlan, decimal.Decimal, error) {
	acct, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	plans, err := s.repo.ListPlans(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	return plans, acct.CurrentCapital, nil
}
