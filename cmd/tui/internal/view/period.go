package view

import (
	"errors"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

// Period is a named journal date range.
type Period int

const (
	PeriodAll Period = iota
	PeriodThisMonth
	PeriodLastMonth
	PeriodThisYear
	PeriodLastYear
	PeriodCustom
)

func (p Period) String() string {
	switch p {
	case PeriodAll:
		return "All Time"
	case PeriodThisMonth:
		return "This Month"
	case PeriodLastMonth:
		return "Last Month"
	case PeriodThisYear:
		return "This Year"
	case PeriodLastYear:
		return "Last Year"
	case PeriodCustom:
		return "Custom Range"
	}

	return "Unknown"
}

// Range returns the inclusive calendar bounds of p around now. ok is false
// for PeriodAll and PeriodCustom, which have no fixed bounds.
func (p Period) Range(now time.Time) (start, end time.Time, ok bool) {
	y, mo, _ := now.Date()

	switch p {
	case PeriodThisMonth:
		start = time.Date(y, mo, 1, 0, 0, 0, 0, time.UTC)
	case PeriodLastMonth:
		start = time.Date(y, mo-1, 1, 0, 0, 0, 0, time.UTC)
	case PeriodThisYear:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, -1), true
	case PeriodLastYear:
		start = time.Date(y-1, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, -1), true
	default:
		return time.Time{}, time.Time{}, false
	}

	return start, start.AddDate(0, 1, -1), true
}

func (p Period) Filter(now time.Time) ledger.EntryFilter {
	start, end, ok := p.Range(now)
	if !ok {
		return ledger.EntryFilter{}
	}

	return ledger.EntryFilter{StartDate: &start, EndDate: &end}
}

var errEndBeforeStart = errors.New("end date is before start date")

// periodInput backs the period form. From and To only matter for
// PeriodCustom.
type periodInput struct {
	period Period
	from   string
	to     string
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, errors.New("use YYYY-MM-DD")
	}

	return t, nil
}

func (in *periodInput) validateTo(s string) error {
	to, err := parseDay(s)
	if err != nil {
		return err
	}

	if from, err := parseDay(in.from); err == nil && to.Before(from) {
		return errEndBeforeStart
	}

	return nil
}

// Filter resolves the chosen period. The custom bounds were validated by
// the form, but are checked again for callers that skip it.
func (in *periodInput) Filter(now time.Time) (ledger.EntryFilter, error) {
	if in.period != PeriodCustom {
		return in.period.Filter(now), nil
	}

	from, err := parseDay(in.from)
	if err != nil {
		return ledger.EntryFilter{}, err
	}

	to, err := parseDay(in.to)
	if err != nil {
		return ledger.EntryFilter{}, err
	}

	if to.Before(from) {
		return ledger.EntryFilter{}, errEndBeforeStart
	}

	return ledger.EntryFilter{StartDate: &from, EndDate: &to}, nil
}

// periodGroups asks for a period, then for explicit dates when the custom
// range is chosen.
func periodGroups(in *periodInput) []*huh.Group {
	options := make([]huh.Option[Period], 0, int(PeriodCustom)+1)
	for p := PeriodAll; p <= PeriodCustom; p++ {
		options = append(options, huh.NewOption(p.String(), p))
	}

	return []*huh.Group{
		huh.NewGroup(
			huh.NewSelect[Period]().
				Title("Period").
				Options(options...).
				Value(&in.period),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("From").
				Placeholder("YYYY-MM-DD").
				CharLimit(10).
				Validate(func(s string) error {
					_, err := parseDay(s)
					return err
				}).
				Value(&in.from),
			huh.NewInput().
				Title("To").
				Placeholder("YYYY-MM-DD").
				CharLimit(10).
				Validate(in.validateTo).
				Value(&in.to),
		).WithHideFunc(func() bool { return in.period != PeriodCustom }),
	}
}
