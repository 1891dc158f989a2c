package period

import (
	"fmt"
	"time"

	"github.com/qa-tools/zentao-report/pkg/models/domain"
	"github.com/qa-tools/zentao-report/pkg/services/config"
)

const dateLayout = "2006-01-02"

// Kind selects how the reporting window is derived from the anchor date.
// Exactly one kind is active per invocation.
type Kind string

const (
	KindCustom  Kind = "custom"
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// Selection is the raw period selection handed over by the CLI. Dates are
// ISO strings; parsing is part of resolution so that malformed input
// surfaces as ErrInvalidDate. Named kinds read Anchor, KindCustom reads
// From and To.
type Selection struct {
	Kind   Kind
	Anchor string
	From   string
	To     string
}

// Resolver derives reporting windows and display titles. Title formats are
// injected at construction; there is no package-level default.
type Resolver struct {
	titles config.Titles
}

func NewResolver(titles config.Titles) *Resolver {
	return &Resolver{titles: titles}
}

// Resolve computes the [from, to] window and the display title for a
// selection.
//
// The weekly window runs from the Monday of the anchor's week up to the
// anchor itself, while the weekly title names the full Monday-Sunday span.
// The mismatch is deliberate: the title describes the week being reported
// on, the window stops at the data that exists.
func (r *Resolver) Resolve(sel Selection) (domain.Period, string, error) {
	switch sel.Kind {
	case KindCustom:
		from, err := parseDate(sel.From)
		if err != nil {
			return domain.Period{}, "", err
		}
		to, err := parseDate(sel.To)
		if err != nil {
			return domain.Period{}, "", err
		}
		if from.After(to) {
			return domain.Period{}, "", fmt.Errorf("%w: range %s to %s is reversed",
				domain.ErrInvalidDate, sel.From, sel.To)
		}
		title := fmt.Sprintf(r.titles.Custom, format(from), format(to))
		return domain.Period{From: from, To: to}, title, nil

	case KindDaily:
		anchor, err := parseDate(sel.Anchor)
		if err != nil {
			return domain.Period{}, "", err
		}
		title := fmt.Sprintf(r.titles.Daily, format(anchor))
		return domain.Period{From: anchor, To: anchor}, title, nil

	case KindWeekly:
		anchor, err := parseDate(sel.Anchor)
		if err != nil {
			return domain.Period{}, "", err
		}
		monday := anchor.AddDate(0, 0, -mondayOffset(anchor))
		sunday := monday.AddDate(0, 0, 6)
		title := fmt.Sprintf(r.titles.Weekly, format(monday), format(sunday))
		return domain.Period{From: monday, To: anchor}, title, nil

	case KindMonthly:
		anchor, err := parseDate(sel.Anchor)
		if err != nil {
			return domain.Period{}, "", err
		}
		first := firstOfMonth(anchor)
		title := fmt.Sprintf(r.titles.Monthly, format(first), format(anchor))
		return domain.Period{From: first, To: anchor}, title, nil

	default:
		return domain.Period{}, "", fmt.Errorf("%w: unknown report kind %q",
			domain.ErrConfiguration, sel.Kind)
	}
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid date", domain.ErrInvalidDate, s)
	}
	return t, nil
}

// mondayOffset is the number of days since the most recent Monday.
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func format(t time.Time) string {
	return t.Format(dateLayout)
}
