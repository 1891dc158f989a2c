package domain

import (
	"math"
	"time"
)

// Row is one raw detail record of an activity category. Dimension is the
// grouping key (severity, status, task name) and Amount the counted value
// (bug count or work-hours).
type Row interface {
	Dimension() string
	Amount() float64
}

// BugDayRow is a day-scoped bug activity record: bugs opened, closed,
// activated or resolved by a user on one day, grouped by severity.
type BugDayRow struct {
	Day      time.Time
	Severity string
	Count    int
	Bugs     string
}

func (r BugDayRow) Dimension() string { return r.Severity }
func (r BugDayRow) Amount() float64   { return float64(r.Count) }

// BugAssignRow is a snapshot record of bugs currently assigned to a user.
type BugAssignRow struct {
	Severity string
	Count    int
	Bugs     string
}

func (r BugAssignRow) Dimension() string { return r.Severity }
func (r BugAssignRow) Amount() float64   { return float64(r.Count) }

// TaskDayRow records work-hours a user logged against one task on one day.
type TaskDayRow struct {
	Day      time.Time
	TaskID   int
	TaskName string
	Consumed float64
}

func (r TaskDayRow) Dimension() string { return r.TaskName }
func (r TaskDayRow) Amount() float64   { return r.Consumed }

// TaskAssignRow is a snapshot record of tasks currently assigned to a user,
// grouped by task status.
type TaskAssignRow struct {
	Status string
	Count  int
	Tasks  string
}

func (r TaskAssignRow) Dimension() string { return r.Status }
func (r TaskAssignRow) Amount() float64   { return float64(r.Count) }

// ShortTaskRow is one open task whose deadline falls inside the short-period
// horizon.
type ShortTaskRow struct {
	TaskID   int
	TaskName string
	Status   string
	Deadline time.Time
	Estimate float64
	Consumed float64
	Left     float64
}

// DimensionTotal is one server-side summary row: the summed amount for a
// single dimension value observed in the window.
type DimensionTotal struct {
	Dimension string
	Total     float64
}

// CategoryStat summarizes one activity category for one user over a period:
// the raw rows kept for the renderer, the per-dimension totals, and their
// sum. Total always equals the sum of Summary's values; empty detail means
// an empty Summary and a zero Total.
type CategoryStat struct {
	Detail  []Row
	Summary map[string]float64
	Total   float64
}

// WindowedCategory pairs detail rows with the server-side GROUP BY summary
// issued over the same window. The data source's own aggregation is trusted;
// the summary is not re-derived from the detail rows.
func WindowedCategory[R Row](detail []R, summary []DimensionTotal) CategoryStat {
	stat := CategoryStat{
		Detail:  asRows(detail),
		Summary: make(map[string]float64, len(summary)),
	}
	for _, s := range summary {
		stat.Summary[s.Dimension] = s.Total
		stat.Total += s.Total
	}
	return stat
}

// SnapshotCategory folds a single snapshot result set into its summary and
// total. Snapshot categories have no separate summary query.
func SnapshotCategory[R Row](detail []R) CategoryStat {
	stat := CategoryStat{
		Detail:  asRows(detail),
		Summary: make(map[string]float64, len(detail)),
	}
	for _, r := range detail {
		stat.Summary[r.Dimension()] += r.Amount()
		stat.Total += r.Amount()
	}
	return stat
}

func asRows[R Row](rows []R) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// WorkSummary totals task work-hours.
type WorkSummary struct {
	Estimate float64
	Consumed float64
	Left     float64
}

// Round returns the summary with each total rounded to two decimals.
func (w WorkSummary) Round() WorkSummary {
	return WorkSummary{
		Estimate: Round2(w.Estimate),
		Consumed: Round2(w.Consumed),
		Left:     Round2(w.Left),
	}
}

// ShortPeriodStat is the forward-looking workload: open tasks whose deadline
// falls within HorizonDays past the window end. A user with no matching
// tasks gets a zero-valued Summary.
type ShortPeriodStat struct {
	Detail      []ShortTaskRow
	Summary     WorkSummary
	HorizonDays int
}

// MonthDoneStat counts the tasks a user finished within the calendar month
// ending at the window end, excluding cancelled closures.
type MonthDoneStat struct {
	Count   int
	Summary WorkSummary
}

// BugStat groups a user's bug categories. CodeErrorPercent is the share of
// resolved bugs whose resolution was a code error; it is zero when nothing
// was resolved in the window.
type BugStat struct {
	Open             CategoryStat
	Close            CategoryStat
	Active           CategoryStat
	Resolve          CategoryStat
	Current          CategoryStat
	CodeErrorPercent float64
}

// TaskStat groups a user's task categories and workload projections.
type TaskStat struct {
	Do          CategoryStat
	Current     CategoryStat
	ShortPeriod ShortPeriodStat
	MonthDone   MonthDoneStat
}

// UserStat is one user's full activity summary for the reporting window.
type UserStat struct {
	Account  string
	Realname string
	From     time.Time
	To       time.Time
	Bug      BugStat
	Task     TaskStat
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
