package stats

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/qa-tools/zentao-report/pkg/models/domain"
	"github.com/qa-tools/zentao-report/pkg/store/zentao"
)

// UserAggregator folds one user's raw activity rows into the per-category
// summaries of a UserStat.
type UserAggregator struct {
	store       zentao.Store
	horizonDays int
}

func NewUserAggregator(store zentao.Store, horizonDays int) *UserAggregator {
	return &UserAggregator{store: store, horizonDays: horizonDays}
}

// Aggregate collects every bug and task category for one account over the
// reporting window. Any failure, including an account without a user
// record, aborts the whole report run.
func (a *UserAggregator) Aggregate(ctx context.Context, account string, p domain.Period) (domain.UserStat, error) {
	zerolog.Ctx(ctx).Info().Str("account", account).Msg("collecting user stats")

	realname, err := a.store.UserRealname(ctx, account)
	if err != nil {
		return domain.UserStat{}, err
	}

	stat := domain.UserStat{
		Account:  account,
		Realname: realname,
		From:     p.From,
		To:       p.To,
	}

	if stat.Bug, err = a.bugStat(ctx, account, p); err != nil {
		return domain.UserStat{}, err
	}
	if stat.Task, err = a.taskStat(ctx, account, p); err != nil {
		return domain.UserStat{}, err
	}
	return stat, nil
}

func (a *UserAggregator) bugStat(ctx context.Context, account string, p domain.Period) (domain.BugStat, error) {
	var bug domain.BugStat
	for _, c := range []struct {
		action zentao.BugAction
		dst    *domain.CategoryStat
	}{
		{zentao.BugOpen, &bug.Open},
		{zentao.BugClose, &bug.Close},
		{zentao.BugActive, &bug.Active},
		{zentao.BugResolve, &bug.Resolve},
	} {
		stat, err := a.windowedBugs(ctx, c.action, account, p)
		if err != nil {
			return domain.BugStat{}, err
		}
		*c.dst = stat
	}

	current, err := a.store.CurrentBugs(ctx, account)
	if err != nil {
		return domain.BugStat{}, err
	}
	bug.Current = domain.SnapshotCategory(current)

	percent, err := a.codeErrorPercent(ctx, account, p, bug.Resolve.Total)
	if err != nil {
		return domain.BugStat{}, err
	}
	bug.CodeErrorPercent = percent
	return bug, nil
}

// windowedBugs pairs the detail query with the server-side summary query
// over the same window.
func (a *UserAggregator) windowedBugs(ctx context.Context, action zentao.BugAction, account string, p domain.Period) (domain.CategoryStat, error) {
	detail, err := a.store.BugActionDetail(ctx, action, account, p.From, p.To)
	if err != nil {
		return domain.CategoryStat{}, err
	}
	summary, err := a.store.BugActionSummary(ctx, action, account, p.From, p.To)
	if err != nil {
		return domain.CategoryStat{}, err
	}
	return domain.WindowedCategory(detail, summary), nil
}

// codeErrorPercent is the share of the window's resolved bugs that were
// resolved as code errors. Zero resolved bugs yield zero, not an error.
func (a *UserAggregator) codeErrorPercent(ctx context.Context, account string, p domain.Period, totalResolved float64) (float64, error) {
	if totalResolved == 0 {
		return 0, nil
	}
	codeErrors, err := a.store.CodeErrorResolveCount(ctx, account, p.From, p.To)
	if err != nil {
		return 0, err
	}
	return domain.Round2(float64(codeErrors) / totalResolved), nil
}

func (a *UserAggregator) taskStat(ctx context.Context, account string, p domain.Period) (domain.TaskStat, error) {
	var task domain.TaskStat

	detail, err := a.store.TaskDoneDetail(ctx, account, p.From, p.To)
	if err != nil {
		return domain.TaskStat{}, err
	}
	summary, err := a.store.TaskDoneSummary(ctx, account, p.From, p.To)
	if err != nil {
		return domain.TaskStat{}, err
	}
	task.Do = domain.WindowedCategory(detail, summary)

	current, err := a.store.CurrentTasks(ctx, account)
	if err != nil {
		return domain.TaskStat{}, err
	}
	task.Current = domain.SnapshotCategory(current)

	if task.ShortPeriod, err = a.shortPeriod(ctx, account, p); err != nil {
		return domain.TaskStat{}, err
	}
	if task.MonthDone, err = a.monthDone(ctx, account, p); err != nil {
		return domain.TaskStat{}, err
	}
	return task, nil
}

// shortPeriod collects open tasks due within the horizon past the window
// end. A user with no matching tasks gets zero totals.
func (a *UserAggregator) shortPeriod(ctx context.Context, account string, p domain.Period) (domain.ShortPeriodStat, error) {
	deadline := p.To.AddDate(0, 0, a.horizonDays)

	detail, err := a.store.ShortPeriodTasks(ctx, account, deadline)
	if err != nil {
		return domain.ShortPeriodStat{}, err
	}
	totals, err := a.store.ShortPeriodTotals(ctx, account, deadline)
	if err != nil {
		return domain.ShortPeriodStat{}, err
	}
	return domain.ShortPeriodStat{
		Detail:      detail,
		Summary:     totals.Round(),
		HorizonDays: a.horizonDays,
	}, nil
}

// monthDone covers the calendar month ending at the window end.
func (a *UserAggregator) monthDone(ctx context.Context, account string, p domain.Period) (domain.MonthDoneStat, error) {
	first := time.Date(p.To.Year(), p.To.Month(), 1, 0, 0, 0, 0, p.To.Location())

	stat, err := a.store.MonthDoneTotals(ctx, account, first, p.To)
	if err != nil {
		return domain.MonthDoneStat{}, err
	}
	stat.Summary = stat.Summary.Round()
	return stat, nil
}
