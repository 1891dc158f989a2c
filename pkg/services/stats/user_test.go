package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qa-tools/zentao-report/pkg/models/domain"
	"github.com/qa-tools/zentao-report/pkg/store/zentao"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func february() domain.Period {
	return domain.Period{From: day(2020, 2, 1), To: day(2020, 2, 29)}
}

func TestUserAggregator_OpenBugs(t *testing.T) {
	store := &stubStore{
		realnames: map[string]string{"alice": "Alice Zhang"},
		bugDetail: map[zentao.BugAction][]domain.BugDayRow{
			zentao.BugOpen: {
				{Day: day(2020, 2, 5), Severity: "critical", Count: 2, Bugs: "#101, #102"},
			},
		},
		bugSummary: map[zentao.BugAction][]domain.DimensionTotal{
			zentao.BugOpen: {{Dimension: "critical", Total: 2}},
		},
	}

	stat, err := NewUserAggregator(store, 3).Aggregate(context.Background(), "alice", february())
	require.NoError(t, err)

	assert.Equal(t, "alice", stat.Account)
	assert.Equal(t, "Alice Zhang", stat.Realname)
	assert.Equal(t, day(2020, 2, 1), stat.From)
	assert.Equal(t, day(2020, 2, 29), stat.To)

	require.Len(t, stat.Bug.Open.Detail, 1)
	assert.Equal(t, map[string]float64{"critical": 2}, stat.Bug.Open.Summary)
	assert.Equal(t, 2.0, stat.Bug.Open.Total)

	// The other categories saw no rows.
	assert.Empty(t, stat.Bug.Close.Summary)
	assert.Zero(t, stat.Bug.Close.Total)
	assert.Empty(t, stat.Bug.Current.Summary)
}

func TestUserAggregator_UnknownAccount(t *testing.T) {
	store := &stubStore{realnames: map[string]string{}}

	_, err := NewUserAggregator(store, 3).Aggregate(context.Background(), "ghost", february())

	assert.ErrorIs(t, err, domain.ErrUnknownAccount)
	assert.ErrorContains(t, err, "ghost")
}

func TestUserAggregator_CodeErrorPercent(t *testing.T) {
	t.Run("share of resolved bugs", func(t *testing.T) {
		store := &stubStore{
			realnames: map[string]string{"alice": "Alice Zhang"},
			bugSummary: map[zentao.BugAction][]domain.DimensionTotal{
				zentao.BugResolve: {
					{Dimension: "critical", Total: 1},
					{Dimension: "minor", Total: 3},
				},
			},
			codeErrors: 1,
		}

		stat, err := NewUserAggregator(store, 3).Aggregate(context.Background(), "alice", february())
		require.NoError(t, err)

		assert.Equal(t, 0.25, stat.Bug.CodeErrorPercent)
		assert.Equal(t, 1, store.codeErrorCalls)
	})

	t.Run("zero resolved bugs yields zero without dividing", func(t *testing.T) {
		store := &stubStore{
			realnames:  map[string]string{"alice": "Alice Zhang"},
			codeErrors: 5,
		}

		stat, err := NewUserAggregator(store, 3).Aggregate(context.Background(), "alice", february())
		require.NoError(t, err)

		assert.Zero(t, stat.Bug.CodeErrorPercent)
		assert.Zero(t, store.codeErrorCalls)
	})

	t.Run("rounded to two decimals", func(t *testing.T) {
		store := &stubStore{
			realnames: map[string]string{"alice": "Alice Zhang"},
			bugSummary: map[zentao.BugAction][]domain.DimensionTotal{
				zentao.BugResolve: {{Dimension: "minor", Total: 3}},
			},
			codeErrors: 1,
		}

		stat, err := NewUserAggregator(store, 3).Aggregate(context.Background(), "alice", february())
		require.NoError(t, err)

		assert.Equal(t, 0.33, stat.Bug.CodeErrorPercent)
	})
}

func TestUserAggregator_ShortPeriod(t *testing.T) {
	t.Run("horizon extends past the window end", func(t *testing.T) {
		store := &stubStore{
			realnames: map[string]string{"alice": "Alice Zhang"},
			shortTasks: []domain.ShortTaskRow{
				{TaskID: 9, TaskName: "fix login", Status: "doing", Deadline: day(2020, 3, 2),
					Estimate: 8, Consumed: 3, Left: 5},
			},
			shortTotals: domain.WorkSummary{Estimate: 8, Consumed: 3, Left: 5},
		}

		stat, err := NewUserAggregator(store, 3).Aggregate(context.Background(), "alice", february())
		require.NoError(t, err)

		assert.Equal(t, day(2020, 3, 3), store.shortDeadline, "deadline must be to_date + horizon")
		assert.Equal(t, 3, stat.Task.ShortPeriod.HorizonDays)
		require.Len(t, stat.Task.ShortPeriod.Detail, 1)
		assert.Equal(t, domain.WorkSummary{Estimate: 8, Consumed: 3, Left: 5}, stat.Task.ShortPeriod.Summary)
	})

	t.Run("no matching tasks yields zero totals", func(t *testing.T) {
		store := &stubStore{realnames: map[string]string{"alice": "Alice Zhang"}}

		stat, err := NewUserAggregator(store, 3).Aggregate(context.Background(), "alice", february())
		require.NoError(t, err)

		assert.Empty(t, stat.Task.ShortPeriod.Detail)
		assert.Equal(t, domain.WorkSummary{}, stat.Task.ShortPeriod.Summary)
	})
}

func TestUserAggregator_MonthDone(t *testing.T) {
	store := &stubStore{
		realnames: map[string]string{"alice": "Alice Zhang"},
		monthDone: domain.MonthDoneStat{
			Count:   4,
			Summary: domain.WorkSummary{Estimate: 20.456, Consumed: 18.004, Left: 2.5},
		},
	}
	p := domain.Period{From: day(2020, 2, 10), To: day(2020, 2, 12)}

	stat, err := NewUserAggregator(store, 3).Aggregate(context.Background(), "alice", p)
	require.NoError(t, err)

	// The month-done window always starts at the first of to_date's month,
	// regardless of the report window start.
	assert.Equal(t, day(2020, 2, 1), store.monthFrom)
	assert.Equal(t, day(2020, 2, 12), store.monthTo)

	assert.Equal(t, 4, stat.Task.MonthDone.Count)
	assert.Equal(t, domain.WorkSummary{Estimate: 20.46, Consumed: 18.0, Left: 2.5}, stat.Task.MonthDone.Summary)
}

func TestUserAggregator_TaskCategories(t *testing.T) {
	store := &stubStore{
		realnames: map[string]string{"alice": "Alice Zhang"},
		taskDetail: []domain.TaskDayRow{
			{Day: day(2020, 2, 3), TaskID: 7, TaskName: "write docs", Consumed: 2.5},
			{Day: day(2020, 2, 4), TaskID: 7, TaskName: "write docs", Consumed: 1.5},
		},
		taskSummary: []domain.DimensionTotal{{Dimension: "write docs", Total: 4}},
		currentTasks: []domain.TaskAssignRow{
			{Status: "doing", Count: 2, Tasks: "write docs, review api"},
			{Status: "wait", Count: 1, Tasks: "deploy"},
		},
	}

	stat, err := NewUserAggregator(store, 3).Aggregate(context.Background(), "alice", february())
	require.NoError(t, err)

	assert.Equal(t, 4.0, stat.Task.Do.Total)
	assert.Len(t, stat.Task.Do.Detail, 2)

	assert.Equal(t, map[string]float64{"doing": 2, "wait": 1}, stat.Task.Current.Summary)
	assert.Equal(t, 3.0, stat.Task.Current.Total)
}

func TestUserAggregator_StoreFailureAborts(t *testing.T) {
	boom := errors.New("connection reset")
	store := &stubStore{
		realnames: map[string]string{"alice": "Alice Zhang"},
		failWith:  boom,
	}

	_, err := NewUserAggregator(store, 3).Aggregate(context.Background(), "alice", february())
	assert.ErrorIs(t, err, boom)
}
