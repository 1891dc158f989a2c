package zentao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/qa-tools/zentao-report/pkg/models/domain"
)

// Settings describe the ZenTao MySQL connection.
type Settings struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	Charset  string
}

// Open establishes the connection used for a whole report run. The caller
// owns the handle and closes it when the run completes.
func Open(s Settings) (*sql.DB, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", s.Host, s.Port)
	cfg.DBName = s.Name
	cfg.User = s.User
	cfg.Passwd = s.Password
	cfg.ParseTime = true
	if s.Charset != "" {
		cfg.Params = map[string]string{"charset": s.Charset}
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open zentao db: %w", err)
	}
	return db, nil
}

// BugAction selects one of the day-scoped bug activity categories.
type BugAction string

const (
	BugOpen    BugAction = "open"
	BugClose   BugAction = "close"
	BugActive  BugAction = "active"
	BugResolve BugAction = "resolve"
)

// bugViews maps each action to its reporting view and count column. These
// are trusted identifiers; every value still goes through a placeholder.
var bugViews = map[BugAction]struct{ view, column string }{
	BugOpen:    {"ztv_userdayopenbug", "bugopen"},
	BugClose:   {"ztv_userdayclosebug", "bugclose"},
	BugActive:  {"ztv_userdayactivebug", "bugactive"},
	BugResolve: {"ztv_userdayresolvebug", "bugresolve"},
}

// BuildRow is one zt_build record with its raw story and bug id lists still
// in ZenTao's ",12,47," form.
type BuildRow struct {
	Name     string
	Date     time.Time
	StoryIDs string
	BugIDs   string
}

// Store is the query surface the aggregation engine runs against. Every
// method issues one parameterized query and preserves the server-side row
// order. Any returned error aborts the report run; the store never retries.
type Store interface {
	UserRealname(ctx context.Context, account string) (string, error)

	BugActionDetail(ctx context.Context, action BugAction, account string, from, to time.Time) ([]domain.BugDayRow, error)
	BugActionSummary(ctx context.Context, action BugAction, account string, from, to time.Time) ([]domain.DimensionTotal, error)
	CurrentBugs(ctx context.Context, account string) ([]domain.BugAssignRow, error)
	CodeErrorResolveCount(ctx context.Context, account string, from, to time.Time) (int, error)

	TaskDoneDetail(ctx context.Context, account string, from, to time.Time) ([]domain.TaskDayRow, error)
	TaskDoneSummary(ctx context.Context, account string, from, to time.Time) ([]domain.DimensionTotal, error)
	CurrentTasks(ctx context.Context, account string) ([]domain.TaskAssignRow, error)
	ShortPeriodTasks(ctx context.Context, account string, deadline time.Time) ([]domain.ShortTaskRow, error)
	ShortPeriodTotals(ctx context.Context, account string, deadline time.Time) (domain.WorkSummary, error)
	MonthDoneTotals(ctx context.Context, account string, from, to time.Time) (domain.MonthDoneStat, error)

	Builds(ctx context.Context, from, to time.Time) ([]BuildRow, error)
	StoryTitles(ctx context.Context, ids []int) ([]string, error)
	BugTitles(ctx context.Context, ids []int) ([]string, error)
}

type store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &store{db: db}, nil
}

func (s *store) UserRealname(ctx context.Context, account string) (string, error) {
	var realname string
	err := s.db.QueryRowContext(ctx,
		"SELECT `realname` FROM `zt_user` WHERE `account` = ? AND `deleted` = '0'",
		account).Scan(&realname)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q has no user record", domain.ErrUnknownAccount, account)
	}
	if err != nil {
		return "", fmt.Errorf("realname lookup for %q: %w", account, err)
	}
	return realname, nil
}

func (s *store) BugActionDetail(ctx context.Context, action BugAction, account string, from, to time.Time) ([]domain.BugDayRow, error) {
	v, ok := bugViews[action]
	if !ok {
		return nil, fmt.Errorf("unknown bug action %q", action)
	}
	query := fmt.Sprintf(
		"SELECT `day`, `severity`, `%s`, `bugs` FROM `%s` WHERE `account` = ? AND `day` BETWEEN ? AND ?",
		v.column, v.view)

	rows, err := s.db.QueryContext(ctx, query, account, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s bug detail for %q: %w", action, account, err)
	}
	defer closeRows(ctx, rows)

	var out []domain.BugDayRow
	for rows.Next() {
		var r domain.BugDayRow
		if err := rows.Scan(&r.Day, &r.Severity, &r.Count, &r.Bugs); err != nil {
			return nil, fmt.Errorf("scan %s bug detail: %w", action, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *store) BugActionSummary(ctx context.Context, action BugAction, account string, from, to time.Time) ([]domain.DimensionTotal, error) {
	v, ok := bugViews[action]
	if !ok {
		return nil, fmt.Errorf("unknown bug action %q", action)
	}
	query := fmt.Sprintf(
		"SELECT `severity`, SUM(`%s`) FROM `%s` WHERE `account` = ? AND `day` BETWEEN ? AND ? GROUP BY `severity`",
		v.column, v.view)

	rows, err := s.db.QueryContext(ctx, query, account, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s bug summary for %q: %w", action, account, err)
	}
	defer closeRows(ctx, rows)

	return scanDimensionTotals(rows)
}

func (s *store) CurrentBugs(ctx context.Context, account string) ([]domain.BugAssignRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT `severity`, `bugassign`, `bugs` FROM `ztv_usercurrentbug` WHERE `account` = ?",
		account)
	if err != nil {
		return nil, fmt.Errorf("current bugs for %q: %w", account, err)
	}
	defer closeRows(ctx, rows)

	var out []domain.BugAssignRow
	for rows.Next() {
		var r domain.BugAssignRow
		if err := rows.Scan(&r.Severity, &r.Count, &r.Bugs); err != nil {
			return nil, fmt.Errorf("scan current bugs: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *store) CodeErrorResolveCount(ctx context.Context, account string, from, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM `zt_bug` WHERE `resolvedBy` = ? AND `resolution` = 'codeerror' AND `deleted` = '0' AND DATE(`resolvedDate`) BETWEEN ? AND ?",
		account, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("code error resolve count for %q: %w", account, err)
	}
	return count, nil
}

func (s *store) TaskDoneDetail(ctx context.Context, account string, from, to time.Time) ([]domain.TaskDayRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT `day`, `taskid`, `taskname`, `consumed` FROM `ztv_userdaydotask` WHERE `account` = ? AND `day` BETWEEN ? AND ?",
		account, from, to)
	if err != nil {
		return nil, fmt.Errorf("done task detail for %q: %w", account, err)
	}
	defer closeRows(ctx, rows)

	var out []domain.TaskDayRow
	for rows.Next() {
		var r domain.TaskDayRow
		if err := rows.Scan(&r.Day, &r.TaskID, &r.TaskName, &r.Consumed); err != nil {
			return nil, fmt.Errorf("scan done task detail: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *store) TaskDoneSummary(ctx context.Context, account string, from, to time.Time) ([]domain.DimensionTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT `taskname`, SUM(`consumed`) FROM `ztv_userdaydotask` WHERE `account` = ? AND `day` BETWEEN ? AND ? GROUP BY `taskname`",
		account, from, to)
	if err != nil {
		return nil, fmt.Errorf("done task summary for %q: %w", account, err)
	}
	defer closeRows(ctx, rows)

	return scanDimensionTotals(rows)
}

func (s *store) CurrentTasks(ctx context.Context, account string) ([]domain.TaskAssignRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT `status`, `taskassign`, `tasks` FROM `ztv_usercurrenttask` WHERE `account` = ?",
		account)
	if err != nil {
		return nil, fmt.Errorf("current tasks for %q: %w", account, err)
	}
	defer closeRows(ctx, rows)

	var out []domain.TaskAssignRow
	for rows.Next() {
		var r domain.TaskAssignRow
		if err := rows.Scan(&r.Status, &r.Count, &r.Tasks); err != nil {
			return nil, fmt.Errorf("scan current tasks: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// shortPeriodWhere selects open tasks with a deadline inside the horizon.
// Top-level tasks (parent = 0) are containers and excluded.
const shortPeriodWhere = "`assignedTo` = ? AND `deleted` = '0' AND `parent` != 0 AND `status` NOT IN ('closed', 'cancel') AND `deadline` <= ?"

func (s *store) ShortPeriodTasks(ctx context.Context, account string, deadline time.Time) ([]domain.ShortTaskRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT `id`, `name`, `status`, `deadline`, `estimate`, `consumed`, `left` FROM `zt_task` WHERE "+
			shortPeriodWhere+" ORDER BY `deadline`",
		account, deadline)
	if err != nil {
		return nil, fmt.Errorf("short period tasks for %q: %w", account, err)
	}
	defer closeRows(ctx, rows)

	var out []domain.ShortTaskRow
	for rows.Next() {
		var r domain.ShortTaskRow
		if err := rows.Scan(&r.TaskID, &r.TaskName, &r.Status, &r.Deadline, &r.Estimate, &r.Consumed, &r.Left); err != nil {
			return nil, fmt.Errorf("scan short period tasks: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *store) ShortPeriodTotals(ctx context.Context, account string, deadline time.Time) (domain.WorkSummary, error) {
	var estimate, consumed, left sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		"SELECT SUM(`estimate`), SUM(`consumed`), SUM(`left`) FROM `zt_task` WHERE "+shortPeriodWhere,
		account, deadline).Scan(&estimate, &consumed, &left)
	if err != nil {
		return domain.WorkSummary{}, fmt.Errorf("short period totals for %q: %w", account, err)
	}
	// No matching tasks leaves the sums NULL; that is a zero workload.
	return domain.WorkSummary{
		Estimate: estimate.Float64,
		Consumed: consumed.Float64,
		Left:     left.Float64,
	}, nil
}

func (s *store) MonthDoneTotals(ctx context.Context, account string, from, to time.Time) (domain.MonthDoneStat, error) {
	var count int
	var estimate, consumed, left sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), SUM(`estimate`), SUM(`consumed`), SUM(`left`) FROM `zt_task` WHERE `finishedBy` = ? AND `deleted` = '0' AND `status` != 'cancel' AND DATE(`finishedDate`) BETWEEN ? AND ?",
		account, from, to).Scan(&count, &estimate, &consumed, &left)
	if err != nil {
		return domain.MonthDoneStat{}, fmt.Errorf("month done totals for %q: %w", account, err)
	}
	return domain.MonthDoneStat{
		Count: count,
		Summary: domain.WorkSummary{
			Estimate: estimate.Float64,
			Consumed: consumed.Float64,
			Left:     left.Float64,
		},
	}, nil
}

func (s *store) Builds(ctx context.Context, from, to time.Time) ([]BuildRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT `name`, `date`, `stories`, `bugs` FROM `zt_build` WHERE `deleted` = '0' AND `date` BETWEEN ? AND ? ORDER BY `id` DESC",
		from, to)
	if err != nil {
		return nil, fmt.Errorf("builds query: %w", err)
	}
	defer closeRows(ctx, rows)

	var out []BuildRow
	for rows.Next() {
		var r BuildRow
		if err := rows.Scan(&r.Name, &r.Date, &r.StoryIDs, &r.BugIDs); err != nil {
			return nil, fmt.Errorf("scan builds: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *store) StoryTitles(ctx context.Context, ids []int) ([]string, error) {
	return s.titles(ctx, "zt_story", ids)
}

func (s *store) BugTitles(ctx context.Context, ids []int) ([]string, error) {
	return s.titles(ctx, "zt_bug", ids)
}

// titles resolves an id list to titles in a single query. The IN clause is
// built from placeholders only; ids are bound as parameters.
func (s *store) titles(ctx context.Context, table string, ids []int) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf("SELECT `title` FROM `%s` WHERE `id` IN (%s) ORDER BY `id`", table, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s title lookup: %w", table, err)
	}
	defer closeRows(ctx, rows)

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan %s titles: %w", table, err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

func scanDimensionTotals(rows *sql.Rows) ([]domain.DimensionTotal, error) {
	var out []domain.DimensionTotal
	for rows.Next() {
		var d domain.DimensionTotal
		if err := rows.Scan(&d.Dimension, &d.Total); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func closeRows(ctx context.Context, rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close query rows")
	}
}
