package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/qa-tools/zentao-report/pkg/models/domain"
	"github.com/qa-tools/zentao-report/pkg/store/zentao"
)

// stubStore simulates a zentao.Store with preset outputs, recorded call
// arguments and optional per-method errors.
type stubStore struct {
	realnames map[string]string

	bugDetail  map[zentao.BugAction][]domain.BugDayRow
	bugSummary map[zentao.BugAction][]domain.DimensionTotal

	currentBugs  []domain.BugAssignRow
	currentTasks []domain.TaskAssignRow

	codeErrors     int
	codeErrorCalls int

	taskDetail  []domain.TaskDayRow
	taskSummary []domain.DimensionTotal

	shortTasks    []domain.ShortTaskRow
	shortTotals   domain.WorkSummary
	shortDeadline time.Time

	monthDone domain.MonthDoneStat
	monthFrom time.Time
	monthTo   time.Time

	builds         []zentao.BuildRow
	storyTitles    []string
	bugTitles      []string
	storyTitleArgs [][]int
	bugTitleArgs   [][]int

	failWith  error
	titleFail error
}

func (s *stubStore) UserRealname(_ context.Context, account string) (string, error) {
	if s.failWith != nil {
		return "", s.failWith
	}
	name, ok := s.realnames[account]
	if !ok {
		return "", fmt.Errorf("%w: %q has no user record", domain.ErrUnknownAccount, account)
	}
	return name, nil
}

func (s *stubStore) BugActionDetail(_ context.Context, action zentao.BugAction, _ string, _, _ time.Time) ([]domain.BugDayRow, error) {
	return s.bugDetail[action], s.failWith
}

func (s *stubStore) BugActionSummary(_ context.Context, action zentao.BugAction, _ string, _, _ time.Time) ([]domain.DimensionTotal, error) {
	return s.bugSummary[action], s.failWith
}

func (s *stubStore) CurrentBugs(_ context.Context, _ string) ([]domain.BugAssignRow, error) {
	return s.currentBugs, s.failWith
}

func (s *stubStore) CodeErrorResolveCount(_ context.Context, _ string, _, _ time.Time) (int, error) {
	s.codeErrorCalls++
	return s.codeErrors, s.failWith
}

func (s *stubStore) TaskDoneDetail(_ context.Context, _ string, _, _ time.Time) ([]domain.TaskDayRow, error) {
	return s.taskDetail, s.failWith
}

func (s *stubStore) TaskDoneSummary(_ context.Context, _ string, _, _ time.Time) ([]domain.DimensionTotal, error) {
	return s.taskSummary, s.failWith
}

func (s *stubStore) CurrentTasks(_ context.Context, _ string) ([]domain.TaskAssignRow, error) {
	return s.currentTasks, s.failWith
}

func (s *stubStore) ShortPeriodTasks(_ context.Context, _ string, deadline time.Time) ([]domain.ShortTaskRow, error) {
	s.shortDeadline = deadline
	return s.shortTasks, s.failWith
}

func (s *stubStore) ShortPeriodTotals(_ context.Context, _ string, _ time.Time) (domain.WorkSummary, error) {
	return s.shortTotals, s.failWith
}

func (s *stubStore) MonthDoneTotals(_ context.Context, _ string, from, to time.Time) (domain.MonthDoneStat, error) {
	s.monthFrom, s.monthTo = from, to
	return s.monthDone, s.failWith
}

func (s *stubStore) Builds(_ context.Context, _, _ time.Time) ([]zentao.BuildRow, error) {
	return s.builds, s.failWith
}

func (s *stubStore) StoryTitles(_ context.Context, ids []int) ([]string, error) {
	s.storyTitleArgs = append(s.storyTitleArgs, ids)
	if s.titleFail != nil {
		return nil, s.titleFail
	}
	return s.storyTitles, s.failWith
}

func (s *stubStore) BugTitles(_ context.Context, ids []int) ([]string, error) {
	s.bugTitleArgs = append(s.bugTitleArgs, ids)
	if s.titleFail != nil {
		return nil, s.titleFail
	}
	return s.bugTitles, s.failWith
}
