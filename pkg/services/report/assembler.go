package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/qa-tools/zentao-report/pkg/models/domain"
	"github.com/qa-tools/zentao-report/pkg/services/config"
)

// UserAggregator produces one user's statistics for a period.
type UserAggregator interface {
	Aggregate(ctx context.Context, account string, p domain.Period) (domain.UserStat, error)
}

// BuildAggregator produces the build statistics for a period.
type BuildAggregator interface {
	Aggregate(ctx context.Context, p domain.Period) ([]domain.BuildStat, error)
}

// Assembler drives the aggregators across the configured roster and folds
// the results into one Report.
type Assembler struct {
	users  UserAggregator
	builds BuildAggregator
}

func NewAssembler(users UserAggregator, builds BuildAggregator) *Assembler {
	return &Assembler{users: users, builds: builds}
}

// Assemble produces the complete report for a roster. Groups and users are
// processed sequentially in roster order; the first failure aborts the run
// with no partial report.
func (a *Assembler) Assemble(ctx context.Context, roster []config.Group, p domain.Period, title string) (*domain.Report, error) {
	logger := zerolog.Ctx(ctx)

	rep := &domain.Report{Title: title, Period: p}
	for _, group := range roster {
		logger.Info().Str("group", group.Name).Int("accounts", len(group.Accounts)).Msg("aggregating group")

		stat := domain.GroupStat{
			Name:  group.Name,
			Users: make([]domain.UserStat, 0, len(group.Accounts)),
		}
		for _, account := range group.Accounts {
			userStat, err := a.users.Aggregate(ctx, account, p)
			if err != nil {
				return nil, fmt.Errorf("aggregate user %q in group %q: %w", account, group.Name, err)
			}
			stat.Users = append(stat.Users, userStat)
		}
		rep.Groups = append(rep.Groups, stat)
	}

	builds, err := a.builds.Aggregate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("aggregate builds: %w", err)
	}
	rep.Builds = builds

	return rep, nil
}
