package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/qa-tools/zentao-report/pkg/models/domain"
	"github.com/qa-tools/zentao-report/pkg/store/zentao"
)

// BuildAggregator resolves the builds released in the reporting window,
// expanding story and bug id lists to titles. Builds come back newest first.
type BuildAggregator struct {
	store zentao.Store
}

func NewBuildAggregator(store zentao.Store) *BuildAggregator {
	return &BuildAggregator{store: store}
}

func (a *BuildAggregator) Aggregate(ctx context.Context, p domain.Period) ([]domain.BuildStat, error) {
	rows, err := a.store.Builds(ctx, p.From, p.To)
	if err != nil {
		return nil, err
	}

	stats := make([]domain.BuildStat, 0, len(rows))
	for _, b := range rows {
		stories, err := a.resolveTitles(ctx, b.StoryIDs, a.store.StoryTitles)
		if err != nil {
			return nil, fmt.Errorf("stories for build %q: %w", b.Name, err)
		}
		bugs, err := a.resolveTitles(ctx, b.BugIDs, a.store.BugTitles)
		if err != nil {
			return nil, fmt.Errorf("bugs for build %q: %w", b.Name, err)
		}
		stats = append(stats, domain.BuildStat{
			Name:    b.Name,
			Date:    b.Date,
			Stories: stories,
			Bugs:    bugs,
		})
	}
	return stats, nil
}

// resolveTitles expands a ZenTao id list into a single text blob with one
// lookup. An empty list short-circuits to "" without querying.
func (a *BuildAggregator) resolveTitles(ctx context.Context, idList string, lookup func(context.Context, []int) ([]string, error)) (string, error) {
	ids := parseIDList(idList)
	if len(ids) == 0 {
		return "", nil
	}
	titles, err := lookup(ctx, ids)
	if err != nil {
		return "", err
	}
	return strings.Join(titles, "; "), nil
}

// parseIDList splits ZenTao's ",12,47," style id lists. Empty and
// non-numeric tokens are skipped.
func parseIDList(list string) []int {
	var ids []int
	for _, tok := range strings.Split(list, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
