package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/qa-tools/zentao-report/pkg/models/domain"
	"github.com/qa-tools/zentao-report/pkg/services/config"
	"github.com/qa-tools/zentao-report/pkg/services/period"
	"github.com/qa-tools/zentao-report/pkg/services/report"
	"github.com/qa-tools/zentao-report/pkg/services/stats"
	"github.com/qa-tools/zentao-report/pkg/store/zentao"
	"github.com/qa-tools/zentao-report/pkg/terminal/export"
)

const dateLayout = "2006-01-02"

type GenerateCmd struct {
	configPath string
	kind       string
	date       string
	fromDate   string
	toDate     string
	today      bool
	outDir     string
	output     io.Writer
}

func NewGenerateCmd(output io.Writer) *cobra.Command {
	gc := &GenerateCmd{output: output}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an activity report for the configured roster",
		RunE:  gc.run,
	}

	cmd.Flags().StringVarP(&gc.configPath, "config", "c", "zentao-report.yaml",
		"Path to the reporting configuration file")
	cmd.Flags().StringVar(&gc.kind, "kind", "",
		"Report kind: daily, weekly or monthly")
	cmd.Flags().StringVar(&gc.date, "date", "",
		"Anchor date for a named report kind")
	cmd.Flags().StringVar(&gc.fromDate, "from-date", "", "Custom range start date")
	cmd.Flags().StringVar(&gc.toDate, "to-date", "", "Custom range end date")
	cmd.Flags().BoolVar(&gc.today, "today", false,
		"Use today's date as the range end or anchor")
	cmd.Flags().StringVar(&gc.outDir, "out", "",
		"Output directory (overrides reports_path from the config)")

	return cmd
}

// buildSelection validates the period flags before anything touches the
// data source. A named kind and an explicit range are mutually exclusive.
func (gc *GenerateCmd) buildSelection(now time.Time) (period.Selection, error) {
	today := now.Format(dateLayout)
	hasRange := gc.fromDate != "" || gc.toDate != ""

	switch {
	case gc.kind != "" && hasRange:
		return period.Selection{}, fmt.Errorf("%w: --kind conflicts with --from-date/--to-date",
			domain.ErrConfiguration)

	case gc.kind != "":
		kind := period.Kind(gc.kind)
		if kind != period.KindDaily && kind != period.KindWeekly && kind != period.KindMonthly {
			return period.Selection{}, fmt.Errorf("%w: unknown report kind %q",
				domain.ErrConfiguration, gc.kind)
		}
		anchor := gc.date
		if anchor == "" {
			if !gc.today {
				return period.Selection{}, fmt.Errorf("%w: a %s report needs --date or --today",
					domain.ErrConfiguration, gc.kind)
			}
			anchor = today
		}
		return period.Selection{Kind: kind, Anchor: anchor}, nil

	case hasRange:
		to := gc.toDate
		if gc.today {
			if to != "" {
				return period.Selection{}, fmt.Errorf("%w: --today conflicts with --to-date",
					domain.ErrConfiguration)
			}
			to = today
		}
		if gc.fromDate == "" || to == "" {
			return period.Selection{}, fmt.Errorf("%w: a custom range needs --from-date and --to-date (or --today)",
				domain.ErrConfiguration)
		}
		return period.Selection{Kind: period.KindCustom, From: gc.fromDate, To: to}, nil

	default:
		return period.Selection{}, fmt.Errorf("%w: select a period with --kind or --from-date/--to-date",
			domain.ErrConfiguration)
	}
}

func (gc *GenerateCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	sel, err := gc.buildSelection(time.Now())
	if err != nil {
		return err
	}

	cfg, err := config.Load(gc.configPath)
	if err != nil {
		return fmt.Errorf("load config %q: %w", gc.configPath, err)
	}

	resolved, title, err := period.NewResolver(cfg.Titles).Resolve(sel)
	if err != nil {
		return err
	}
	logger.Info().
		Str("from", resolved.From.Format(dateLayout)).
		Str("to", resolved.To.Format(dateLayout)).
		Str("title", title).
		Msg("reporting period resolved")

	db, err := zentao.Open(zentao.Settings{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		Name:     cfg.DB.Name,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Charset:  cfg.DB.Charset,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close zentao connection")
		}
	}()

	store, err := zentao.NewStore(db)
	if err != nil {
		return err
	}

	assembler := report.NewAssembler(
		stats.NewUserAggregator(store, cfg.ShortPeriodDays),
		stats.NewBuildAggregator(store),
	)
	rep, err := assembler.Assemble(ctx, cfg.Roster, resolved, title)
	if err != nil {
		return err
	}

	outDir := cfg.ReportsPath
	if gc.outDir != "" {
		outDir = gc.outDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("%w: create output dir %q: %v", domain.ErrRender, outDir, err)
	}

	path := filepath.Join(outDir, title+".html")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %q: %v", domain.ErrRender, path, err)
	}
	defer f.Close()

	if err := export.NewReporter(f).Handle(rep); err != nil {
		return err
	}

	logger.Info().Str("path", path).Msg("report generated")
	fmt.Fprintf(gc.output, "Report saved to %s\n", path)
	return nil
}
