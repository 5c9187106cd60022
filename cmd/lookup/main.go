package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"ncaa-baseball/internal/config"
	"ncaa-baseball/internal/models"
	"ncaa-baseball/internal/render"
	"ncaa-baseball/internal/repository"
	"ncaa-baseball/internal/services"
	"ncaa-baseball/internal/transform"
	"ncaa-baseball/pkg/database"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

type options struct {
	school string
	year   int
	player string
	format render.Format
}

// parseOptions reads the command line. A player lookup needs -player and
// -school; a team lookup needs -school and -year.
func parseOptions(args []string) (*options, error) {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	school := fs.String("school", "", "School name")
	year := fs.Int("year", 0, "Season for a team lookup")
	player := fs.String("player", "", "Player name for a career lookup")
	format := fs.String("format", string(render.Text), "Output format: json, text, markdown, csv, html")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f, err := render.ParseFormat(*format)
	if err != nil {
		return nil, err
	}

	opts := &options{school: *school, year: *year, player: *player, format: f}
	if opts.school == "" {
		return nil, errors.New("-school is required")
	}
	if opts.player == "" && opts.year == 0 {
		return nil, errors.New("either -year (team lookup) or -player (career lookup) is required")
	}
	return opts, nil
}

type lookupServices struct {
	teams   *services.TeamService
	players *services.PlayerService
}

// run performs one lookup and writes the report to out
func run(ctx context.Context, svc lookupServices, opts *options, out io.Writer) error {
	var (
		report   interface{}
		sections []render.Section
	)

	if opts.player != "" {
		r, err := svc.players.GetPlayerCareer(ctx, opts.player, opts.school)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s (%s)", r.Player, r.School)
		report = r
		sections = []render.Section{
			{Title: title + " Batting", Table: r.Batting},
			{Title: title + " Pitching", Table: r.Pitching},
		}
	} else {
		r, err := svc.teams.GetTeamStats(ctx, opts.school, opts.year)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s %d (%s)", r.School, r.Season, r.Division)
		report = r
		sections = []render.Section{
			{Title: title + " Batting", Table: r.Batting},
			{Title: title + " Pitching", Table: r.Pitching},
		}
	}

	if opts.format == render.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return render.Sections(out, opts.format, sections...)
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: lookup -school NAME (-year YYYY | -player NAME) [-format text]\n%v\n", err)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the tables, logs go to stderr
	logger := logging.NewStructuredLogger("ncaa-stats-lookup", "1.0.0", logging.WarnLevel)
	logger.SetOutput(os.Stderr)
	metricsCollector := metrics.NewCollector("ncaa_stats_lookup", nil)

	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.Open(dbConfig, logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	statsRepo := repository.NewStatsRepository(db, logger, metricsCollector)
	transformer := transform.NewTransformer(logger, metricsCollector)
	svc := lookupServices{
		teams:   services.NewTeamService(statsRepo, statsRepo, transformer, cfg.Seasons, logger, metricsCollector),
		players: services.NewPlayerService(statsRepo, statsRepo, transformer, logger, metricsCollector),
	}

	if err := run(context.Background(), svc, opts, os.Stdout); err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			fmt.Fprintln(os.Stderr, validation.Message)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		os.Exit(1)
	}
}
