// Package main provides the CLI entrypoint for reelstats.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/reelstats/internal/catalog"
	"github.com/verte-zerg/reelstats/internal/config"
	"github.com/verte-zerg/reelstats/internal/model"
	"github.com/verte-zerg/reelstats/internal/stats"
	"github.com/verte-zerg/reelstats/internal/statsui"
	"github.com/verte-zerg/reelstats/internal/store"
)

var version = "dev"

const (
	defaultDecade      = 1990
	defaultGenre       = "Action"
	defaultMaxDuration = 90.0
	defaultFormat      = formatText
	defaultLogLevel    = "info"
)

var (
	statsFile        string
	statsKind        string
	statsDecade      int
	statsGenre       string
	statsMaxDuration float64
	statsTop         int
	statsFormat      string
	statsSkipInvalid bool

	logLevel string

	importFile        string
	importKind        string
	importSkipInvalid bool

	decadesFile        string
	decadesKind        string
	decadesGenre       string
	decadesMaxDuration float64
	decadesSkipInvalid bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reelstats",
		Short:         "Decade statistics for film and show catalogs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runStatsCmd,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&statsFile, "file", "", "catalog CSV (default: imported catalog)")
	rootCmd.Flags().StringVar(&statsKind, "kind", "", "only titles of this type, e.g. Movie")
	rootCmd.Flags().IntVar(&statsDecade, "decade", defaultDecade, "first year of the decade")
	rootCmd.Flags().StringVar(&statsGenre, "genre", defaultGenre, "genre substring for the short-title count (case-sensitive)")
	rootCmd.Flags().Float64Var(&statsMaxDuration, "max-duration", defaultMaxDuration, "short titles run strictly under this many minutes")
	rootCmd.Flags().IntVar(&statsTop, "top", 0, "also list the N most frequent durations")
	rootCmd.Flags().StringVar(&statsFormat, "format", defaultFormat, "output format: text, json, pretty")
	rootCmd.Flags().BoolVar(&statsSkipInvalid, "skip-invalid", false, "drop rows that cannot be parsed")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newDecadesCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "file", &statsFile, fileCfg.Stats.File)
	applyStringConfig(cmd, "kind", &statsKind, fileCfg.Stats.Kind)
	applyIntConfig(cmd, "decade", &statsDecade, fileCfg.Stats.Decade)
	applyStringConfig(cmd, "genre", &statsGenre, fileCfg.Stats.Genre)
	applyFloatConfig(cmd, "max-duration", &statsMaxDuration, fileCfg.Stats.MaxDuration)
	applyIntConfig(cmd, "top", &statsTop, fileCfg.Stats.Top)
	applyStringConfig(cmd, "format", &statsFormat, fileCfg.Stats.Format)

	cfg := model.StatsConfig{
		File:        statsFile,
		Kind:        statsKind,
		Decade:      statsDecade,
		Genre:       statsGenre,
		MaxDuration: statsMaxDuration,
		Top:         statsTop,
		Format:      statsFormat,
	}
	if err := validateStatsConfig(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	src, closeSrc, err := openSource(ctx, cfg.File, cfg.Kind, statsSkipInvalid)
	if err != nil {
		return err
	}
	defer closeSrc()

	slog.Debug("computing decade stats",
		slog.String("decade", cfg.Window().Label()),
		slog.String("kind", cfg.Kind),
		slog.String("genre", cfg.Genre),
		slog.Float64("max_duration", cfg.MaxDuration),
	)
	report, err := stats.BuildReport(ctx, src, cfg)
	if err != nil {
		if errors.Is(err, stats.ErrEmptyInput) {
			return fmt.Errorf("%w (try another --decade or --kind)", err)
		}
		return err
	}
	return writeReport(cmd.OutOrStdout(), report, cfg)
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a catalog CSV into the local database",
		Args:  cobra.NoArgs,
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importFile, "file", "", "catalog CSV (required)")
	cmd.Flags().StringVar(&importKind, "kind", "", "only import titles of this type")
	cmd.Flags().BoolVar(&importSkipInvalid, "skip-invalid", false, "drop rows that cannot be parsed")
	return cmd
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	if importFile == "" && fileCfg.Stats.File != nil {
		importFile = *fileCfg.Stats.File
	}
	if importFile == "" {
		return fmt.Errorf("--file is required")
	}

	opts := []catalog.Option{catalog.SkipInvalid(importSkipInvalid)}
	if importKind != "" {
		opts = append(opts, catalog.WithKind(importKind))
	}
	res, err := catalog.LoadFile(importFile, opts...)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	logSkipped(res.Skipped)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := cmd.Context()
	source, err := filepath.Abs(importFile)
	if err != nil {
		source = importFile
	}
	id, err := st.ReplaceTitles(ctx, source, res.Records)
	if err != nil {
		return fmt.Errorf("failed to store catalog: %w", err)
	}
	slog.Debug("catalog stored", slog.Int64("import_id", id), slog.String("source", source))

	counts, err := st.CountByDecade(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to count titles: %w", err)
	}
	for _, dc := range counts {
		slog.Debug("decade", slog.String("window", dc.Window.Label()), slog.Int("titles", dc.Titles))
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %s titles from %s (%d decades, %d rows skipped)\n",
		humanize.Comma(int64(len(res.Records))), importFile, len(counts), len(res.Skipped))
	return err
}

func newDecadesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decades",
		Short: "Show statistics for every decade in the catalog",
		Args:  cobra.NoArgs,
		RunE:  runDecadesCmd,
	}
	cmd.Flags().StringVar(&decadesFile, "file", "", "catalog CSV (default: imported catalog)")
	cmd.Flags().StringVar(&decadesKind, "kind", "", "only titles of this type")
	cmd.Flags().StringVar(&decadesGenre, "genre", defaultGenre, "genre substring for the short-title count")
	cmd.Flags().Float64Var(&decadesMaxDuration, "max-duration", defaultMaxDuration, "short titles run strictly under this many minutes")
	cmd.Flags().BoolVar(&decadesSkipInvalid, "skip-invalid", false, "drop rows that cannot be parsed")
	return cmd
}

func runDecadesCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "file", &decadesFile, fileCfg.Stats.File)
	applyStringConfig(cmd, "kind", &decadesKind, fileCfg.Stats.Kind)
	applyStringConfig(cmd, "genre", &decadesGenre, fileCfg.Stats.Genre)
	applyFloatConfig(cmd, "max-duration", &decadesMaxDuration, fileCfg.Stats.MaxDuration)
	if err := validateMaxDuration(decadesMaxDuration); err != nil {
		return err
	}

	ctx := cmd.Context()
	src, closeSrc, err := openSource(ctx, decadesFile, decadesKind, decadesSkipInvalid)
	if err != nil {
		return err
	}
	defer closeSrc()

	records, err := src.ListTitles(ctx, decadesKind)
	if err != nil {
		return fmt.Errorf("failed to list titles: %w", err)
	}
	criteria := model.FilterCriteria{GenreSubstring: decadesGenre, MaxDurationExclusive: decadesMaxDuration}
	results, err := stats.ComputeAllDecades(records, criteria)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	return stats.RenderDecadeTable(out, results, criteria, shouldUseColor(out))
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse decade statistics of the imported catalog",
		Args:  cobra.NoArgs,
		RunE:  runBrowseCmd,
	}
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	cfg := model.StatsConfig{
		Decade:      defaultDecade,
		Genre:       defaultGenre,
		MaxDuration: defaultMaxDuration,
		Top:         10,
	}
	setIfPresent(&cfg.Kind, fileCfg.Stats.Kind)
	setIfPresent(&cfg.Decade, fileCfg.Stats.Decade)
	setIfPresent(&cfg.Genre, fileCfg.Stats.Genre)
	setIfPresent(&cfg.MaxDuration, fileCfg.Stats.MaxDuration)

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ui := statsui.NewModel(st, cfg)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// openSource returns the titles of file when set, otherwise the imported catalog.
// Rows of other kinds are dropped before conversion.
func openSource(ctx context.Context, file, kind string, skipInvalid bool) (stats.TitleSource, func(), error) {
	if file != "" {
		opts := []catalog.Option{catalog.SkipInvalid(skipInvalid)}
		if kind != "" {
			opts = append(opts, catalog.WithKind(kind))
		}
		res, err := catalog.LoadFile(file, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		logSkipped(res.Skipped)
		slog.Debug("catalog loaded", slog.String("file", file), slog.Int("titles", len(res.Records)))
		return stats.Records(res.Records), func() {}, nil
	}
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	return st, closeFn, nil
}

// openStore opens the catalog database and fails when nothing was imported yet.
func openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	imp, ok, err := st.LatestImport(ctx)
	if err == nil && !ok {
		err = fmt.Errorf("no catalog imported yet; run: reelstats import --file <csv>, or pass --file")
	}
	if err != nil {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
		return nil, err
	}
	slog.Debug("using imported catalog",
		slog.String("source", imp.Source),
		slog.Int("rows", imp.Rows),
		slog.Time("imported_at", imp.ImportedAt),
	)
	return st, nil
}

func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	logger, err := newLogger(os.Stderr, logLevel)
	if err != nil {
		return config.FileConfig{}, err
	}
	slog.SetDefault(logger)
	return fileCfg, nil
}

func logSkipped(skipped []*catalog.RowError) {
	if len(skipped) == 0 {
		return
	}
	slog.Warn("skipped invalid rows", slog.Int("count", len(skipped)))
	for _, rowErr := range skipped {
		slog.Debug("skipped row", slog.Int("row", rowErr.Row), slog.String("column", rowErr.Column), slog.Any("error", rowErr.Err))
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func setIfPresent[T any](target, value *T) {
	if value != nil {
		*target = *value
	}
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# reelstats configuration
# Uncomment a value to enable it. CLI flags override config values.

[stats]
# file = "netflix_data.csv"   # Catalog CSV; empty uses the imported catalog
# kind = "Movie"              # Only titles of this type
# decade = %d               # First year of the decade
# genre = %q              # Genre substring (case-sensitive)
# max-duration = %.0f           # Short titles run under this many minutes
# top = 0                     # List the N most frequent durations
# format = %q             # text, json or pretty

[log]
# level = %q              # debug, info, warn or error
`,
		defaultDecade,
		defaultGenre,
		defaultMaxDuration,
		defaultFormat,
		defaultLogLevel,
	)
}

func validateStatsConfig(cfg model.StatsConfig) error {
	if err := validateMaxDuration(cfg.MaxDuration); err != nil {
		return err
	}
	if cfg.Top < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	switch cfg.Format {
	case formatText, formatJSON, formatPretty:
	default:
		return fmt.Errorf("--format must be one of text, json, pretty")
	}
	return nil
}

func validateMaxDuration(v float64) error {
	if math.IsNaN(v) || v < 0 {
		return fmt.Errorf("--max-duration must be a number >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
