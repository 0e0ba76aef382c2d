// Package main provides the CLI entrypoint for covidash.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/covidash/internal/client"
	"github.com/verte-zerg/covidash/internal/config"
	"github.com/verte-zerg/covidash/internal/logging"
	"github.com/verte-zerg/covidash/internal/model"
	"github.com/verte-zerg/covidash/internal/prefs"
	"github.com/verte-zerg/covidash/internal/store"
)

const (
	defaultChartHeight = 12
	defaultSmooth      = 0
	defaultServeAddr   = "127.0.0.1:8080"
	defaultTimeout     = 30 * time.Second
)

var (
	apiURL   string
	logLevel string
	logFile  string

	dashCountry     string
	dashContinent   string
	dashSort        string
	dashDir         string
	dashChartHeight int
	dashSmooth      int
	dashDaily       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "covidash",
		Short:         "COVID-19 statistics dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runDashboardCmd,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", client.DefaultBaseURL, "base URL of the disease.sh API")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", config.DefaultLogPath(), "log file path")

	rootCmd.Flags().StringVar(&dashCountry, "country", "", "country to select on start (default: global)")
	rootCmd.Flags().StringVar(&dashContinent, "continent", model.AllContinents, "continent filter for the country list")
	rootCmd.Flags().StringVar(&dashSort, "sort", string(model.SortByName), "sort key (name or cases)")
	rootCmd.Flags().StringVar(&dashDir, "dir", "", "sort direction (asc or desc, default depends on --sort)")
	rootCmd.Flags().IntVar(&dashChartHeight, "chart-height", defaultChartHeight, "height of the overview chart in rows")
	rootCmd.Flags().IntVar(&dashSmooth, "smooth", defaultSmooth, "moving average window for the chart (0 disables)")
	rootCmd.Flags().BoolVar(&dashDaily, "daily", false, "chart daily new cases instead of totals")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCountriesCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newRecentCmd())
	rootCmd.AddCommand(newFavoritesCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// app holds what every command needs once config has been resolved.
type app struct {
	cfg    config.FileConfig
	log    *zap.Logger
	client *client.Client
	store  *store.Store
}

// loadFileConfig reads the config file and dotenv overrides. Environment
// values win over the file.
func loadFileConfig() (config.FileConfig, error) {
	if err := config.LoadEnvFiles(config.DefaultEnvPath(), ".env"); err != nil {
		return config.FileConfig{}, err
	}
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(&cfg)
	return cfg, nil
}

// openApp resolves config, logger and API client. The store is opened only
// when withStore is set.
func openApp(cmd *cobra.Command, withStore bool) (*app, error) {
	cfg, err := loadFileConfig()
	if err != nil {
		return nil, err
	}
	applyStringConfig(cmd, "api-url", &apiURL, cfg.API.BaseURL)
	applyStringConfig(cmd, "log-level", &logLevel, cfg.Log.Level)
	applyStringConfig(cmd, "log-file", &logFile, cfg.Log.File)

	timeout := defaultTimeout
	if cfg.API.Timeout != nil {
		timeout, err = time.ParseDuration(*cfg.API.Timeout)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("invalid api timeout %q", *cfg.API.Timeout)
		}
	}

	log, err := logging.New(logging.Options{Level: logLevel, File: logFile})
	if err != nil {
		return nil, fmt.Errorf("failed to init logging: %w", err)
	}
	a := &app{
		cfg:    cfg,
		log:    log,
		client: client.New(apiURL, client.WithTimeout(timeout), client.WithLogger(log)),
	}
	if withStore {
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			_ = log.Sync()
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		a.store = st
	}
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logErrf("failed to close db: %v\n", err)
		}
	}
	// Sync fails on some file descriptors; nothing useful to do about it.
	_ = a.log.Sync()
}

func (a *app) recent(ctx context.Context) *prefs.Recent {
	return prefs.LoadRecent(ctx, a.store, a.log)
}

func (a *app) favorites(ctx context.Context) *prefs.Favorites {
	return prefs.LoadFavorites(ctx, a.store, a.log)
}

// resolveCriteria validates sort flags. An empty dir picks the default
// direction of the key.
func resolveCriteria(search, continent, sortKey, dir string) (model.FilterCriteria, error) {
	criteria := model.DefaultCriteria()
	criteria.Search = search
	if strings.TrimSpace(continent) != "" {
		criteria.Continent = strings.TrimSpace(continent)
	}
	key, err := model.ParseSortKey(sortKey)
	if err != nil {
		return criteria, fmt.Errorf("invalid --sort value: %w", err)
	}
	criteria.SortKey = key
	criteria.Direction = key.DefaultDirection()
	if dir != "" {
		d, err := model.ParseSortDirection(dir)
		if err != nil {
			return criteria, fmt.Errorf("invalid --dir value: %w", err)
		}
		criteria.Direction = d
	}
	return criteria, nil
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
	if err := ensureConfigFile(path); err != nil {
		return err
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

func ensureConfigFile(path string) error {
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
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# covidash configuration
# Uncomment a value to enable it. CLI flags and COVIDASH_* environment
# variables override config values.

[api]
# base-url = %q
# timeout = %q

[dashboard]
# country = ""            # Country selected on start (empty = global)
# continent = %q
# sort = %q               # name or cases
# direction = "asc"       # asc or desc
# chart-height = %d
# smooth = %d             # Moving average window (0 disables)

[log]
# level = "info"
# file = %q

[serve]
# addr = %q
`,
		client.DefaultBaseURL,
		defaultTimeout.String(),
		model.AllContinents,
		string(model.SortByName),
		defaultChartHeight,
		defaultSmooth,
		config.DefaultLogPath(),
		defaultServeAddr,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
