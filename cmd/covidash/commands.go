package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/covidash/internal/countries"
	"github.com/verte-zerg/covidash/internal/dashboard"
	"github.com/verte-zerg/covidash/internal/dashui"
	"github.com/verte-zerg/covidash/internal/model"
	"github.com/verte-zerg/covidash/internal/server"
	"github.com/verte-zerg/covidash/internal/stats"
)

const shutdownTimeout = 5 * time.Second

var (
	countriesSearch    string
	countriesContinent string
	countriesSort      string
	countriesDir       string
	countriesLimit     int
	countriesTop       int

	summaryFormat string

	historySmooth int
	historyDaily  bool
	historyHeight int
	historyColor  bool

	serveAddr string
)

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	d := a.cfg.Dashboard
	applyStringConfig(cmd, "country", &dashCountry, d.Country)
	applyStringConfig(cmd, "continent", &dashContinent, d.Continent)
	applyStringConfig(cmd, "sort", &dashSort, d.Sort)
	applyStringConfig(cmd, "dir", &dashDir, d.Direction)
	applyIntConfig(cmd, "chart-height", &dashChartHeight, d.ChartHeight)
	applyIntConfig(cmd, "smooth", &dashSmooth, d.Smooth)

	criteria, err := resolveCriteria("", dashContinent, dashSort, dashDir)
	if err != nil {
		return err
	}
	if dashChartHeight <= 0 {
		return fmt.Errorf("--chart-height must be > 0")
	}
	if dashSmooth < 0 {
		return fmt.Errorf("--smooth must be >= 0")
	}

	ctx := context.Background()
	dash := dashboard.New(a.client, a.log)
	ui := dashui.NewModel(ctx, dash, a.recent(ctx), a.favorites(ctx), dashui.Options{
		Country:     strings.TrimSpace(dashCountry),
		Criteria:    criteria,
		ChartHeight: dashChartHeight,
		Smooth:      dashSmooth,
		Daily:       dashDaily,
	}, a.log)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newCountriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "List countries",
		Args:  cobra.NoArgs,
		RunE:  runCountriesCmd,
	}
	cmd.Flags().StringVar(&countriesSearch, "search", "", "case-insensitive country or continent substring")
	cmd.Flags().StringVar(&countriesContinent, "continent", model.AllContinents, "continent filter")
	cmd.Flags().StringVar(&countriesSort, "sort", string(model.SortByName), "sort key (name or cases)")
	cmd.Flags().StringVar(&countriesDir, "dir", "", "sort direction (asc or desc)")
	cmd.Flags().IntVar(&countriesLimit, "limit", 0, "show at most N rows (0 = all)")
	cmd.Flags().IntVar(&countriesTop, "top", 0, "show the N countries with most cases, ignoring sort flags")
	return cmd
}

func runCountriesCmd(cmd *cobra.Command, _ []string) error {
	criteria, err := resolveCriteria(countriesSearch, countriesContinent, countriesSort, countriesDir)
	if err != nil {
		return err
	}
	if countriesLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	if countriesTop < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	list := a.client.FetchCountryList(ctx)
	favs := a.favorites(ctx)

	view := countries.ComputeView(list, criteria)
	if countriesTop > 0 {
		view = stats.TopCountriesByCases(view, countriesTop)
	}
	if countriesLimit > 0 && len(view) > countriesLimit {
		view = view[:countriesLimit]
	}
	return stats.RenderCountryTable(cmd.OutOrStdout(), view, favs.Contains)
}

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [country]",
		Short: "Show totals for the world or one country",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSummaryCmd,
	}
	cmd.Flags().StringVar(&summaryFormat, "format", "text", "output format (text, json, yaml)")
	return cmd
}

func runSummaryCmd(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(strings.TrimSpace(summaryFormat))
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid --format value %q (use text, json or yaml)", summaryFormat)
	}
	country := ""
	if len(args) == 1 {
		country = strings.TrimSpace(args[0])
	}
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	report := stats.BuildReport(cmd.Context(), a.client, country)
	return writeReport(cmd.OutOrStdout(), report, format)
}

func writeReport(w io.Writer, report stats.Report, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	}
	if err := stats.RenderSnapshot(w, report.Scope, report.Snapshot); err != nil {
		return err
	}
	if report.Updated != nil {
		_, err := fmt.Fprintf(w, "Updated:   %s\n", stats.FormatUpdated(*report.Updated, time.Now()))
		return err
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Plot the global time series",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historySmooth, "smooth", defaultSmooth, "moving average window (0 disables)")
	cmd.Flags().BoolVar(&historyDaily, "daily", false, "plot daily new cases instead of totals")
	cmd.Flags().IntVar(&historyHeight, "height", defaultChartHeight, "plot height in rows")
	cmd.Flags().BoolVar(&historyColor, "color", false, "force colored output")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historySmooth < 0 {
		return fmt.Errorf("--smooth must be >= 0")
	}
	if historyHeight <= 0 {
		return fmt.Errorf("--height must be > 0")
	}
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	points := a.client.FetchHistoricalSeries(cmd.Context())
	return writeHistory(cmd.OutOrStdout(), points, stats.ChartOptions{
		Height:     historyHeight,
		Daily:      historyDaily,
		Smooth:     historySmooth,
		ForceColor: historyColor,
	})
}

func writeHistory(w io.Writer, points []model.DailyPoint, opts stats.ChartOptions) error {
	if err := stats.RenderSeriesChart(w, points, opts); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if len(points) < 2 {
		return nil
	}
	confirmed := make([]int64, len(points))
	for i, p := range points {
		confirmed[i] = p.Confirmed
	}
	_, err := fmt.Fprintf(w, "New cases trend: %s\n", stats.Sparkline(stats.DailyDeltas(confirmed)))
	return err
}

func newRecentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recently viewed countries",
		Args:  cobra.NoArgs,
		RunE:  runRecentCmd,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear recently viewed countries",
		Args:  cobra.NoArgs,
		RunE:  runRecentClearCmd,
	})
	return cmd
}

func runRecentCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctrl := a.controller(cmd.Context())
	return stats.RenderCountryTable(cmd.OutOrStdout(), ctrl.RecentCountries(), ctrl.IsFavorite)
}

func runRecentClearCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.recent(cmd.Context()).Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear recent countries: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Cleared recently viewed countries.")
	return err
}

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Show favorite countries",
		Args:  cobra.NoArgs,
		RunE:  runFavoritesCmd,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <name>",
		Short: "Add or remove a favorite country",
		Args:  cobra.ExactArgs(1),
		RunE:  runFavoritesToggleCmd,
	})
	return cmd
}

func runFavoritesCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctrl := a.controller(cmd.Context())
	return stats.RenderCountryTable(cmd.OutOrStdout(), ctrl.FavoriteCountries(), ctrl.IsFavorite)
}

func runFavoritesToggleCmd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return fmt.Errorf("country name must not be empty")
	}
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	added, err := a.favorites(cmd.Context()).Toggle(cmd.Context(), name)
	if err != nil {
		return fmt.Errorf("failed to save favorites: %w", err)
	}
	verb := "Removed %s from favorites\n"
	if added {
		verb = "Added %s to favorites\n"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), verb, name)
	return err
}

// controller loads the country list so stored names resolve to entries.
// Names no longer present upstream are dropped.
func (a *app) controller(ctx context.Context) *countries.Controller {
	ctrl := countries.NewController(a.recent(ctx), a.favorites(ctx), nil, a.log)
	ctrl.SetCountries(a.client.FetchCountryList(ctx))
	return ctrl
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard as a JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()
	applyStringConfig(cmd, "addr", &serveAddr, a.cfg.Serve.Addr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(dashboard.New(a.client, a.log), a.recent(ctx), a.favorites(ctx), a.log)
	srv.Load(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(serveAddr)
	}()
	logErrf("Serving on http://%s/api\n", serveAddr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Warn("shutdown failed", zap.Error(err))
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return <-errCh
}
