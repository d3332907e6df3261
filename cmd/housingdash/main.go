// housingdash serves the FRED proxy and assembles the housing market
// dashboard: price index, inventory, mortgage rate, construction spending
// and business loans.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seenimoa/housingdash/api"
	"github.com/seenimoa/housingdash/internal/config"
	"github.com/seenimoa/housingdash/internal/dashboard"
	"github.com/seenimoa/housingdash/internal/logger"
	"github.com/seenimoa/housingdash/internal/providers/fred"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg *config.Config
	log *zap.Logger
)

func main() {
	defer func() {
		if log != nil {
			_ = log.Sync()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "housingdash",
	Short: "Housing market dashboard backed by FRED",
	Long: `housingdash proxies the FRED observations API with a server-side API key
and assembles five housing indicators into one date-aligned dashboard,
falling back to synthetic data when the proxy or the upstream is unavailable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log, err = logger.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		zap.ReplaceGlobals(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("housingdash %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the FRED proxy and dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}
		if cfg.FRED.APIKey == "" {
			log.Warn("FRED API key is not set; proxied requests will fail", zap.String("env", "FRED_API_KEY"))
		}

		srv, err := api.NewServer(cfg, api.WithLogger(log), api.WithVersion(version))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, cfg.Server.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config: 4000)")
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run the dashboard pipeline once and print the result",
	Long: `Fetch all five series through the proxy, join them on date and print the
latest value and trend of each metric. Synthetic data is printed when the
proxy is unreachable or returns no data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if base, _ := cmd.Flags().GetString("base-url"); base != "" {
			cfg.Dashboard.APIBaseURL = base
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		showRecords, _ := cmd.Flags().GetBool("records")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx := cmd.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		snap := newPipeline(cfg, log).Run(ctx)

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}
		renderSnapshot(out, snap, showRecords)
		return nil
	},
}

func init() {
	fetchCmd.Flags().Bool("json", false, "print the snapshot as JSON")
	fetchCmd.Flags().Bool("records", false, "also print the combined table")
	fetchCmd.Flags().String("base-url", "", "proxy base URL (overrides dashboard.api_base_url)")
	fetchCmd.Flags().Duration("timeout", 0, "overall timeout for the run (0 = none)")
}

func newPipeline(cfg *config.Config, log *zap.Logger) *dashboard.Pipeline {
	ep := cfg.Dashboard.Endpoints()
	fetcher := dashboard.NewFetcher(dashboard.Options{
		SeriesURL:              ep.Series,
		HealthURL:              ep.Health,
		ObservationWindowYears: cfg.Dashboard.ObservationWindowYears,
		Frequency:              cfg.Dashboard.Frequency,
		Logger:                 log.Named("fetcher"),
	})
	return dashboard.NewPipeline(fetcher, dashboard.WithLogger(log.Named("dashboard")))
}

// --- Series Command ---

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "List the dashboard metrics and their FRED series",
	Run: func(cmd *cobra.Command, args []string) {
		renderSeries(cmd.OutOrStdout(), dashboard.Series())
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and API key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ep := cfg.Dashboard.Endpoints()

		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  housingdash: System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(out, "  Time (UTC):    %s\n", time.Now().UTC().Format(time.RFC3339))
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    API Server:    %s\n", cfg.Server.Addr())
		fmt.Fprintf(out, "    FRED Base URL: %s (timeout %s)\n", cfg.FRED.BaseURL, cfg.FRED.Timeout)
		fmt.Fprintf(out, "    Series URL:    %s\n", ep.Series)
		fmt.Fprintf(out, "    Health URL:    %s\n", ep.Health)
		fmt.Fprintf(out, "    Window:        %d years, frequency %q\n", cfg.Dashboard.ObservationWindowYears, cfg.Dashboard.Frequency)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}

		if ping, _ := cmd.Flags().GetBool("ping"); ping {
			fmt.Fprintln(out)
			client := fred.New(cfg.FRED.BaseURL, cfg.FRED.APIKey, fred.WithTimeout(cfg.FRED.Timeout), fred.WithLogger(log))
			if err := client.Ping(cmd.Context()); err != nil {
				fmt.Fprintf(out, "  FRED:          ❌ %v\n", err)
			} else {
				fmt.Fprintln(out, "  FRED:          ✅ reachable")
			}
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("ping", false, "check connectivity to the FRED API")
}
