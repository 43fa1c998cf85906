// Stocker keeps a local collection of enriched stock records and serves it
// to the browser UI.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/seenimoa/stocker/api"
	"github.com/seenimoa/stocker/internal/config"
	"github.com/seenimoa/stocker/internal/infra"
	"github.com/seenimoa/stocker/internal/logging"
	"github.com/seenimoa/stocker/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stocker",
	Short: "Stocker: stock collection with price development tracking",
	Long: `Stocker fetches company profiles and three years of daily prices,
derives 1 month, 3 month, 1 year and 3 year development, and keeps the
results in a JSON collection served to the browser UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}

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

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(configCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Stocker %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := api.NewServer(api.Options{
			Config:  cfg.API,
			Stocks:  a.stocks,
			Opener:  infra.NewFolderOpener(),
			DataDir: cfg.Storage.DataDir(),
			Logger:  logger,
			Version: version,
		})

		ctx, stop := signalContext()
		defer stop()
		return srv.ListenAndServe(ctx, cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
}

// --- Add Command ---

var addCmd = &cobra.Command{
	Use:   "add [symbol]",
	Short: "Fetch a stock and add or update it in the collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		market, _ := cmd.Flags().GetString("market")

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signalContext()
		defer stop()
		rec, err := a.stocks.Add(ctx, args[0], market)
		if err != nil {
			return err
		}

		fmt.Printf("Added %s (%s) at %.2f\n", rec.Symbol, rec.Name, rec.RealtimePrice.Price)
		labels := make([]string, 0, len(rec.Development))
		for label := range rec.Development {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Printf("  %-22s %s\n", label, rec.Development[label])
		}
		return nil
	},
}

func init() {
	addCmd.Flags().String("market", "", `market code; "se" appends the Stockholm suffix .ST`)
}

// --- Update Command ---

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh every stock in the collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.stocks.RefreshAll(context.Background(), store.ProgressFunc(func(msg string) {
			fmt.Println(msg)
		}))
		if err != nil {
			return err
		}
		if len(report.Failed) > 0 {
			fmt.Println()
			for _, f := range report.Failed {
				fmt.Printf("  %s: %s\n", f.Symbol, f.Error)
			}
		}
		return nil
	},
}

// --- List Command ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stocks in the collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		c, err := store.New(store.NewFileStorage(cfg.Storage.DataFile), nil).All(cmd.Context())
		if errors.Is(err, store.ErrNotFound) {
			fmt.Println("No stocks yet. Add one with: stocker add <symbol>")
			return nil
		}
		if err != nil {
			return err
		}

		if asJSON {
			data, err := json.Marshal(c)
			if err != nil {
				return err
			}
			os.Stdout.Write(pretty.Pretty(data))
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SYMBOL\tNAME\tPRICE\tAS OF")
		for _, r := range c {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", r.Symbol, r.Name,
				r.RealtimePrice.Price, r.RealtimePrice.Timestamp.Format("2006-01-02"))
		}
		return tw.Flush()
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "print the raw collection")
}

// --- Repair Command ---

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair a damaged collection file",
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := store.NewFileStorage(cfg.Storage.DataFile)
		changed, err := fs.Repair(cmd.Context())
		if err != nil {
			return err
		}
		if !changed {
			fmt.Printf("%s is valid, nothing to repair\n", fs.Path())
			return nil
		}
		fmt.Printf("Repaired %s (original kept as %s.bak)\n", fs.Path(), fs.Path())
		return nil
	},
}

// --- Config Command ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}
