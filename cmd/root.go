package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"catalog-sync/adapters"
	"catalog-sync/extractor"
	"catalog-sync/internal/config"
	"catalog-sync/internal/history"
	"catalog-sync/internal/publish"
	"catalog-sync/internal/types"
	"catalog-sync/inventory"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	vendors    []string
	dryRun     bool
	output     string
	dataDir    string
	configFile string
	browser    bool
	verbose    bool
}

// app is the configuration shared by all subcommands once flags are parsed
type app struct {
	cfg     *config.Config
	fetch   *types.Config
	vendors []adapters.VendorConfig
	logger  *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "catalog-sync",
		Short: "Scrape vendor catalogs and diff them against the existing inventory",
		Long: `catalog-sync scrapes the public product catalogs of countertop and tile
vendors, compares the result with the inventory snapshots in the data
directory and writes a Markdown report of new, updated and potentially
discontinued products.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			return runSync(cmd.Context(), cmd, a, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringSliceVar(&opts.vendors, "vendor", []string{extractor.AllVendors}, "Vendors to scrape (key, name or alias; comma-separated or \"all\")")
	flags.StringVar(&opts.output, "output", "", "Directory for reports and exports (default from config: scraper-output)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory holding the inventory snapshots (default from config: data)")
	flags.StringVar(&opts.configFile, "config", config.DefaultFile, "Config file (json5); a .local variant is merged over it")
	flags.BoolVar(&opts.browser, "browser", false, "Render every vendor with the headless browser")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Write the report only; skip exports, history and publishing")

	cmd.AddCommand(newProbeCmd(opts), newVendorsCmd(opts), newRunsCmd(opts))
	return cmd
}

// setup loads the configuration and applies flags on top of it
func setup(cmd *cobra.Command, opts *options) (*app, error) {
	cfg, err := config.Load(opts.configFile, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}

	if opts.output != "" {
		cfg.OutputDir = opts.output
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.browser {
		cfg.Fetch.Browser = true
	}

	fetch, err := cfg.FetchSettings()
	if err != nil {
		return nil, err
	}
	vendors, err := cfg.VendorConfigs()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		fetch:   fetch,
		vendors: vendors,
		logger:  newLogger(cfg.LogLevel, opts.verbose),
	}, nil
}

func newLogger(level string, verbose bool) *logrus.Logger {
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	// LOG_LEVEL wins over --verbose
	logger.SetLevel(logrus.InfoLevel)
	if os.Getenv("LOG_LEVEL") == "" && verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if parsed, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	}
	return logger
}

func runSync(ctx context.Context, cmd *cobra.Command, a *app, opts *options) error {
	runID := uuid.NewString()
	startTime := time.Now()
	logger := a.logger.WithField("run", runID)

	ext := extractor.NewExtractor(a.fetch, logger, a.vendors)
	defer ext.Close()

	keys, err := ext.Resolve(opts.vendors)
	if err != nil {
		logger.Errorf("%v", err)
		logger.Infof("Available vendors: %s", strings.Join(ext.Keys(), ", "))
		return err
	}

	manager := inventory.NewManager(logger, adapters.Aliases(a.vendors))
	if err := manager.Load(a.cfg.DataDir); err != nil {
		return err
	}

	result, err := ext.Run(ctx, keys)
	if err != nil {
		return fmt.Errorf("sync interrupted: %w", err)
	}

	products := result.AllProducts()
	if len(products) == 0 {
		logger.Warn("No products were scraped; nothing to report")
		return inventory.ErrNoProducts
	}

	d := manager.Diff(products, result.ScrapedVendors())
	renames := manager.SuggestRenames(d)
	generated := time.Now()

	reportPath, err := inventory.WriteReport(d, a.cfg.OutputDir, inventory.ReportOptions{
		RunID:       runID,
		GeneratedAt: generated,
		Renames:     renames,
	})
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Infof("Report written to: %s", reportPath)

	if opts.dryRun {
		logger.Info("Dry run: skipping exports, history and publishing")
	} else {
		files := []string{reportPath}

		scrapedPath, err := inventory.Export(products, a.cfg.OutputDir, inventory.ScrapedPrefix, generated)
		if err != nil {
			return fmt.Errorf("failed to export products: %w", err)
		}
		logger.Infof("Scraped products written to: %s", scrapedPath)
		files = append(files, scrapedPath)

		if len(d.New) > 0 {
			newPath, err := inventory.Export(d.New, a.cfg.OutputDir, inventory.NewPrefix, generated)
			if err != nil {
				return fmt.Errorf("failed to export new products: %w", err)
			}
			logger.Infof("New products written to: %s", newPath)
			files = append(files, newPath)
		}

		run := history.NewRun(runID, startTime, time.Now(), d, reportPath)
		recordHistory(ctx, a, logger, run)
		publishArtifacts(ctx, a, logger, runID, files)
	}

	inventory.PrintSummary(cmd.OutOrStdout(), d, result, reportPath)
	return nil
}

func recordHistory(ctx context.Context, a *app, logger logrus.FieldLogger, run *history.Run) {
	if a.cfg.History.DSN == "" {
		return
	}
	store, err := history.Open(ctx, a.cfg.History.DSN)
	if err != nil {
		logger.Warnf("Run history unavailable: %v", err)
		return
	}
	defer store.Close()

	if err := store.SaveRun(ctx, run); err != nil {
		logger.Warnf("Failed to record run history: %v", err)
		return
	}
	logger.Debugf("Recorded run %s with %d discontinued products", run.ID, len(run.Discontinued))
}

func publishArtifacts(ctx context.Context, a *app, logger logrus.FieldLogger, runID string, files []string) {
	if a.cfg.Publish.Bucket == "" {
		return
	}
	p, err := publish.New(ctx, a.cfg.Publish.Bucket, a.cfg.Publish.Prefix, a.cfg.Publish.Region, logger)
	if err != nil {
		logger.Warnf("Publishing unavailable: %v", err)
		return
	}
	if _, err := p.Publish(ctx, runID, files...); err != nil {
		logger.Warnf("Failed to publish artifacts: %v", err)
	}
}
