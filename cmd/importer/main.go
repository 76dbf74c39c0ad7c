package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/grachmannico95/oms-bulk-import/internal/bootstrap"
	"github.com/grachmannico95/oms-bulk-import/internal/config"
	"github.com/grachmannico95/oms-bulk-import/internal/eventbus"
	"github.com/grachmannico95/oms-bulk-import/internal/service"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
)

var (
	cfg        *config.Config
	log        *logger.Logger
	bus        eventbus.EventBus
	svc        service.ImportService
	closeStore func()

	storeDriver     string
	delimiter       string
	encoding        string
	updateExisting  bool
	skipDuplicates  bool
	checkDuplicates bool
	validateSKUs    bool
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Bulk import of orders and SKUs from CSV or XLSX files",
	Long: `Validate and import order and SKU files into the order management store.

Every row is validated against the column schema first. Valid rows are then
checked against the store in batches and created, updated or skipped. The
final job, including per-row errors, is printed as JSON on stdout.`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

func init() {
	cobra.OnFinalize(cleanup)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&storeDriver, "store", "", "store driver: memory or postgres (default from STORE_DRIVER)")
	flags.StringVar(&delimiter, "delimiter", "", `CSV delimiter, a single character or "tab"`)
	flags.StringVar(&encoding, "encoding", "", "file encoding: utf-8, windows-1250 or iso-8859-2")
	flags.BoolVar(&updateExisting, "update-existing", false, "update SKUs that already exist")
	flags.BoolVar(&skipDuplicates, "skip-duplicates", true, "skip SKUs that already exist")
	flags.BoolVar(&checkDuplicates, "check-duplicates", true, "skip orders whose order_no already exists")
	flags.BoolVar(&validateSKUs, "validate-skus", true, "reject order lines referencing unknown SKUs")
}

func needsStore(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "orders", "skus", "job":
		return true
	}
	return false
}

func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	cfg = config.Load()
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	log = logger.NewDevelopment(cfg.Logging.Level)

	if !needsStore(cmd) {
		return nil
	}

	ctx := cmd.Context()
	store, closeFn, err := bootstrap.OpenStore(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("store initialization failed: %w", err)
	}
	closeStore = closeFn

	bus, err = bootstrap.StartEventBus(ctx, cfg, store, log)
	if err != nil {
		return err
	}

	orderOpts, skuOpts := bootstrap.ImportOptions(cfg.Import)
	svc = service.NewImportService(store, bus, orderOpts, skuOpts, log)

	return nil
}

// cleanup runs after every command, including failed ones.
func cleanup() {
	ctx := context.Background()

	if bus != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := bus.Shutdown(shutdownCtx); err != nil {
			log.Warn(ctx, "Event bus shutdown error", "error", err)
		}
		bus = nil
	}

	if closeStore != nil {
		closeStore()
		closeStore = nil
	}

	if log != nil {
		_ = log.Sync()
	}
}

// applyFlags lets explicitly set flags override the environment configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("store") {
		cfg.Storage.Driver = storeDriver
	}
	if flags.Changed("delimiter") {
		r, err := parseDelimiter(delimiter)
		if err != nil {
			return err
		}
		cfg.Import.CSVDelimiter = r
	}
	if flags.Changed("encoding") {
		cfg.Import.CSVEncoding = encoding
	}
	if flags.Changed("update-existing") {
		cfg.Import.UpdateExisting = updateExisting
	}
	if flags.Changed("skip-duplicates") {
		cfg.Import.SkipDuplicates = skipDuplicates
	}
	if flags.Changed("check-duplicates") {
		cfg.Import.CheckDuplicates = checkDuplicates
	}
	if flags.Changed("validate-skus") {
		cfg.Import.ValidateSKUs = validateSKUs
	}

	return nil
}

func parseDelimiter(s string) (rune, error) {
	if s == "tab" || s == `\t` {
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return r[0], nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
