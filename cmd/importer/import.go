package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grachmannico95/oms-bulk-import/internal/domain"
)

var (
	fileFormat string
	skusFile   string
)

var skusCmd = &cobra.Command{
	Use:   "skus <file>",
	Short: "Import a SKU catalogue file",
	Example: `  importer skus ./catalogue.csv
  importer skus ./catalogue.xlsx --update-existing
  importer skus ./catalogue.csv --delimiter ";" --encoding windows-1250`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, domain.ImportKindSKUs, args[0])
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders <file>",
	Short: "Import an order file, one line per order item",
	Long: `Import an order file. Lines sharing an order_no become one order.

Use --skus to import a SKU catalogue first in the same run, which is needed
with the in-memory store.`,
	Example: `  importer orders ./orders.csv
  importer orders ./orders.csv --skus ./catalogue.csv
  importer orders ./orders.xlsx --store postgres`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if skusFile != "" {
			if err := runImport(cmd, domain.ImportKindSKUs, skusFile); err != nil {
				return err
			}
		}
		return runImport(cmd, domain.ImportKindOrders, args[0])
	},
}

func init() {
	rootCmd.AddCommand(skusCmd, ordersCmd)

	for _, c := range []*cobra.Command{skusCmd, ordersCmd} {
		c.Flags().StringVar(&fileFormat, "format", "", "file format: csv or xlsx (default from the file extension)")
	}
	ordersCmd.Flags().StringVar(&skusFile, "skus", "", "SKU file to import before the orders")
}

func runImport(cmd *cobra.Command, kind domain.ImportKind, path string) error {
	format, err := detectFormat(path, fileFormat)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	job, runErr := svc.Import(cmd.Context(), kind, format, f)
	if job != nil {
		if err := printJSON(cmd.OutOrStdout(), job); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("%s import failed: %w", kind, runErr)
	}

	return nil
}

func detectFormat(path, override string) (domain.FileFormat, error) {
	if override != "" {
		format := domain.FileFormat(strings.ToLower(override))
		if format != domain.FileFormatCSV && format != domain.FileFormatXLSX {
			return "", fmt.Errorf("%w: %q", domain.ErrUnknownFileFormat, override)
		}
		return format, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return domain.FileFormatXLSX, nil
	default:
		return domain.FileFormatCSV, nil
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
