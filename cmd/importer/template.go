package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grachmannico95/oms-bulk-import/internal/importer"
)

var templateOutput string

var templateCmd = &cobra.Command{
	Use:   "template <name>",
	Short: "Write a blank import template",
	Long: `Write a blank import template with the header row and one sample row.

Available templates: orders.csv, skus.csv, orders.xlsx, skus.xlsx`,
	Example: `  importer template orders.csv
  importer template skus.xlsx -o skus.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplate,
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVarP(&templateOutput, "output", "o", "", "output file (default stdout)")
}

func runTemplate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if templateOutput != "" {
		f, err := os.Create(templateOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", templateOutput, err)
		}
		defer f.Close()
		out = f
	}

	if _, err := importer.WriteTemplate(out, args[0]); err != nil {
		return err
	}

	if templateOutput != "" {
		log.Info(cmd.Context(), "Template written", "template", args[0], "path", templateOutput)
	}
	return nil
}
