package main

import (
	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job <id>",
	Short: "Show a stored import job",
	Long: `Show the status, progress and result of an import job. Jobs outlive the
process only with the postgres store.`,
	Example: `  importer job 6f1c2b9e-3d7a-4e55-9a0b-2f0c1d8e7a11 --store postgres`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := svc.GetJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), job)
	},
}

func init() {
	rootCmd.AddCommand(jobCmd)
}
