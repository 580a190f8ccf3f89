package tdee

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/tdee-cli/internal/service"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Bring in data exported from a phone health store",
}

var (
	healthLog       int64
	healthIn        string
	healthFormat    string
	healthSource    string
	healthOverwrite bool
	healthDryRun    bool
)

var healthImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Merge weight and dietary energy samples into a log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(healthIn) == "" {
			return fmt.Errorf("--in is required")
		}
		raw, err := os.ReadFile(healthIn)
		if err != nil {
			return fmt.Errorf("read health export: %w", err)
		}
		format := healthFormat
		if format == "" {
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(healthIn)), ".")
		}
		export, err := service.DecodeHealthExport(raw, format)
		if err != nil {
			return err
		}
		source := healthSource
		if source == "" {
			source = export.Source
		}
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.MergeHealthSamples(sqldb, healthLog, export.Samples, service.HealthMergeOptions{
				Source:    source,
				Overwrite: healthOverwrite,
				DryRun:    healthDryRun,
			})
			if err != nil {
				return err
			}
			prefix := "Health import"
			if healthDryRun {
				prefix = "Dry-run health import"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: samples=%d created=%d updated=%d unchanged=%d\n", prefix, report.Samples, report.DaysCreated, report.DaysUpdated, report.DaysUnchanged)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.AddCommand(healthImportCmd)
	healthImportCmd.Flags().Int64Var(&healthLog, "log", 0, "Log id")
	_ = healthImportCmd.MarkFlagRequired("log")
	healthImportCmd.Flags().StringVar(&healthIn, "in", "", "Health export file (json or yaml)")
	healthImportCmd.Flags().StringVar(&healthFormat, "format", "", "Input format: json|yaml (default from file extension)")
	healthImportCmd.Flags().StringVar(&healthSource, "source", "", "Source label recorded with the import")
	healthImportCmd.Flags().BoolVar(&healthOverwrite, "overwrite", false, "Replace values already recorded for a day")
	healthImportCmd.Flags().BoolVar(&healthDryRun, "dry-run", false, "Report without writing data")
}
