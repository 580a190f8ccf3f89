package tdee

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/saadjs/tdee-cli/internal/model"
	"github.com/saadjs/tdee-cli/internal/service"
)

var (
	exportFormat string
	exportOut    string
	exportLog    int64
	importFormat string
	importIn     string
	importMode   string
	importDryRun bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export logs (json, yaml or csv)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(exportOut) == "" {
			return fmt.Errorf("--out is required")
		}
		return withDB(func(sqldb *sql.DB) error {
			switch strings.ToLower(strings.TrimSpace(exportFormat)) {
			case "json":
				data, err := service.ExportDataSnapshot(sqldb, exportLog)
				if err != nil {
					return err
				}
				b, err := json.MarshalIndent(data, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal export json: %w", err)
				}
				if err := os.WriteFile(exportOut, b, 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
			case "yaml", "yml":
				data, err := service.ExportDataSnapshot(sqldb, exportLog)
				if err != nil {
					return err
				}
				b, err := yaml.Marshal(data)
				if err != nil {
					return fmt.Errorf("marshal export yaml: %w", err)
				}
				if err := os.WriteFile(exportOut, b, 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
			case "csv":
				if exportLog <= 0 {
					return fmt.Errorf("--log is required for csv export")
				}
				l, err := service.LoadLog(sqldb, exportLog)
				if err != nil {
					return err
				}
				prefs, err := service.GetPreferences(sqldb)
				if err != nil {
					return err
				}
				f, err := os.Create(exportOut)
				if err != nil {
					return fmt.Errorf("create export csv: %w", err)
				}
				defer f.Close()
				if err := service.WriteDaysCSV(f, l, prefs.WeightUnit, prefs.EnergyUnit); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported --format %q (use json, yaml or csv)", exportFormat)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported data to %s\n", exportOut)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import logs from a json or yaml export",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(importIn) == "" {
			return fmt.Errorf("--in is required")
		}
		raw, err := os.ReadFile(importIn)
		if err != nil {
			return fmt.Errorf("read import file: %w", err)
		}
		var payload service.ExportData
		switch strings.ToLower(strings.TrimSpace(importFormat)) {
		case "json":
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("parse import json: %w", err)
			}
		case "yaml", "yml":
			if err := yaml.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("parse import yaml: %w", err)
			}
		default:
			return fmt.Errorf("unsupported --format %q (use json or yaml)", importFormat)
		}
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.ImportDataSnapshot(sqldb, &payload, service.ImportOptions{
				Mode:   service.ImportMode(strings.ToLower(strings.TrimSpace(importMode))),
				DryRun: importDryRun,
			})
			if err != nil {
				return err
			}
			if !importDryRun && payload.Preferences != (model.Preferences{}) {
				if err := restorePreferences(sqldb, payload.Preferences); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Import report: logs_created=%d inserted=%d updated=%d skipped=%d conflicts=%d\n", report.LogsCreated, report.Inserted, report.Updated, report.Skipped, report.Conflicts)
			for _, w := range report.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			if importDryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Dry-run import validated %s\n", importIn)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported data from %s\n", importIn)
			return nil
		})
	},
}

func restorePreferences(sqldb *sql.DB, p model.Preferences) error {
	values := map[string]string{
		service.PrefPeriodDays: fmt.Sprintf("%d", p.PeriodDays),
		service.PrefOrder:      p.Order,
		service.PrefWeightUnit: string(p.WeightUnit),
		service.PrefEnergyUnit: string(p.EnergyUnit),
	}
	for _, key := range service.PreferenceKeys() {
		v := values[key]
		if v == "" || (key == service.PrefPeriodDays && p.PeriodDays <= 0) {
			continue
		}
		if err := service.SetPreference(sqldb, key, v); err != nil {
			return fmt.Errorf("restore preference %s: %w", key, err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format: json, yaml or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file path")
	exportCmd.Flags().Int64Var(&exportLog, "log", 0, "Only export this log (required for csv)")
	importCmd.Flags().StringVar(&importFormat, "format", "json", "Import format: json or yaml")
	importCmd.Flags().StringVar(&importIn, "in", "", "Input file path")
	importCmd.Flags().StringVar(&importMode, "mode", "merge", "Import mode: fail|skip|merge|replace")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and report without writing data")
}
