package tdee

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/tdee-cli/internal/service"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage display preferences",
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a preference (" + strings.Join(service.PreferenceKeys(), ", ") + ")",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.SetPreference(sqldb, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", strings.ToLower(strings.TrimSpace(args[0])))
			return nil
		})
	},
}

var prefsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show current preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			p, err := service.GetPreferences(sqldb)
			if err != nil {
				return err
			}
			order := p.Order
			if order == "" {
				order = "none"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "KEY\tVALUE")
			fmt.Fprintf(out, "%s\t%d\n", service.PrefPeriodDays, p.PeriodDays)
			fmt.Fprintf(out, "%s\t%s\n", service.PrefOrder, order)
			fmt.Fprintf(out, "%s\t%s\n", service.PrefWeightUnit, p.WeightUnit)
			fmt.Fprintf(out, "%s\t%s\n", service.PrefEnergyUnit, p.EnergyUnit)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsSetCmd, prefsGetCmd)
}
