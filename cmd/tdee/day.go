package tdee

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saadjs/tdee-cli/internal/model"
	"github.com/saadjs/tdee-cli/internal/service"
)

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Record and review daily entries",
}

var (
	dayLog          int64
	dayDate         string
	dayWeight       float64
	dayWeightUnit   string
	dayCalories     float64
	dayEnergyUnit   string
	dayMinCalories  int
	dayMaxCalories  int
	dayTargetWeight float64
	dayNotes        string
)

var dayAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update the entry for a day",
	Long:  "Records weight and intake for one calendar day. A second add for the same day updates that day; values not given keep what was stored.",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDayOrToday(dayDate)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			prefs, err := service.GetPreferences(sqldb)
			if err != nil {
				return err
			}
			weightUnit := dayWeightUnit
			if weightUnit == "" {
				weightUnit = string(prefs.WeightUnit)
			}
			energyUnit := dayEnergyUnit
			if energyUnit == "" {
				energyUnit = string(prefs.EnergyUnit)
			}

			in := service.DayEntryInput{
				LogID:      dayLog,
				Date:       date,
				Weight:     optionalFloat(cmd, "weight", dayWeight),
				WeightUnit: weightUnit,
				Calories:   optionalFloat(cmd, "calories", dayCalories),
				EnergyUnit: energyUnit,
				Notes:      dayNotes,
			}
			bounds := &model.DayBounds{
				MinCalories: optionalInt(cmd, "min-calories", dayMinCalories),
				MaxCalories: optionalInt(cmd, "max-calories", dayMaxCalories),
			}
			if target := optionalFloat(cmd, "target-weight", dayTargetWeight); target != nil {
				kg, err := service.ConvertWeightToKg(*target, weightUnit)
				if err != nil {
					return err
				}
				bounds.TargetWeightKg = &kg
			}
			if !bounds.Empty() {
				in.Bounds = bounds
			}

			res, err := service.UpsertDayEntry(sqldb, in)
			if err != nil {
				return err
			}
			verb := "Updated"
			if res.Created {
				verb = "Added"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s day %s (entry %d)\n", verb, service.FormatDay(date), res.ID)
			return nil
		})
	},
}

var (
	dayFrom  string
	dayTo    string
	dayLimit int
)

var dayListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a log's days",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := service.DayEntryFilter{LogID: dayLog, Limit: dayLimit}
		if dayFrom != "" {
			from, err := service.ParseDay(dayFrom)
			if err != nil {
				return err
			}
			filter.From = from
		}
		if dayTo != "" {
			to, err := service.ParseDay(dayTo)
			if err != nil {
				return err
			}
			filter.To = to
		}
		return withDB(func(sqldb *sql.DB) error {
			if _, err := service.GetLog(sqldb, dayLog); err != nil {
				return err
			}
			items, err := service.ListDayEntries(sqldb, filter)
			if err != nil {
				return err
			}
			prefs, err := service.GetPreferences(sqldb)
			if err != nil {
				return err
			}
			return writeDayRows(cmd.OutOrStdout(), items, prefs)
		})
	},
}

var dayDeleteCmd = &cobra.Command{
	Use:   "delete <YYYY-MM-DD>",
	Short: "Delete the entry for a day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := service.ParseDay(args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteDayEntry(sqldb, dayLog, date); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted day %s\n", service.FormatDay(date))
			return nil
		})
	},
}

// writeDayRows prints entries in the preferred display units.
func writeDayRows(out io.Writer, entries []model.DayEntry, prefs model.Preferences) error {
	fmt.Fprintf(out, "DATE\tWEIGHT_%s\tENERGY_%s\tMIN\tMAX\tNOTES\n", prefs.WeightUnit, prefs.EnergyUnit)
	for _, e := range entries {
		var weight, energy *float64
		if e.WeightKg != nil {
			w, err := service.WeightFromKg(*e.WeightKg, string(prefs.WeightUnit))
			if err != nil {
				return err
			}
			weight = &w
		}
		if e.Calories != nil {
			v, err := service.EnergyFromKcal(float64(*e.Calories), string(prefs.EnergyUnit))
			if err != nil {
				return err
			}
			energy = &v
		}
		minCal, maxCal := "-", "-"
		if e.Bounds != nil && e.Bounds.MinCalories != nil {
			minCal = fmt.Sprintf("%d", *e.Bounds.MinCalories)
		}
		if e.Bounds != nil && e.Bounds.MaxCalories != nil {
			maxCal = fmt.Sprintf("%d", *e.Bounds.MaxCalories)
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\t%s\n", service.FormatDay(e.Date), formatOptional(weight, 2), formatOptional(energy, 0), minCal, maxCal, e.Notes)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(dayCmd)
	dayCmd.AddCommand(dayAddCmd, dayListCmd, dayDeleteCmd)
	dayCmd.PersistentFlags().Int64Var(&dayLog, "log", 0, "Log id")
	_ = dayCmd.MarkPersistentFlagRequired("log")

	dayAddCmd.Flags().StringVar(&dayDate, "date", "", "Day (YYYY-MM-DD, default today)")
	dayAddCmd.Flags().Float64Var(&dayWeight, "weight", 0, "Body weight")
	dayAddCmd.Flags().StringVar(&dayWeightUnit, "weight-unit", "", "Weight unit: kg|lb (default from prefs)")
	dayAddCmd.Flags().Float64Var(&dayCalories, "calories", 0, "Energy intake")
	dayAddCmd.Flags().StringVar(&dayEnergyUnit, "energy-unit", "", "Energy unit: kcal|kj (default from prefs)")
	dayAddCmd.Flags().IntVar(&dayMinCalories, "min-calories", 0, "Lower calorie bound (kcal)")
	dayAddCmd.Flags().IntVar(&dayMaxCalories, "max-calories", 0, "Upper calorie bound (kcal)")
	dayAddCmd.Flags().Float64Var(&dayTargetWeight, "target-weight", 0, "Target weight in the entry's weight unit")
	dayAddCmd.Flags().StringVar(&dayNotes, "notes", "", "Notes")

	dayListCmd.Flags().StringVar(&dayFrom, "from", "", "From day (YYYY-MM-DD)")
	dayListCmd.Flags().StringVar(&dayTo, "to", "", "To day (YYYY-MM-DD)")
	dayListCmd.Flags().IntVar(&dayLimit, "limit", 0, "Max days to show")
}
