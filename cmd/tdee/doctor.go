package tdee

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/tdee-cli/internal/service"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Orphan days: %d\n", report.OrphanDays)
			fmt.Fprintf(out, "Unreadable bounds: %d\n", report.InvalidBounds)
			fmt.Fprintf(out, "Inverted bounds: %d\n", report.InvertedBounds)
			fmt.Fprintf(out, "Empty days: %d\n", report.EmptyDays)
			if doctorFix {
				fmt.Fprintf(out, "Cleared bounds rows: %d\n", report.FixedBoundsRows)
				fmt.Fprintf(out, "Removed empty days: %d\n", report.RemovedEmptyDays)
				// Re-check after fixes so exit status reflects final state.
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
			}
			if !report.Healthy() {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt safe auto-fixes")
}
