package tdee

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/tdee-cli/internal/listview"
	"github.com/saadjs/tdee-cli/internal/service"
)

var (
	viewLog        int64
	viewPeriodDays int
	viewOrder      string
	viewOffline    bool
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show a log grouped into periods with the current estimate",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if _, err := service.GetLog(sqldb, viewLog); err != nil {
				return err
			}
			prefs, err := service.GetPreferences(sqldb)
			if err != nil {
				return err
			}

			ready := make(chan struct{}, 1)
			failed := make(chan error, 1)
			lv, err := startLiveView(sqldb, viewLog, prefs, viewOptions{periodDays: viewPeriodDays, order: viewOrder, offline: viewOffline},
				func(*listview.Controller) {
					select {
					case ready <- struct{}{}:
					default:
					}
				},
				func(err error) {
					select {
					case failed <- err:
					default:
					}
				})
			if err != nil {
				return err
			}
			defer lv.Close()

			select {
			case <-ready:
			case err := <-failed:
				return fmt.Errorf("estimate log %d: %w", viewLog, err)
			case <-time.After(viewWait()):
				return fmt.Errorf("timed out waiting for log %d", viewLog)
			}
			return renderView(cmd.OutOrStdout(), lv.ctrl, lv.prefs)
		})
	},
}

func viewWait() time.Duration {
	if cfg == nil {
		return 30 * time.Second
	}
	return 2*cfg.EstimatorTimeout + 5*time.Second
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().Int64Var(&viewLog, "log", 0, "Log id")
	_ = viewCmd.MarkFlagRequired("log")
	viewCmd.Flags().IntVar(&viewPeriodDays, "period-days", 0, "Period length in days; 1 lists single days (default from prefs)")
	viewCmd.Flags().StringVar(&viewOrder, "order", "", "Order: asc|desc|none (default from prefs)")
	viewCmd.Flags().BoolVar(&viewOffline, "offline", false, "Skip the remote estimation service")
}
