package tdee

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/tdee-cli/internal/service"
)

var (
	estimateLog  int64
	estimateJSON bool
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Request an energy expenditure estimate for a log",
	RunE: func(cmd *cobra.Command, args []string) error {
		est, err := newEstimator(false)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			l, err := service.LoadLog(sqldb, estimateLog)
			if err != nil {
				return err
			}
			prefs, err := service.GetPreferences(sqldb)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			p, err := est.Estimate(ctx, l)
			if err != nil {
				return fmt.Errorf("estimate log %d: %w", l.ID, err)
			}
			if estimateJSON {
				raw := p.Raw
				if len(raw) == 0 {
					if raw, err = json.Marshal(p); err != nil {
						return fmt.Errorf("marshal estimate: %w", err)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}
			return renderEstimate(cmd.OutOrStdout(), p, prefs)
		})
	},
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateCmd.Flags().Int64Var(&estimateLog, "log", 0, "Log id")
	_ = estimateCmd.MarkFlagRequired("log")
	estimateCmd.Flags().BoolVar(&estimateJSON, "json", false, "Print the raw estimation response")
}
