package tdee

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/tdee-cli/internal/app"
	"github.com/saadjs/tdee-cli/internal/db"
	"github.com/saadjs/tdee-cli/internal/estimator"
	"github.com/saadjs/tdee-cli/internal/service"
)

func withDB(run func(*sql.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	return run(sqldb)
}

func resolveDBPath() (string, error) {
	if strings.TrimSpace(dbPath) != "" {
		return dbPath, nil
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return app.DefaultDBPath()
}

func parseInt64Arg(name, value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

// parseDayOrToday reads a --date flag; empty means today.
func parseDayOrToday(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return service.Today(), nil
	}
	return service.ParseDay(value)
}

func optionalFloat(cmd *cobra.Command, name string, v float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func optionalInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

// newEstimator returns the remote client when one is configured, otherwise
// the offline stand-in.
func newEstimator(offline bool) (estimator.Estimator, error) {
	if offline || cfg == nil || !cfg.RemoteEstimation() {
		return estimator.Offline{}, nil
	}
	return estimator.NewClient(estimator.ClientConfig{
		BaseURL: cfg.EstimatorURL,
		Token:   cfg.EstimatorToken,
		Timeout: cfg.EstimatorTimeout,
		RPS:     cfg.EstimatorRPS,
	})
}

func formatOptional(v *float64, decimals int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}
