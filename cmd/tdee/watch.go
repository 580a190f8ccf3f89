package tdee

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/saadjs/tdee-cli/internal/feed"
	"github.com/saadjs/tdee-cli/internal/listview"
	"github.com/saadjs/tdee-cli/internal/service"
)

var (
	watchLog         int64
	watchPeriodDays  int
	watchOrder       string
	watchOffline     bool
	watchMetricsAddr string
	watchFor         time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep a log's period view on screen and redraw it on every change",
	Long:  "Follows a log and redraws the period view whenever it changes, including changes written by other tdee commands. Stops on interrupt or after --for.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if _, err := service.GetLog(sqldb, watchLog); err != nil {
				return err
			}
			prefs, err := service.GetPreferences(sqldb)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if watchFor > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, watchFor)
				defer cancel()
			}

			opts := viewOptions{periodDays: watchPeriodDays, order: watchOrder, offline: watchOffline}
			display, _, err := resolveViewPrefs(prefs, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			redraw := func(ctrl *listview.Controller) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(out, "--- %s\n", time.Now().Format(time.TimeOnly))
				if err := renderView(out, ctrl, display); err != nil {
					log.Error().Err(err).Msg("render view")
				}
			}
			lv, err := startLiveView(sqldb, watchLog, prefs, opts, redraw,
				func(err error) {
					fmt.Fprintf(cmd.ErrOrStderr(), "estimate failed: %v\n", err)
				})
			if err != nil {
				return err
			}
			defer lv.Close()

			debounce := time.Duration(0)
			if cfg != nil {
				debounce = cfg.WatchDebounce
			}
			watcher, err := feed.NewWatcher(path, debounce, lv.store.RefreshAll, log)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return watcher.Run(gctx)
			})

			addr := watchMetricsAddr
			if addr == "" && cfg != nil {
				addr = cfg.MetricsAddr
			}
			if addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				g.Go(func() error {
					log.Info().Str("addr", addr).Msg("serving metrics")
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("metrics server: %w", err)
					}
					return nil
				})
				g.Go(func() error {
					<-gctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
			}

			return g.Wait()
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Int64Var(&watchLog, "log", 0, "Log id")
	_ = watchCmd.MarkFlagRequired("log")
	watchCmd.Flags().IntVar(&watchPeriodDays, "period-days", 0, "Period length in days; 1 lists single days (default from prefs)")
	watchCmd.Flags().StringVar(&watchOrder, "order", "", "Order: asc|desc|none (default from prefs)")
	watchCmd.Flags().BoolVar(&watchOffline, "offline", false, "Skip the remote estimation service")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (env TDEE_METRICS_ADDR)")
	watchCmd.Flags().DurationVar(&watchFor, "for", 0, "Stop after this long (default: until interrupted)")
}
