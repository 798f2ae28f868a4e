package sort

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sorter "github.com/phase1912/BigFileSorterGenerator"
	"github.com/phase1912/BigFileSorterGenerator/cmd/root"
	"github.com/phase1912/BigFileSorterGenerator/metrics"
	"github.com/phase1912/BigFileSorterGenerator/public"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var sortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Sort a large file",
	Long:  `Sort splits the input into sorted chunks no larger than --chunk-size, then merges them pairwise with up to --concurrency chunks per round.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		if err := root.Bind(v, cmd, map[string]string{
			"input":        "sorter.input",
			"output":       "sorter.output",
			"workdir":      "sorter.work-dir",
			"chunk-size":   "sorter.chunk-size",
			"concurrency":  "sorter.concurrency",
			"read-mode":    "sorter.read-mode",
			"sync":         "sorter.sync-writes",
			"strict":       "sorter.strict-format",
			"metrics-addr": "metrics.addr",
		}); err != nil {
			return err
		}
		conf, err := root.LoadConfig(v)
		if err != nil {
			return err
		}
		logger, err := root.NewLogger(conf)
		if err != nil {
			return err
		}
		defer logger.Sync()

		opt, err := conf.Sorter.Options()
		if err != nil {
			return err
		}
		opt.Logger = logger

		if conf.Metrics.Addr != "" {
			reg := prometheus.NewRegistry()
			opt.Metrics = metrics.NewMetrics(reg)
			srv := serveMetrics(conf.Metrics.Addr, reg, logger)
			defer shutdownMetrics(srv, logger)
		}

		s, err := sorter.NewSorter(opt)
		if err != nil {
			return err
		}

		// Ctrl+C or SIGTERM cancels the running merges
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := s.Sort(ctx); err != nil {
			return err
		}
		stats := s.Stats()
		logger.Info("sorted",
			zap.String("output", opt.DestinationPath),
			zap.Int64("records", stats.Records),
			zap.Int("chunks", stats.Chunks),
			zap.Int("rounds", stats.Rounds),
			zap.Int64("peakMerges", stats.PeakMerges),
		)
		return nil
	},
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server running", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}

func shutdownMetrics(srv *http.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown", zap.Error(err))
	}
}

func init() {
	sortCmd.Flags().StringP("input", "i", "", "Path of the file to sort")
	sortCmd.Flags().StringP("output", "o", "", "Path of the sorted file, its directory is created when missing")
	sortCmd.Flags().StringP("workdir", "w", "", "Directory for chunk files [default <output dir>/chunks]")
	sortCmd.Flags().StringP("chunk-size", "s", "50MiB", "Maximum size of records sorted in memory at once, e.g. 64MB or 1GiB")
	sortCmd.Flags().IntP("concurrency", "n", public.DefaultMaxConcurrency, "Maximum chunks merged in one round, at least 2")
	sortCmd.Flags().StringP("read-mode", "", "fileio", "How chunk files are read (fileio/mmap)")
	sortCmd.Flags().BoolP("sync", "", false, "Whether to fsync every chunk before it is renamed into place (true/false)")
	sortCmd.Flags().BoolP("strict", "", false, "Reject lines whose key is not an integer instead of treating it as 0")
	sortCmd.Flags().StringP("metrics-addr", "", "", "Serve prometheus metrics on this address, e.g. :9090 (optional)")

	root.AddCommand(sortCmd)
}
