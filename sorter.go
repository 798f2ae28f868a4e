package sorter

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/phase1912/BigFileSorterGenerator/metrics"
	"github.com/phase1912/BigFileSorterGenerator/public"
	"go.uber.org/zap"
)

// Sorter runs one external merge sort of Options.InputPath into
// Options.DestinationPath
type Sorter struct {
	options Options
	logger  *zap.Logger
	metrics *metrics.Metrics
	lock    *flock.Flock

	stats        Stats
	activeMerges int64
	peakMerges   int64
}

// Stats describes the last run. Only the control loop writes it.
type Stats struct {
	Records    int64
	Bytes      int64
	Chunks     int
	Merges     int
	Rounds     int
	PeakMerges int64
}

func NewSorter(opt Options) (*Sorter, error) {
	// Verify configuration items
	if err := checkOptions(&opt); err != nil {
		return nil, err
	}
	return &Sorter{
		options: opt,
		logger:  opt.Logger,
		metrics: opt.Metrics,
	}, nil
}

// Sort partitions the input into sorted chunks and merges them into the
// destination. The working directory is locked for the whole run.
func (s *Sorter) Sort(ctx context.Context) error {
	if err := s.lockWorkDir(); err != nil {
		return err
	}
	defer s.unlockWorkDir()

	s.stats = Stats{}
	atomic.StoreInt64(&s.peakMerges, 0)
	start := time.Now()
	s.logger.Info("partitioning input",
		zap.String("input", s.options.InputPath),
		zap.String("workDir", s.options.WorkDir),
		zap.String("maxChunkSize", humanize.IBytes(uint64(s.options.MaxChunkBytes))),
	)
	chunks, err := s.Partition(ctx)
	if err != nil {
		s.logger.Error("partition failed", zap.Error(err))
		return err
	}
	s.logger.Info("partition finished",
		zap.Int("chunks", len(chunks)),
		zap.Int64("records", s.stats.Records),
		zap.String("size", humanize.IBytes(uint64(s.stats.Bytes))),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := s.Merge(ctx, chunks); err != nil {
		s.logger.Error("merge failed", zap.Error(err))
		return err
	}
	s.logger.Info("sort finished",
		zap.String("destination", s.options.DestinationPath),
		zap.Int("merges", s.stats.Merges),
		zap.Int("rounds", s.stats.Rounds),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Stats returns a snapshot of the counters of the last run
func (s *Sorter) Stats() Stats {
	stats := s.stats
	stats.PeakMerges = atomic.LoadInt64(&s.peakMerges)
	return stats
}

func (s *Sorter) lockWorkDir() error {
	if err := os.MkdirAll(s.options.WorkDir, os.ModePerm); err != nil {
		return public.NewIOError("mkdir", s.options.WorkDir, err)
	}
	lockPath := filepath.Join(s.options.WorkDir, public.FileLockName)
	fileLock := flock.New(lockPath)
	hold, err := fileLock.TryLock()
	if err != nil {
		return public.NewIOError("lock", lockPath, err)
	}
	if !hold {
		return public.ErrWorkDirOccupied
	}
	s.lock = fileLock
	return nil
}

func (s *Sorter) unlockWorkDir() {
	if s.lock == nil {
		return
	}
	lockPath := s.lock.Path()
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("remove lock file", zap.String("path", lockPath), zap.Error(err))
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("unlock working directory", zap.String("path", lockPath), zap.Error(err))
	}
	s.lock = nil
}

func (s *Sorter) enterMerge() {
	active := atomic.AddInt64(&s.activeMerges, 1)
	for {
		peak := atomic.LoadInt64(&s.peakMerges)
		if active <= peak || atomic.CompareAndSwapInt64(&s.peakMerges, peak, active) {
			break
		}
	}
	s.metrics.ActiveMerges.Inc()
}

func (s *Sorter) leaveMerge() {
	atomic.AddInt64(&s.activeMerges, -1)
	s.metrics.ActiveMerges.Dec()
}
