package sorter

import (
	"os"
	"path/filepath"

	"github.com/phase1912/BigFileSorterGenerator/driver"
	"github.com/phase1912/BigFileSorterGenerator/metrics"
	"github.com/phase1912/BigFileSorterGenerator/public"
	"go.uber.org/zap"
)

type Options struct {
	InputPath       string
	DestinationPath string
	// WorkDir holds the chunk files, created when absent
	WorkDir string

	// MaxChunkBytes bounds the UTF-8 size of the records held in memory
	// before a batch is sorted and flushed to a chunk
	MaxChunkBytes int64
	// MaxConcurrency caps the chunks taken into one merge round, so at most
	// MaxConcurrency/2 two-way merges run at the same time
	MaxConcurrency int

	ReadMode     driver.IOType
	SyncWrites   bool
	StrictFormat bool
	BufferSize   int

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func DefaultOptions() Options {
	return Options{
		WorkDir:        filepath.Join(os.TempDir(), "bigsort-chunks"),
		MaxChunkBytes:  public.DefaultMaxChunkBytes,
		MaxConcurrency: public.DefaultMaxConcurrency,
		ReadMode:       driver.FileIOType,
		BufferSize:     public.DefaultBufferSize,
	}
}

func checkOptions(opt *Options) error {
	if opt.InputPath == "" {
		return public.NewConfigError("InputPath", public.ErrInputPathEmpty)
	}
	if opt.DestinationPath == "" {
		return public.NewConfigError("DestinationPath", public.ErrOutputPathEmpty)
	}
	if opt.WorkDir == "" {
		return public.NewConfigError("WorkDir", public.ErrWorkDirEmpty)
	}
	if opt.MaxChunkBytes <= 0 {
		return public.NewConfigError("MaxChunkBytes", public.ErrChunkSizeInvalid)
	}
	if opt.MaxConcurrency == 0 {
		opt.MaxConcurrency = public.DefaultMaxConcurrency
	}
	if opt.MaxConcurrency < 2 {
		return public.NewConfigError("MaxConcurrency", public.ErrConcurrencyLow)
	}
	if opt.ReadMode == "" {
		opt.ReadMode = driver.FileIOType
	}
	if !driver.ValidIOType(opt.ReadMode) {
		return public.NewConfigError("ReadMode", public.ErrReadModeUnknown)
	}
	if opt.BufferSize <= 0 {
		opt.BufferSize = public.DefaultBufferSize
	}

	input, err := filepath.Abs(opt.InputPath)
	if err != nil {
		return public.NewConfigError("InputPath", err)
	}
	dest, err := filepath.Abs(opt.DestinationPath)
	if err != nil {
		return public.NewConfigError("DestinationPath", err)
	}
	if input == dest {
		return public.NewConfigError("DestinationPath", public.ErrSamePath)
	}

	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.Metrics == nil {
		opt.Metrics = metrics.NewMetrics(nil)
	}
	return nil
}
