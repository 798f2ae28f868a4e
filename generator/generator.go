package generator

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/phase1912/BigFileSorterGenerator/data"
	"github.com/phase1912/BigFileSorterGenerator/public"
	"github.com/phase1912/BigFileSorterGenerator/public/utils/bytex"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

const (
	DefaultMaxFileBytes  = 2 << 30
	DefaultBatchLines    = 1000000
	DefaultPayloadLength = 10
)

type Options struct {
	OutputPath string
	// MaxFileBytes stops generation after the first batch that takes the
	// file past this size
	MaxFileBytes  int64
	BatchLines    int
	PayloadLength int
	// Seed makes the output reproducible, 0 seeds from the clock
	Seed       uint64
	SyncWrites bool
	Logger     *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		MaxFileBytes:  DefaultMaxFileBytes,
		BatchLines:    DefaultBatchLines,
		PayloadLength: DefaultPayloadLength,
	}
}

type Result struct {
	Records int64
	Bytes   int64
}

func checkOptions(opt *Options) error {
	if opt.OutputPath == "" {
		return public.NewConfigError("OutputPath", public.ErrOutputPathEmpty)
	}
	if opt.MaxFileBytes <= 0 {
		return public.NewConfigError("MaxFileBytes", public.ErrChunkSizeInvalid)
	}
	if opt.BatchLines <= 0 {
		opt.BatchLines = DefaultBatchLines
	}
	if opt.PayloadLength <= 0 {
		opt.PayloadLength = DefaultPayloadLength
	}
	if opt.Seed == 0 {
		opt.Seed = uint64(time.Now().UnixNano())
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return nil
}

// Generate writes random `<key>.<PAYLOAD>` lines to OutputPath in batches
// until the file is larger than MaxFileBytes
func Generate(ctx context.Context, opt Options) (Result, error) {
	if err := checkOptions(&opt); err != nil {
		return Result{}, err
	}
	dir := filepath.Dir(opt.OutputPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return Result{}, public.NewIOError("mkdir", dir, err)
	}

	out, err := data.CreateChunkWriter(opt.OutputPath, nil, opt.SyncWrites)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	r := rand.New(rand.NewSource(opt.Seed))
	opt.Logger.Info("generating file",
		zap.String("output", opt.OutputPath),
		zap.String("maxSize", humanize.IBytes(uint64(opt.MaxFileBytes))),
		zap.Uint64("seed", opt.Seed),
	)
	for batch := 1; out.Bytes() <= opt.MaxFileBytes; batch++ {
		if err := ctx.Err(); err != nil {
			_ = out.Abort()
			return Result{}, err
		}
		for i := 0; i < opt.BatchLines; i++ {
			if err := out.WriteLine(bytex.RandomRecord(r, opt.PayloadLength)); err != nil {
				_ = out.Abort()
				return Result{}, err
			}
		}
		opt.Logger.Debug("batch written",
			zap.Int("batch", batch),
			zap.String("size", humanize.IBytes(uint64(out.Bytes()))),
		)
	}
	if err := out.Commit(); err != nil {
		return Result{}, err
	}

	result := Result{Records: out.Records(), Bytes: out.Bytes()}
	opt.Logger.Info("file generated",
		zap.String("output", opt.OutputPath),
		zap.Int64("records", result.Records),
		zap.String("size", humanize.IBytes(uint64(result.Bytes))),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}
