package config

import (
	"path/filepath"

	"github.com/dustin/go-humanize"
	sorter "github.com/phase1912/BigFileSorterGenerator"
	"github.com/phase1912/BigFileSorterGenerator/driver"
	"github.com/phase1912/BigFileSorterGenerator/generator"
	"github.com/phase1912/BigFileSorterGenerator/log"
	"github.com/phase1912/BigFileSorterGenerator/public"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Sorter    SorterConfig    `mapstructure:"sorter" json:"sorter" yaml:"sorter"`
	Generator GeneratorConfig `mapstructure:"generator" json:"generator" yaml:"generator"`
	Zap       log.ZapConfig   `mapstructure:"zap" json:"zap" yaml:"zap"`
	Metrics   MetricsConfig   `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
}

type SorterConfig struct {
	Input        string `mapstructure:"input" json:"input" yaml:"input"`
	Output       string `mapstructure:"output" json:"output" yaml:"output"`
	WorkDir      string `mapstructure:"work-dir" json:"work-dir" yaml:"work-dir"`
	ChunkSize    string `mapstructure:"chunk-size" json:"chunk-size" yaml:"chunk-size"`
	Concurrency  int    `mapstructure:"concurrency" json:"concurrency" yaml:"concurrency"`
	ReadMode     string `mapstructure:"read-mode" json:"read-mode" yaml:"read-mode"`
	BufferSize   string `mapstructure:"buffer-size" json:"buffer-size" yaml:"buffer-size"`
	SyncWrites   bool   `mapstructure:"sync-writes" json:"sync-writes" yaml:"sync-writes"`
	StrictFormat bool   `mapstructure:"strict-format" json:"strict-format" yaml:"strict-format"`
}

type GeneratorConfig struct {
	Output        string `mapstructure:"output" json:"output" yaml:"output"`
	Size          string `mapstructure:"size" json:"size" yaml:"size"`
	Batch         int    `mapstructure:"batch" json:"batch" yaml:"batch"`
	PayloadLength int    `mapstructure:"payload-length" json:"payload-length" yaml:"payload-length"`
	Seed          uint64 `mapstructure:"seed" json:"seed" yaml:"seed"`
}

type MetricsConfig struct {
	// Addr serves /metrics when not empty, e.g. ":9090"
	Addr string `mapstructure:"addr" json:"addr" yaml:"addr"`
}

// SetDefaults registers the default of every key so a partial config file
// or a bare command line still yields a complete Config
func SetDefaults(v *viper.Viper) {
	zapConf := log.DefaultZapConfig()

	v.SetDefault("sorter.chunk-size", humanize.IBytes(uint64(public.DefaultMaxChunkBytes)))
	v.SetDefault("sorter.concurrency", public.DefaultMaxConcurrency)
	v.SetDefault("sorter.read-mode", driver.FileIOType)
	v.SetDefault("sorter.buffer-size", humanize.IBytes(uint64(public.DefaultBufferSize)))

	v.SetDefault("generator.size", humanize.IBytes(generator.DefaultMaxFileBytes))
	v.SetDefault("generator.batch", generator.DefaultBatchLines)
	v.SetDefault("generator.payload-length", generator.DefaultPayloadLength)

	v.SetDefault("zap.level", zapConf.Level)
	v.SetDefault("zap.prefix", zapConf.Prefix)
	v.SetDefault("zap.format", zapConf.Format)
	v.SetDefault("zap.encode-level", zapConf.EncodeLevel)
	v.SetDefault("zap.stacktrace-key", zapConf.StacktraceKey)
	v.SetDefault("zap.max-age", zapConf.MaxAge)
	v.SetDefault("zap.log-in-console", zapConf.LogInConsole)
}

// Load reads the optional config file at path on top of the defaults and
// whatever was already set on v
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "unable to read configuration file %s", path)
		}
	}
	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "unable to decode configuration")
	}
	return conf, nil
}

// Options turns the sorter section into engine options. The working
// directory defaults to a chunks directory next to the output.
func (c SorterConfig) Options() (sorter.Options, error) {
	opt := sorter.DefaultOptions()
	opt.InputPath = c.Input
	opt.DestinationPath = c.Output
	opt.WorkDir = c.WorkDir
	if opt.WorkDir == "" && c.Output != "" {
		opt.WorkDir = filepath.Join(filepath.Dir(c.Output), "chunks")
	}
	opt.MaxConcurrency = c.Concurrency
	opt.ReadMode = c.ReadMode
	opt.SyncWrites = c.SyncWrites
	opt.StrictFormat = c.StrictFormat

	chunkSize, err := parseBytes("chunk-size", c.ChunkSize)
	if err != nil {
		return opt, err
	}
	opt.MaxChunkBytes = chunkSize
	if c.BufferSize != "" {
		bufferSize, err := parseBytes("buffer-size", c.BufferSize)
		if err != nil {
			return opt, err
		}
		opt.BufferSize = int(bufferSize)
	}
	return opt, nil
}

func (c GeneratorConfig) Options() (generator.Options, error) {
	opt := generator.DefaultOptions()
	opt.OutputPath = c.Output
	opt.BatchLines = c.Batch
	opt.PayloadLength = c.PayloadLength
	opt.Seed = c.Seed

	size, err := parseBytes("size", c.Size)
	if err != nil {
		return opt, err
	}
	opt.MaxFileBytes = size
	return opt, nil
}

func parseBytes(field, s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, public.NewConfigError(field, err)
	}
	if n == 0 || n > 1<<62 {
		return 0, public.NewConfigError(field, public.ErrChunkSizeInvalid)
	}
	return int64(n), nil
}
