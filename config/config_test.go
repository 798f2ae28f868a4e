package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/phase1912/BigFileSorterGenerator/driver"
	"github.com/phase1912/BigFileSorterGenerator/generator"
	"github.com/phase1912/BigFileSorterGenerator/public"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
sorter:
  input: /data/large.txt
  output: /data/out/sorted.txt
  chunk-size: 64MB
  concurrency: 8
  read-mode: mmap
  strict-format: true
generator:
  output: /data/large.txt
  size: 1GiB
  seed: 99
zap:
  level: debug
  format: json
metrics:
  addr: ":9090"
`

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bigsort.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), public.FilePerm))

	conf, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "debug", conf.Zap.Level)
	assert.Equal(t, "json", conf.Zap.Format)
	// untouched keys keep their defaults
	assert.Equal(t, "[bigsort]", conf.Zap.Prefix)
	assert.Equal(t, ":9090", conf.Metrics.Addr)

	opt, err := conf.Sorter.Options()
	require.NoError(t, err)
	assert.Equal(t, "/data/large.txt", opt.InputPath)
	assert.Equal(t, "/data/out/sorted.txt", opt.DestinationPath)
	assert.Equal(t, filepath.Join("/data/out", "chunks"), opt.WorkDir)
	assert.Equal(t, int64(64000000), opt.MaxChunkBytes)
	assert.Equal(t, 8, opt.MaxConcurrency)
	assert.Equal(t, driver.MMapType, opt.ReadMode)
	assert.Equal(t, public.DefaultBufferSize, opt.BufferSize)
	assert.True(t, opt.StrictFormat)

	genOpt, err := conf.Generator.Options()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<30), genOpt.MaxFileBytes)
	assert.Equal(t, uint64(99), genOpt.Seed)
	assert.Equal(t, generator.DefaultBatchLines, genOpt.BatchLines)
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	v.Set("sorter.input", "in.txt")
	v.Set("sorter.output", "out/sorted.txt")
	v.Set("sorter.work-dir", "tmp/chunks")

	conf, err := Load(v, "")
	require.NoError(t, err)

	opt, err := conf.Sorter.Options()
	require.NoError(t, err)
	assert.Equal(t, "tmp/chunks", opt.WorkDir)
	assert.Equal(t, int64(public.DefaultMaxChunkBytes), opt.MaxChunkBytes)
	assert.Equal(t, public.DefaultMaxConcurrency, opt.MaxConcurrency)
	assert.Equal(t, driver.FileIOType, opt.ReadMode)

	genOpt, err := conf.Generator.Options()
	require.NoError(t, err)
	assert.Equal(t, int64(generator.DefaultMaxFileBytes), genOpt.MaxFileBytes)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSorterConfig_BadChunkSize(t *testing.T) {
	for _, size := range []string{"lots", "0", ""} {
		_, err := SorterConfig{Input: "a", Output: "b", ChunkSize: size}.Options()
		assert.ErrorIs(t, err, public.ErrInvalidConfig, size)
	}
}
