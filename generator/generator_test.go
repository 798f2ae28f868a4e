package generator

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/phase1912/BigFileSorterGenerator/data"
	"github.com/phase1912/BigFileSorterGenerator/public"
	"github.com/phase1912/BigFileSorterGenerator/public/utils/bytex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestOptions(t *testing.T) Options {
	opt := DefaultOptions()
	opt.OutputPath = filepath.Join(t.TempDir(), "nested", "large.txt")
	opt.MaxFileBytes = 4096
	opt.BatchLines = 100
	opt.Seed = 7
	opt.Logger = zaptest.NewLogger(t)
	return opt
}

func TestGenerate(t *testing.T) {
	opt := newTestOptions(t)
	result, err := Generate(context.Background(), opt)
	require.NoError(t, err)

	content, err := os.ReadFile(opt.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), result.Bytes)
	assert.Greater(t, result.Bytes, opt.MaxFileBytes)
	assert.Zero(t, result.Records%int64(opt.BatchLines))
	assert.NoFileExists(t, opt.OutputPath+public.TempFileSuffix)

	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	assert.Len(t, lines, int(result.Records))
	for _, line := range lines {
		rec, err := data.ParseRecordStrict(line)
		require.NoError(t, err, line)
		assert.GreaterOrEqual(t, rec.Key, int64(bytex.MinRecordKey))
		assert.Less(t, rec.Key, int64(bytex.MaxRecordKey))
		assert.Len(t, rec.Payload, DefaultPayloadLength)
		assert.Equal(t, strings.ToUpper(rec.Payload), rec.Payload)
		assert.Equal(t, strconv.FormatInt(rec.Key, 10)+"."+rec.Payload, line)
	}
}

func TestGenerate_Seeded(t *testing.T) {
	first := newTestOptions(t)
	second := newTestOptions(t)

	_, err := Generate(context.Background(), first)
	require.NoError(t, err)
	_, err = Generate(context.Background(), second)
	require.NoError(t, err)

	a, err := os.ReadFile(first.OutputPath)
	require.NoError(t, err)
	b, err := os.ReadFile(second.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_InvalidOptions(t *testing.T) {
	opt := newTestOptions(t)
	opt.OutputPath = ""
	_, err := Generate(context.Background(), opt)
	assert.ErrorIs(t, err, public.ErrOutputPathEmpty)

	opt = newTestOptions(t)
	opt.MaxFileBytes = 0
	_, err = Generate(context.Background(), opt)
	assert.ErrorIs(t, err, public.ErrInvalidConfig)
}

func TestGenerate_Cancelled(t *testing.T) {
	opt := newTestOptions(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate(ctx, opt)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, opt.OutputPath)
	assert.NoFileExists(t, opt.OutputPath+public.TempFileSuffix)
}
