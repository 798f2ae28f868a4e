package sorter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phase1912/BigFileSorterGenerator/data"
	"github.com/phase1912/BigFileSorterGenerator/public"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// cancelCheckInterval is how many lines pass between two context checks
const cancelCheckInterval = 4096

// Partition reads the input line by line and writes a sorted chunk every
// time the batch grows past MaxChunkBytes, plus one for the remainder.
// Chunk names carry the running record count, so they are unique and
// ordered by position in the input.
func (s *Sorter) Partition(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(s.options.WorkDir, os.ModePerm); err != nil {
		return nil, public.NewIOError("mkdir", s.options.WorkDir, err)
	}
	if err := s.removeStaleChunks(); err != nil {
		return nil, err
	}

	input, err := os.Open(s.options.InputPath)
	if err != nil {
		return nil, public.NewIOError("open", s.options.InputPath, err)
	}
	defer input.Close()

	var (
		count  int64
		size   int64
		batch  []data.Record
		chunks []string
	)
	scanner := data.NewLineScanner(input, make([]byte, 0, s.options.BufferSize))
	for scanner.Scan() {
		if count%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line := scanner.Text()
		rec, err := s.parseRecord(line)
		if err != nil {
			return nil, err
		}
		batch = append(batch, rec)
		count++
		size += int64(len(line))
		s.stats.Records++
		s.stats.Bytes += int64(len(line))
		s.metrics.RecordsRead.Inc()
		s.metrics.BytesRead.Add(float64(len(line)))

		if size > s.options.MaxChunkBytes {
			path, err := s.flushChunk(batch, count)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, path)
			clear(batch)
			batch = batch[:0]
			size = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, public.NewIOError("read", s.options.InputPath, err)
	}

	if len(batch) > 0 {
		path, err := s.flushChunk(batch, count)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, path)
	}
	return chunks, nil
}

func (s *Sorter) parseRecord(line string) (data.Record, error) {
	if s.options.StrictFormat {
		return data.ParseRecordStrict(line)
	}
	return data.ParseRecord(line), nil
}

func (s *Sorter) flushChunk(batch []data.Record, count int64) (string, error) {
	slices.SortStableFunc(batch, data.Compare)
	path := filepath.Join(s.options.WorkDir, fmt.Sprintf("%s%012d%s", public.ChunkFilePrefix, count, public.ChunkFileSuffix))
	if err := data.WriteChunk(path, batch, s.options.SyncWrites); err != nil {
		return "", err
	}
	s.stats.Chunks++
	s.metrics.ChunksCreated.Inc()
	s.logger.Debug("chunk flushed",
		zap.String("path", path),
		zap.Int("records", len(batch)),
	)
	return path, nil
}

// removeStaleChunks clears chunk files, and their temp files, left behind
// by an earlier run that did not finish. Only names carrying the chunk
// prefix are touched, and the input and destination are never removed.
func (s *Sorter) removeStaleChunks() error {
	entries, err := os.ReadDir(s.options.WorkDir)
	if err != nil {
		return public.NewIOError("readdir", s.options.WorkDir, err)
	}
	protected := s.protectedPaths()
	for _, entry := range entries {
		if entry.IsDir() || !isChunkFileName(entry.Name()) {
			continue
		}
		path := filepath.Join(s.options.WorkDir, entry.Name())
		if abs, err := filepath.Abs(path); err == nil && protected[abs] {
			s.logger.Warn("keeping file that looks like a chunk", zap.String("path", path))
			continue
		}
		s.logger.Warn("removing stale chunk file", zap.String("path", path))
		if err := os.Remove(path); err != nil {
			return public.NewIOError("remove", path, err)
		}
	}
	return nil
}

func (s *Sorter) protectedPaths() map[string]bool {
	protected := make(map[string]bool, 3)
	for _, path := range []string{
		s.options.InputPath,
		s.options.DestinationPath,
		s.options.DestinationPath + public.TempFileSuffix,
	} {
		if abs, err := filepath.Abs(path); err == nil {
			protected[abs] = true
		}
	}
	return protected
}

func isChunkFileName(name string) bool {
	if !strings.HasPrefix(name, public.ChunkFilePrefix) {
		return false
	}
	return strings.HasSuffix(name, public.ChunkFileSuffix) ||
		strings.HasSuffix(name, public.ChunkFileSuffix+public.TempFileSuffix)
}
