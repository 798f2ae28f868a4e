package data

import (
	"bufio"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/phase1912/BigFileSorterGenerator/driver"
	"github.com/phase1912/BigFileSorterGenerator/public"
)

// ChunkReader streams the lines of a sorted chunk file
type ChunkReader struct {
	path    string
	manager driver.IOManager
	scanner *bufio.Scanner
}

// OpenChunkReader opens path through the io manager of the given type.
// buf seeds the line scanner and may be nil.
func OpenChunkReader(path string, typ driver.IOType, buf []byte) (*ChunkReader, error) {
	manager, err := driver.NewIOManager(path, typ)
	if err != nil {
		return nil, public.NewIOError("open", path, err)
	}
	size, err := manager.Size()
	if err != nil {
		_ = manager.Close()
		return nil, public.NewIOError("stat", path, err)
	}
	section := io.NewSectionReader(driver.ReaderAt{IOManager: manager}, 0, size)
	return &ChunkReader{
		path:    path,
		manager: manager,
		scanner: NewLineScanner(section, buf),
	}, nil
}

// Next returns the next line, ok is false once the chunk is drained
func (cr *ChunkReader) Next() (line string, ok bool, err error) {
	if cr.scanner.Scan() {
		return cr.scanner.Text(), true, nil
	}
	if err := cr.scanner.Err(); err != nil {
		return "", false, public.NewIOError("read", cr.path, err)
	}
	return "", false, nil
}

func (cr *ChunkReader) Close() error {
	if err := cr.manager.Close(); err != nil {
		return public.NewIOError("close", cr.path, err)
	}
	return nil
}

// ChunkWriter writes lines to a temp file next to path and renames it into
// place on Commit, so path never holds a half written chunk.
type ChunkWriter struct {
	path       string
	tmpPath    string
	file       *driver.FileIO
	w          *bufio.Writer
	syncWrites bool
	records    int64
	bytes      int64
	closed     bool
}

// CreateChunkWriter starts a chunk at path. w is reset onto the new file;
// pass nil to allocate a fresh buffer.
func CreateChunkWriter(path string, w *bufio.Writer, syncWrites bool) (*ChunkWriter, error) {
	tmpPath := path + public.TempFileSuffix
	file, err := driver.NewFileIOManager(tmpPath)
	if err != nil {
		return nil, public.NewIOError("create", tmpPath, err)
	}
	if w == nil {
		w = bufio.NewWriterSize(file, public.DefaultBufferSize)
	} else {
		w.Reset(file)
	}
	return &ChunkWriter{
		path:       path,
		tmpPath:    tmpPath,
		file:       file,
		w:          w,
		syncWrites: syncWrites,
	}, nil
}

// WriteLine appends line followed by the normalized separator
func (cw *ChunkWriter) WriteLine(line string) error {
	if cw.closed {
		return public.ErrWriterClosed
	}
	if _, err := cw.w.WriteString(line); err != nil {
		return public.NewIOError("write", cw.tmpPath, err)
	}
	if err := cw.w.WriteByte(public.LineSeparator); err != nil {
		return public.NewIOError("write", cw.tmpPath, err)
	}
	cw.records++
	cw.bytes += int64(len(line)) + 1
	return nil
}

// Commit flushes, optionally syncs, closes and renames the chunk into place.
// On failure the temp file is removed.
func (cw *ChunkWriter) Commit() error {
	if cw.closed {
		return public.ErrWriterClosed
	}
	cw.closed = true

	if err := cw.w.Flush(); err != nil {
		return cw.discard(public.NewIOError("flush", cw.tmpPath, err))
	}
	if cw.syncWrites {
		if err := cw.file.Sync(); err != nil {
			return cw.discard(public.NewIOError("sync", cw.tmpPath, err))
		}
	}
	if err := cw.file.Close(); err != nil {
		return cw.discard(public.NewIOError("close", cw.tmpPath, err))
	}
	if err := os.Rename(cw.tmpPath, cw.path); err != nil {
		return cw.discard(public.NewIOError("rename", cw.tmpPath, err))
	}
	return nil
}

// Abort drops everything written so far
func (cw *ChunkWriter) Abort() error {
	if cw.closed {
		return nil
	}
	cw.closed = true
	var result *multierror.Error
	if err := cw.file.Close(); err != nil {
		result = multierror.Append(result, public.NewIOError("close", cw.tmpPath, err))
	}
	if err := os.Remove(cw.tmpPath); err != nil && !os.IsNotExist(err) {
		result = multierror.Append(result, public.NewIOError("remove", cw.tmpPath, err))
	}
	return result.ErrorOrNil()
}

func (cw *ChunkWriter) discard(cause error) error {
	// the file may already be closed, only the removal matters here
	_ = cw.file.Close()
	if err := os.Remove(cw.tmpPath); err != nil && !os.IsNotExist(err) {
		return multierror.Append(cause, public.NewIOError("remove", cw.tmpPath, err))
	}
	return cause
}

func (cw *ChunkWriter) Records() int64 {
	return cw.records
}

// Bytes counts written bytes including separators
func (cw *ChunkWriter) Bytes() int64 {
	return cw.bytes
}

// WriteChunk persists already sorted records as one chunk file at path
func WriteChunk(path string, records []Record, syncWrites bool) error {
	cw, err := CreateChunkWriter(path, nil, syncWrites)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.WriteLine(rec.Line); err != nil {
			if abortErr := cw.Abort(); abortErr != nil {
				return multierror.Append(err, abortErr)
			}
			return err
		}
	}
	return cw.Commit()
}
