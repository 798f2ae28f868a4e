package public

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	ErrInvalidConfig    = errors.New("invalid sorter configuration")
	ErrInputPathEmpty   = errors.New("the input path can not be empty")
	ErrOutputPathEmpty  = errors.New("the destination path can not be empty")
	ErrWorkDirEmpty     = errors.New("the working directory can not be empty")
	ErrChunkSizeInvalid = errors.New("the max chunk size must be greater than 0")
	ErrConcurrencyLow   = errors.New("the max concurrency must be at least 2")
	ErrReadModeUnknown  = errors.New("unknown chunk read mode, expect fileio or mmap")
	ErrSamePath         = errors.New("the input and destination path can not be the same file")
	ErrWorkDirOccupied  = errors.New("working directory is occupied by another sorter")
	ErrChunkNotFound    = errors.New("the chunk is not in the working set")
	ErrChunkNotClaimed  = errors.New("the chunk was never claimed by a merge")
	ErrChunkConsumed    = errors.New("the chunk has already been consumed")
	ErrWriterClosed     = errors.New("the chunk writer is already closed")
	ErrWriteNotAllowed  = errors.New("the io manager does not support writes")
)

// ConfigError reports a missing or invalid setting. It matches ErrInvalidConfig.
type ConfigError struct {
	Field string
	Err   error
}

func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// IOError reports a failed read, write, rename or delete on an input,
// chunk or destination file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

func (e *IOError) Error() string {
	cause := e.Err
	// a PathError repeats the path, keep only its cause
	var pathErr *fs.PathError
	if errors.As(cause, &pathErr) && pathErr.Path == e.Path {
		cause = pathErr.Err
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, cause)
}

func (e *IOError) Unwrap() error { return e.Err }

// FormatError reports a malformed record. Only strict parsing produces it.
type FormatError struct {
	Line string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed record %q: %v", e.Line, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
