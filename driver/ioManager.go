package driver

import "github.com/phase1912/BigFileSorterGenerator/public"

const (
	DataFilePerm = public.FilePerm
)

// IOType selects how chunk files are read back during a merge
type IOType = string

const (
	FileIOType IOType = "fileio"
	MMapType   IOType = "mmap"
)

// IOManager is the file handle chunk readers and writers go through
type IOManager interface {
	// Read fills the slice from the given offset
	Read([]byte, int64) (int, error)

	// Write appends at the current position
	Write([]byte) (int, error)

	Sync() error
	Close() error

	// Size is the current length of the file in bytes
	Size() (int64, error)
}

// NewIOManager opens an existing chunk file for reading with the given io type
func NewIOManager(fileName string, typ IOType) (IOManager, error) {
	switch typ {
	case MMapType:
		return NewMMap(fileName)
	default:
		return OpenFileIOManager(fileName)
	}
}

// ReaderAt adapts an IOManager to io.ReaderAt so it can back an io.SectionReader
type ReaderAt struct {
	IOManager
}

func (r ReaderAt) ReadAt(b []byte, off int64) (int, error) {
	return r.IOManager.Read(b, off)
}

func ValidIOType(typ IOType) bool {
	return typ == FileIOType || typ == MMapType
}
