package driver

import (
	"github.com/phase1912/BigFileSorterGenerator/public"
	"golang.org/x/exp/mmap"
)

// MMap is a read only mapping of a whole chunk file
type MMap struct {
	readAt   *mmap.ReaderAt
	fileName string
}

func NewMMap(fileName string) (*MMap, error) {
	readAt, err := mmap.Open(fileName)
	if err != nil {
		return nil, err
	}
	return &MMap{readAt: readAt, fileName: fileName}, nil
}

func (m *MMap) Read(bytes []byte, offset int64) (int, error) {
	return m.readAt.ReadAt(bytes, offset)
}

func (m *MMap) Write(bytes []byte) (int, error) {
	return 0, public.ErrWriteNotAllowed
}

func (m *MMap) Sync() error {
	return nil
}

func (m *MMap) Close() error {
	return m.readAt.Close()
}

func (m *MMap) Size() (int64, error) {
	return int64(m.readAt.Len()), nil
}
