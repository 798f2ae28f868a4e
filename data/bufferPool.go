package data

import (
	"bufio"
	"context"
	"io"

	pool "github.com/jolestar/go-commons-pool/v2"
	"github.com/phase1912/BigFileSorterGenerator/public"
	"github.com/pkg/errors"
)

// MergeBuffers holds the scanner seeds for both merge inputs and the output
// writer, so a round of merges reuses memory instead of reallocating it.
type MergeBuffers struct {
	Left   []byte
	Right  []byte
	Writer *bufio.Writer
}

type BufferFactory struct {
	Size int
}

func (f *BufferFactory) MakeObject(ctx context.Context) (*pool.PooledObject, error) {
	size := f.Size
	if size <= 0 {
		size = public.DefaultBufferSize
	}
	return pool.NewPooledObject(&MergeBuffers{
		Left:   make([]byte, 0, size),
		Right:  make([]byte, 0, size),
		Writer: bufio.NewWriterSize(io.Discard, size),
	}), nil
}

func (f *BufferFactory) DestroyObject(ctx context.Context, object *pool.PooledObject) error {
	if _, ok := object.Object.(*MergeBuffers); !ok {
		return errors.New("type mismatch")
	}
	return nil
}

func (f *BufferFactory) ValidateObject(ctx context.Context, object *pool.PooledObject) bool {
	_, ok := object.Object.(*MergeBuffers)
	return ok
}

func (f *BufferFactory) ActivateObject(ctx context.Context, object *pool.PooledObject) error {
	return nil
}

// PassivateObject detaches the writer from the file it was last reset onto
func (f *BufferFactory) PassivateObject(ctx context.Context, object *pool.PooledObject) error {
	buffers, ok := object.Object.(*MergeBuffers)
	if !ok {
		return errors.New("type mismatch")
	}
	buffers.Writer.Reset(io.Discard)
	return nil
}

// NewBufferPool returns a blocking pool that never hands out more than
// maxTotal buffer sets at once
func NewBufferPool(ctx context.Context, maxTotal, size int) *pool.ObjectPool {
	config := pool.NewDefaultPoolConfig()
	config.MaxTotal = maxTotal
	config.MaxIdle = maxTotal
	config.BlockWhenExhausted = true
	return pool.NewObjectPool(ctx, &BufferFactory{Size: size}, config)
}

// BorrowBuffers takes a buffer set from p, waiting while all are in use
func BorrowBuffers(ctx context.Context, p *pool.ObjectPool) (*MergeBuffers, error) {
	object, err := p.BorrowObject(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "borrow merge buffers")
	}
	buffers, ok := object.(*MergeBuffers)
	if !ok {
		return nil, errors.New("type mismatch")
	}
	return buffers, nil
}
