package sorter

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	pool "github.com/jolestar/go-commons-pool/v2"
	"github.com/phase1912/BigFileSorterGenerator/data"
	"github.com/phase1912/BigFileSorterGenerator/driver"
	"github.com/phase1912/BigFileSorterGenerator/meta"
	"github.com/phase1912/BigFileSorterGenerator/public"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type MergeOptions struct {
	ReadMode   driver.IOType
	SyncWrites bool
	// Buffers is optional, fresh buffers are allocated when nil
	Buffers *data.MergeBuffers
}

type MergeResult struct {
	Records int64
	Bytes   int64
}

// MergeTwo merges two sorted chunk files into outputPath. On equal records
// the left one is written, then the right one, and both sides advance.
// Both inputs are deleted once the output is in place.
func MergeTwo(ctx context.Context, leftPath, rightPath, outputPath string, opts MergeOptions) (MergeResult, error) {
	if opts.ReadMode == "" {
		opts.ReadMode = driver.FileIOType
	}
	var (
		leftBuf, rightBuf []byte
		w                 *bufio.Writer
	)
	if opts.Buffers != nil {
		leftBuf, rightBuf, w = opts.Buffers.Left, opts.Buffers.Right, opts.Buffers.Writer
	}

	left, err := data.OpenChunkReader(leftPath, opts.ReadMode, leftBuf)
	if err != nil {
		return MergeResult{}, err
	}
	right, err := data.OpenChunkReader(rightPath, opts.ReadMode, rightBuf)
	if err != nil {
		return MergeResult{}, withCleanup(err, left.Close())
	}
	out, err := data.CreateChunkWriter(outputPath, w, opts.SyncWrites)
	if err != nil {
		return MergeResult{}, withCleanup(err, left.Close(), right.Close())
	}

	if err := mergeStreams(ctx, left, right, out); err != nil {
		return MergeResult{}, withCleanup(err, out.Abort(), left.Close(), right.Close())
	}
	if err := out.Commit(); err != nil {
		return MergeResult{}, withCleanup(err, left.Close(), right.Close())
	}
	if err := withCleanup(nil, left.Close(), right.Close()); err != nil {
		return MergeResult{}, err
	}

	for _, path := range []string{leftPath, rightPath} {
		if err := os.Remove(path); err != nil {
			return MergeResult{}, public.NewIOError("remove", path, err)
		}
	}
	return MergeResult{Records: out.Records(), Bytes: out.Bytes()}, nil
}

func mergeStreams(ctx context.Context, left, right *data.ChunkReader, out *data.ChunkWriter) error {
	var (
		leftRec, rightRec data.Record
		leftOk, rightOk   bool
		err               error
	)
	advance := func(cr *data.ChunkReader, rec *data.Record, ok *bool) error {
		line, more, err := cr.Next()
		if err != nil {
			return err
		}
		*ok = more
		if more {
			*rec = data.ParseRecord(line)
		}
		return nil
	}
	emit := func(cr *data.ChunkReader, rec *data.Record, ok *bool) error {
		if err := out.WriteLine(rec.Line); err != nil {
			return err
		}
		return advance(cr, rec, ok)
	}

	if err = advance(left, &leftRec, &leftOk); err != nil {
		return err
	}
	if err = advance(right, &rightRec, &rightOk); err != nil {
		return err
	}

	for n := 1; leftOk || rightOk; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		switch {
		case !rightOk:
			err = emit(left, &leftRec, &leftOk)
		case !leftOk:
			err = emit(right, &rightRec, &rightOk)
		default:
			switch c := data.Compare(leftRec, rightRec); {
			case c < 0:
				err = emit(left, &leftRec, &leftOk)
			case c > 0:
				err = emit(right, &rightRec, &rightOk)
			default:
				// equal records: left then right, both sides advance
				if err = emit(left, &leftRec, &leftOk); err == nil {
					err = emit(right, &rightRec, &rightOk)
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// withCleanup keeps err first and appends the non nil cleanup errors after it
func withCleanup(err error, cleanup ...error) error {
	var merr *multierror.Error
	for _, c := range cleanup {
		if c != nil {
			merr = multierror.Append(merr, c)
		}
	}
	if merr == nil {
		return err
	}
	if err == nil {
		return merr.ErrorOrNil()
	}
	return multierror.Append(err, merr.Errors...)
}

// Merge reduces the chunks pairwise in rounds of concurrent merges until two
// remain, then merges those two into the destination. Each round waits for
// all of its merges before the chunk set is updated.
func (s *Sorter) Merge(ctx context.Context, chunkPaths []string) error {
	dest := s.options.DestinationPath
	if err := os.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
		return public.NewIOError("mkdir", filepath.Dir(dest), err)
	}

	switch len(chunkPaths) {
	case 0:
		return s.writeEmptyDestination()
	case 1:
		return s.promoteChunk(chunkPaths[0])
	}

	pairsPerRound := s.options.MaxConcurrency / 2
	bufPool := data.NewBufferPool(ctx, pairsPerRound, s.options.BufferSize)
	defer bufPool.Close(context.Background())

	set := meta.NewChunkSet(chunkPaths...)
	for set.Unconsumed() > 2 {
		if err := ctx.Err(); err != nil {
			return err
		}
		pairs := set.SelectPairs(s.options.MaxConcurrency)
		outputs, err := s.runRound(ctx, bufPool, pairs)
		if err != nil {
			return err
		}
		for i, pair := range pairs {
			if err := set.MarkConsumed(pair.Left.Seq); err != nil {
				return errors.Wrapf(err, "consume chunk %s", pair.Left.Path)
			}
			if err := set.MarkConsumed(pair.Right.Seq); err != nil {
				return errors.Wrapf(err, "consume chunk %s", pair.Right.Path)
			}
			set.Add(outputs[i])
		}
		s.stats.Merges += len(pairs)
		s.stats.Rounds++
		s.metrics.MergeRounds.Inc()
		s.logger.Info("merge round finished",
			zap.Int("round", s.stats.Rounds),
			zap.Int("merges", len(pairs)),
			zap.Int("remaining", set.Unconsumed()),
		)
	}

	final := set.ClaimRemaining()
	if len(final) != 2 {
		return errors.Errorf("final merge expects 2 chunks, got %d", len(final))
	}
	if err := s.mergePair(ctx, bufPool, final[0], final[1], dest); err != nil {
		return err
	}
	for _, chunk := range final {
		if err := set.MarkConsumed(chunk.Seq); err != nil {
			return errors.Wrapf(err, "consume chunk %s", chunk.Path)
		}
	}
	if rest := set.Remaining(); len(rest) != 0 {
		return errors.Errorf("%d chunks left after the final merge", len(rest))
	}
	s.stats.Merges++
	s.logger.Info("final merge written",
		zap.String("destination", dest),
		zap.Int("chunks", set.Len()),
	)
	return nil
}

// runRound merges every pair concurrently. Tasks only report their outputs;
// the caller applies them to the chunk set after the barrier.
func (s *Sorter) runRound(ctx context.Context, bufPool *pool.ObjectPool, pairs []meta.Pair) ([]string, error) {
	outputs := make([]string, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	for i, pair := range pairs {
		i, pair := i, pair
		outputs[i] = s.newChunkPath()
		g.Go(func() error {
			return s.mergePair(gctx, bufPool, pair.Left, pair.Right, outputs[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func (s *Sorter) mergePair(ctx context.Context, bufPool *pool.ObjectPool, left, right meta.Chunk, output string) error {
	buffers, err := data.BorrowBuffers(ctx, bufPool)
	if err != nil {
		return err
	}
	defer func() {
		if err := bufPool.ReturnObject(context.Background(), buffers); err != nil {
			s.logger.Warn("return merge buffers", zap.Error(err))
		}
	}()

	s.enterMerge()
	defer s.leaveMerge()

	start := time.Now()
	result, err := MergeTwo(ctx, left.Path, right.Path, output, MergeOptions{
		ReadMode:   s.options.ReadMode,
		SyncWrites: s.options.SyncWrites,
		Buffers:    buffers,
	})
	if err != nil {
		return err
	}
	s.metrics.MergesDone.Inc()
	s.metrics.MergeDuration.Observe(time.Since(start).Seconds())
	if output != s.options.DestinationPath {
		s.metrics.ChunksCreated.Inc()
	}
	s.logger.Debug("merged chunk pair",
		zap.String("left", left.Path),
		zap.String("right", right.Path),
		zap.String("output", output),
		zap.Int64("records", result.Records),
	)
	return nil
}

func (s *Sorter) newChunkPath() string {
	return filepath.Join(s.options.WorkDir, public.ChunkFilePrefix+uuid.NewString()+public.ChunkFileSuffix)
}

func (s *Sorter) writeEmptyDestination() error {
	out, err := data.CreateChunkWriter(s.options.DestinationPath, nil, s.options.SyncWrites)
	if err != nil {
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}
	s.logger.Info("input is empty, wrote empty destination", zap.String("destination", s.options.DestinationPath))
	return nil
}

// promoteChunk moves a lone chunk to the destination, copying it line by
// line when a rename is not possible (e.g. across devices)
func (s *Sorter) promoteChunk(path string) error {
	dest := s.options.DestinationPath
	if err := os.Rename(path, dest); err == nil {
		s.logger.Info("single chunk moved to destination", zap.String("destination", dest))
		return nil
	}

	src, err := data.OpenChunkReader(path, s.options.ReadMode, nil)
	if err != nil {
		return err
	}
	out, err := data.CreateChunkWriter(dest, nil, s.options.SyncWrites)
	if err != nil {
		return withCleanup(err, src.Close())
	}
	for {
		line, ok, err := src.Next()
		if err != nil {
			return withCleanup(err, out.Abort(), src.Close())
		}
		if !ok {
			break
		}
		if err := out.WriteLine(line); err != nil {
			return withCleanup(err, out.Abort(), src.Close())
		}
	}
	if err := out.Commit(); err != nil {
		return withCleanup(err, src.Close())
	}
	if err := src.Close(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return public.NewIOError("remove", path, err)
	}
	s.logger.Info("single chunk copied to destination", zap.String("destination", dest))
	return nil
}
