package data

import (
	"bufio"
	"bytes"
	"io"

	"github.com/phase1912/BigFileSorterGenerator/public"
)

// ScanLines is a bufio.SplitFunc that accepts "\n", "\r\n" and a lone "\r"
// as line terminators. The terminator is never part of the token and a
// trailing terminator does not produce an empty last line.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		// a '\r' at the end of the buffer may be the first half of "\r\n"
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// NewLineScanner returns a scanner splitting r with ScanLines. buf may be
// nil; it only seeds the scanner's initial buffer.
func NewLineScanner(r io.Reader, buf []byte) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	if buf == nil {
		buf = make([]byte, 0, public.DefaultBufferSize)
	}
	scanner.Buffer(buf[:0], public.MaxLineSize)
	scanner.Split(ScanLines)
	return scanner
}
