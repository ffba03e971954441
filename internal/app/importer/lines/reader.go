// Package lines reads newline-delimited records with a per-line size cap.
// A line over the cap is consumed and reported instead of failing the read.
package lines

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// ReasonTooLong is the malformed-record reason for a line over the cap.
const ReasonTooLong = "line_too_long"

const readBufferSize = 64 * 1024

// Reader yields one line at a time without its line terminator.
type Reader struct {
	r    *bufio.Reader
	max  int
	buf  []byte
	line int
}

// NewReader returns a Reader that rejects lines longer than max bytes.
func NewReader(r io.Reader, max int) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, readBufferSize), max: max}
}

// Line returns the 1-based number of the line last returned by Next.
func (lr *Reader) Line() int { return lr.line }

// Next returns the next line. The slice is valid until the following call.
// tooLong reports a line over the cap; its content is dropped and line is nil.
// At the end of input Next returns io.EOF.
func (lr *Reader) Next() (line []byte, tooLong bool, err error) {
	lr.buf = lr.buf[:0]
	var read int
	for {
		chunk, err := lr.r.ReadSlice('\n')
		read += len(chunk)
		if !tooLong {
			lr.buf = append(lr.buf, chunk...)
			if len(lr.buf) > lr.max+1 {
				tooLong = true
				lr.buf = lr.buf[:0]
			}
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, false, err
		}
		if err != nil && read == 0 {
			return nil, false, io.EOF
		}
		break
	}

	lr.line++
	if tooLong {
		return nil, true, nil
	}
	line = bytes.TrimSuffix(lr.buf, []byte{'\n'})
	if len(line) > lr.max {
		return nil, true, nil
	}
	return line, false, nil
}
