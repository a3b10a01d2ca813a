// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lines streams a file one line at a time so callers never hold more
// than a single line in memory.
package lines

import (
	"bufio"
	"bytes"
	"io"

	"gitlab.com/tozd/go/errors"
)

const (
	// 📏 DefaultMaxLineLength caps how many bytes a single buffered line may hold
	DefaultMaxLineLength = 16 << 20

	bufferSize = 64 << 10
	sniffSize  = 8000
)

// ErrLineTooLong is returned by Next when a line exceeds the configured ceiling.
var ErrLineTooLong = errors.Base("line exceeds maximum length")

// 📖 Reader yields lines with their terminators intact.
type Reader struct {
	br   *bufio.Reader
	max  int
	line int
}

// 🏭 NewReader wraps r. A max of zero or less selects DefaultMaxLineLength.
func NewReader(r io.Reader, max int) *Reader {
	if max <= 0 {
		max = DefaultMaxLineLength
	}
	return &Reader{
		br:  bufio.NewReaderSize(r, bufferSize),
		max: max,
	}
}

// Line reports how many lines have been consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// 🔍 LooksBinary reports whether the head of the stream contains a NUL byte.
// It does not consume any input.
func (r *Reader) LooksBinary() bool {
	head, _ := r.br.Peek(sniffSize)
	return bytes.IndexByte(head, 0) >= 0
}

// 📝 Next returns a copy of the next line including its "\n" terminator, if
// any. The last line of a stream may be unterminated. io.EOF is returned once
// the stream is exhausted.
func (r *Reader) Next() ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.br.ReadSlice('\n')
		if len(line)+len(chunk) > r.max {
			return nil, errors.WithDetails(ErrLineTooLong, "line", r.line+1, "max", r.max)
		}
		line = append(line, chunk...)
		switch {
		case err == nil:
			r.line++
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) == 0 {
				return nil, io.EOF
			}
			r.line++
			return line, nil
		default:
			return nil, errors.Errorf("reading line %d: %w", r.line+1, err)
		}
	}
}

// 📋 CopyLine streams the next line to w in buffer-sized chunks, so lines of
// any length pass through without being held whole.
func (r *Reader) CopyLine(w io.Writer) (int64, error) {
	var n int64
	for {
		chunk, err := r.br.ReadSlice('\n')
		if len(chunk) > 0 {
			wrote, werr := w.Write(chunk)
			n += int64(wrote)
			if werr != nil {
				return n, werr
			}
		}
		switch {
		case err == nil:
			r.line++
			return n, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if n == 0 {
				return 0, io.EOF
			}
			r.line++
			return n, nil
		default:
			return n, errors.Errorf("reading line %d: %w", r.line+1, err)
		}
	}
}

// Rest copies everything that has not been consumed yet to w.
func (r *Reader) Rest(w io.Writer) (int64, error) {
	return r.br.WriteTo(w)
}

// TrimTerminator strips a trailing "\n" (and a preceding "\r") from line.
func TrimTerminator(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}

// 🔪 Split breaks b into lines that keep their terminators. The final element
// is unterminated when b does not end in "\n".
func Split(b []byte) [][]byte {
	var out [][]byte
	for len(b) > 0 {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			out = append(out, b)
			break
		}
		out = append(out, b[:i+1])
		b = b[i+1:]
	}
	return out
}
