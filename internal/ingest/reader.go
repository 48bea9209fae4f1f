package ingest

// reader.go wraps upload bodies so parsers see clean UTF-8 without loading
// the whole file:
//
//   - BOMSkippingReader drops a leading UTF-8 byte order mark
//   - UTF8Sanitizer replaces invalid bytes with '?'
//   - LimitReader fails with ErrFileTooLarge past a byte budget
//
// Wrap applies all three in that order.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrFileTooLarge is returned once a reader exceeds its byte budget.
var ErrFileTooLarge = errors.New("file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader strips a UTF-8 BOM from the start of a stream.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			if _, err := r.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?'. A multi-byte rune
// split across two reads is held back until the next read completes it.
type UTF8Sanitizer struct {
	r       io.Reader
	pending []byte
	eof     bool
}

// NewUTF8Sanitizer creates a sanitizing reader.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if s.eof && len(s.pending) == 0 {
		return 0, io.EOF
	}

	n := copy(p, s.pending)
	rest := append([]byte(nil), s.pending[n:]...)
	s.pending = s.pending[:0]

	var err error
	if !s.eof && n < len(p) {
		var m int
		m, err = s.r.Read(p[n:])
		n += m
		if err == io.EOF {
			s.eof = true
			err = nil
		}
	}

	out := s.sanitize(p[:n])
	s.pending = append(s.pending, rest...)
	if out == 0 && err == nil && s.eof && len(s.pending) == 0 {
		return 0, io.EOF
	}
	return out, err
}

// sanitize rewrites data in place and returns the usable length.
func (s *UTF8Sanitizer) sanitize(data []byte) int {
	w := 0
	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			data[w] = data[i]
			w++
			i++
			continue
		}
		rest := data[i:]
		r, size := utf8.DecodeRune(rest)
		if r == utf8.RuneError && size == 1 {
			if !s.eof && !utf8.FullRune(rest) {
				s.pending = append(s.pending, rest...)
				return w
			}
			data[w] = '?'
			w++
			i++
			continue
		}
		copy(data[w:], rest[:size])
		w += size
		i += size
	}
	return w
}

// LimitReader fails with ErrFileTooLarge once more than max bytes are read.
type LimitReader struct {
	r         io.Reader
	max       int64
	BytesRead int64
}

// NewLimitReader wraps r. A non-positive max disables the limit.
func NewLimitReader(r io.Reader, max int64) *LimitReader {
	return &LimitReader{r: r, max: max}
}

// Read implements io.Reader.
func (l *LimitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.BytesRead += int64(n)
	if l.max > 0 && l.BytesRead > l.max {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, l.max)
	}
	return n, err
}

// Wrap applies BOM skipping, UTF-8 sanitizing and the size limit.
func Wrap(r io.Reader, maxBytes int64) *LimitReader {
	return NewLimitReader(NewUTF8Sanitizer(NewBOMSkippingReader(r)), maxBytes)
}
