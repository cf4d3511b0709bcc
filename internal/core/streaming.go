package core

// streaming.go cleans import files while they stream into the CSV reader,
// so an upload is never buffered whole just to fix its encoding.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

// utf8BOM is written by Excel when it saves CSV on Windows.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newImportReader drops a leading UTF-8 BOM and replaces invalid UTF-8
// bytes with '?'.
func newImportReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &utf8Sanitizer{r: br, buf: make([]byte, 4096)}
}

// utf8Sanitizer rewrites invalid bytes in its own buffer. A multi-byte rune
// split across two reads of r is held back until the rest arrives.
type utf8Sanitizer struct {
	r    io.Reader
	buf  []byte
	out  []byte
	tail []byte
	err  error
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// fill is only called once out is drained, so the held-back tail can move
// to the front of buf.
func (s *utf8Sanitizer) fill() {
	kept := copy(s.buf, s.tail)
	s.tail = nil

	m, err := s.r.Read(s.buf[kept:])
	data := s.buf[:kept+m]
	s.err = err

	if err == nil {
		if t := partialRuneTail(data); t > 0 {
			s.tail = data[len(data)-t:]
			data = data[:len(data)-t]
		}
	}
	s.out = data[:sanitize(data)]
}

// sanitize replaces invalid bytes with '?' in place and returns the new length.
func sanitize(data []byte) int {
	if utf8.Valid(data) {
		return len(data)
	}

	w := 0
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			i++
			continue
		}
		w += copy(data[w:], data[i:i+size])
		i += size
	}
	return w
}

// partialRuneTail returns how many trailing bytes of data begin a rune that
// is not yet complete.
func partialRuneTail(data []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		b := data[len(data)-i]
		if !utf8.RuneStart(b) {
			continue
		}
		if b >= utf8.RuneSelf && !utf8.FullRune(data[len(data)-i:]) {
			return i
		}
		return 0
	}
	return 0
}
