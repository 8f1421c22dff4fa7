package dataset

// stream.go cleans a pricing file as it is read, so Read never holds the
// raw bytes in memory:
//
//   - bomSkipper drops a leading UTF-8 BOM written by spreadsheet exports
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - countingReader records the number of bytes consumed
//
// newSourceReader applies them in that order.

import (
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func newSourceReader(r io.Reader) *countingReader {
	return &countingReader{r: newUTF8Sanitizer(&bomSkipper{r: r})}
}

// bomSkipper removes a UTF-8 BOM from the start of the stream.
type bomSkipper struct {
	r       io.Reader
	checked bool
	head    []byte
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true

		var buf [3]byte
		n, err := io.ReadFull(b.r, buf[:])
		switch {
		case err == io.ErrUnexpectedEOF || err == io.EOF:
			// Short input; whatever arrived is the whole stream
		case err != nil:
			return 0, err
		}
		if !bytes.Equal(buf[:n], utf8BOM) {
			b.head = append(b.head, buf[:n]...)
		}
	}

	if len(b.head) > 0 {
		n := copy(p, b.head)
		b.head = b.head[n:]
		return n, nil
	}
	return b.r.Read(p)
}

// utf8Sanitizer rewrites invalid UTF-8 in place. A multi-byte rune split
// across reads is held back until the next read completes it.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}
	if isASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err != nil), err
}

// sanitize fixes data in place and returns the usable length. Unless atEOF,
// an incomplete trailing rune is moved to pending.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(data[read:]) {
				s.pending = append(s.pending, data[read:]...)
				return write
			}
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// countingReader tracks bytes read from the cleaned stream.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
