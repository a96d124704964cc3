package chat

import (
	"errors"
	"io"
	"iter"
	"strings"
	"unicode/utf8"
)

// DefaultBufferSize is the read size used by DecodeChunks when none is given
const DefaultBufferSize = 4096

const replacementChar = "\uFFFD"

// DecodeChunks reads r until EOF and yields the text received so far in fully decoded pieces.
// A multi-byte character split across reads is held back until it is complete, so every
// yielded string is valid UTF-8. A partial character left at EOF is yielded as U+FFFD.
//
// The sequence can be ranged over once. A read error is yielded as the final element.
func DecodeChunks(r io.Reader, bufSize int) iter.Seq2[string, error] {
	if bufSize < utf8.UTFMax {
		bufSize = DefaultBufferSize
	}

	return func(yield func(string, error) bool) {
		buf := make([]byte, bufSize)
		var pending []byte

		for {
			n, err := r.Read(buf)
			if n > 0 {
				pending = append(pending, buf[:n]...)
				keep := incompleteSuffix(pending)
				if cut := len(pending) - keep; cut > 0 {
					text := strings.ToValidUTF8(string(pending[:cut]), replacementChar)
					pending = append(pending[:0], pending[cut:]...)
					if !yield(text, nil) {
						return
					}
				}
			}

			if errors.Is(err, io.EOF) {
				if len(pending) > 0 {
					yield(replacementChar, nil)
				}
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}

// incompleteSuffix returns how many trailing bytes of p start a character that has not been
// fully received yet.
func incompleteSuffix(p []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(p); i++ {
		start := len(p) - i
		if !utf8.RuneStart(p[start]) {
			continue
		}
		if utf8.FullRune(p[start:]) {
			return 0
		}
		return i
	}
	return 0
}
