// Package sse reassembles "data:"-framed Server-Sent-Events lines from the
// arbitrary byte chunks a transport delivers.
package sse

import (
	"strings"
	"unicode/utf8"
)

const dataPrefix = "data: "

// Decoder turns a sequence of byte chunks into decoded SSE frames. It keeps
// two kinds of partial state between chunks: trailing bytes of an incomplete
// UTF-8 sequence, and an unterminated trailing line. Lines that do not carry
// the "data: " prefix are discarded, which matches what the upstream protocol
// expects of consumers.
type Decoder struct {
	raw       []byte
	pending   strings.Builder
	discarded int
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes one transport chunk and returns every complete frame it
// finishes. A frame is the remainder of a newline-terminated "data: " line.
func (d *Decoder) Feed(chunk []byte) []string {
	d.raw = append(d.raw, chunk...)

	complete := completeUTF8Len(d.raw)
	text := string(d.raw[:complete])
	d.raw = append(d.raw[:0], d.raw[complete:]...)

	var frames []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			d.pending.WriteString(text)
			break
		}
		line := d.pending.String() + text[:i]
		d.pending.Reset()
		text = text[i+1:]

		if frame, ok := d.decodeLine(line); ok {
			frames = append(frames, frame)
		}
	}
	return frames
}

// Flush emits the trailing unterminated line, if any, as a final frame. The
// caller invokes it once, when the byte stream has ended.
func (d *Decoder) Flush() (string, bool) {
	// Whatever bytes remain can no longer complete a rune; decode them as-is.
	d.pending.Write(d.raw)
	d.raw = nil

	line := d.pending.String()
	d.pending.Reset()
	if line == "" {
		return "", false
	}
	return d.decodeLine(line)
}

// Discarded reports how many non-empty lines were dropped for not carrying
// the data prefix.
func (d *Decoder) Discarded() int {
	return d.discarded
}

func (d *Decoder) decodeLine(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		// Blank lines separate SSE events; they are framing, not payload.
		return "", false
	}
	if !strings.HasPrefix(line, dataPrefix) {
		d.discarded++
		return "", false
	}
	return line[len(dataPrefix):], true
}

// completeUTF8Len returns the length of the longest prefix of b that does not
// end in a truncated multi-byte sequence.
func completeUTF8Len(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		c := b[i]
		if c < utf8.RuneSelf {
			break
		}
		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[i:]) {
				return i
			}
			break
		}
	}
	return len(b)
}
