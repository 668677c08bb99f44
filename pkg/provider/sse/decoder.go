// Package sse decodes a server-sent-event byte stream into complete event
// blocks.
//
// The decoder is fed raw bytes exactly as they come off the network. Reads
// may split an event, a line terminator, or a multi-byte UTF-8 sequence at
// any offset; bytes are only decoded to text once the blank line that ends
// an event has arrived, so chunk boundaries never change the decoded result.
package sse

import (
	"errors"
	"strings"
)

// DefaultMaxBuffer bounds the bytes held for a single unterminated event.
const DefaultMaxBuffer = 4 << 20

// ErrBufferOverflow is returned by Write when an event grows past the
// decoder's buffer limit without being terminated.
var ErrBufferOverflow = errors.New("sse: event exceeds buffer limit")

// FrameDecoder accumulates stream bytes and hands out complete events in
// arrival order. It is owned by a single stream and is not safe for
// concurrent use.
type FrameDecoder struct {
	buf []byte
	max int

	// scanned is where the next boundary search resumes. Bytes before it
	// hold no blank line.
	scanned int
}

// NewFrameDecoder creates a decoder with the default buffer limit.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{max: DefaultMaxBuffer}
}

// NewFrameDecoderSize creates a decoder that rejects events larger than max
// bytes. A max of 0 or less disables the limit.
func NewFrameDecoderSize(max int) *FrameDecoder {
	return &FrameDecoder{max: max}
}

// Write appends p to the stream buffer. It implements io.Writer so a
// decoder can sit at the end of an io.Copy.
func (d *FrameDecoder) Write(p []byte) (int, error) {
	if d.max > 0 && len(d.buf)+len(p) > d.max {
		return 0, ErrBufferOverflow
	}
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// Next removes the next complete event from the buffer and returns its text
// without the terminating blank line. It returns false when the buffer holds
// no complete event yet.
func (d *FrameDecoder) Next() (string, bool) {
	end, next, resume := findBoundary(d.buf, d.scanned)
	if end < 0 {
		d.scanned = resume
		return "", false
	}
	event := decodeText(d.buf[:end])
	d.buf = append(d.buf[:0], d.buf[next:]...)
	d.scanned = 0
	return event, true
}

// Flush returns whatever is left in the buffer as a final event and resets
// the decoder. Call it once the stream has ended: a stream may close right
// after the last line without the trailing blank line. Whitespace-only
// leftovers are reported as no event.
func (d *FrameDecoder) Flush() (string, bool) {
	if len(d.buf) == 0 {
		return "", false
	}
	event := decodeText(d.buf)
	d.buf = nil
	d.scanned = 0
	if strings.TrimSpace(event) == "" {
		return "", false
	}
	return strings.TrimRight(event, "\r\n"), true
}

// Buffered returns the number of bytes waiting for an event terminator.
func (d *FrameDecoder) Buffered() int {
	return len(d.buf)
}

// findBoundary locates the first blank line in b at or after from, which
// must be the start of a line terminator or of ordinary bytes. It returns
// the offset where the event text ends and the offset where the following
// event starts. When more data is needed, end is -1 and resume is the offset
// to search from next time: a terminator at the very end of b, or a CR as
// the last byte, stays ambiguous until the next byte arrives.
func findBoundary(b []byte, from int) (end, next, resume int) {
	for i := from; i < len(b); {
		n := terminatorLen(b, i)
		if n < 0 {
			return -1, 0, i
		}
		if n == 0 {
			i++
			continue
		}
		j := i + n
		m := terminatorLen(b, j)
		if m < 0 || j == len(b) {
			return -1, 0, i
		}
		if m > 0 {
			return i, j + m, 0
		}
		i = j
	}
	return -1, 0, len(b)
}

// terminatorLen reports the length of the line terminator starting at b[i]:
// 0 for none, 1 for LF or a lone CR, 2 for CRLF, -1 for a trailing CR.
func terminatorLen(b []byte, i int) int {
	if i >= len(b) {
		return 0
	}
	switch b[i] {
	case '\n':
		return 1
	case '\r':
		if i+1 >= len(b) {
			return -1
		}
		if b[i+1] == '\n' {
			return 2
		}
		return 1
	default:
		return 0
	}
}

// decodeText converts raw event bytes to text, replacing invalid UTF-8 with
// U+FFFD instead of failing.
func decodeText(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// Lines splits an event into its lines, accepting CRLF, LF, and CR endings.
func Lines(event string) []string {
	event = strings.ReplaceAll(event, "\r\n", "\n")
	event = strings.ReplaceAll(event, "\r", "\n")
	return strings.Split(event, "\n")
}
