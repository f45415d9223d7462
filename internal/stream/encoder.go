// Package stream delivers document content to clients in bounded fragments.
// Every write leaving the package is valid UTF-8, and stalled producers are
// papered over with an invisible keepalive rune so intermediaries do not cut
// the connection.
package stream

import (
	"context"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// Filler is the keepalive padding rune (ZERO WIDTH NO-BREAK SPACE). Clients
// render it as nothing; proxies observe traffic.
const Filler = "\uFEFF"

// Encoder wraps a writer and guarantees every forwarded Write is valid UTF-8:
// bytes forming an incomplete trailing rune are withheld until their
// continuation bytes arrive in a later Write.
type Encoder struct {
	w       io.Writer
	pending [utf8.UTFMax]byte
	n       int
}

// NewEncoder returns an Encoder forwarding to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Write forwards p, withholding an incomplete trailing rune. On success the
// returned count covers all of p, withheld bytes included. Byte sequences that
// are not UTF-8 at all pass through unchanged.
func (e *Encoder) Write(p []byte) (int, error) {
	buf := make([]byte, 0, e.n+len(p))
	buf = append(buf, e.pending[:e.n]...)
	buf = append(buf, p...)

	cut := len(buf)
	for back := 1; back <= utf8.UTFMax && back <= len(buf); back++ {
		i := len(buf) - back
		if utf8.RuneStart(buf[i]) {
			if !utf8.FullRune(buf[i:]) {
				cut = i
			}
			break
		}
	}
	if cut > 0 {
		if _, err := e.w.Write(buf[:cut]); err != nil {
			return 0, err
		}
	}
	e.n = copy(e.pending[:], buf[cut:])
	return len(p), nil
}

// Buffered reports whether bytes of an incomplete rune are being withheld.
func (e *Encoder) Buffered() bool {
	return e.n > 0
}

// Flush writes out any withheld bytes as-is. Called at end of stream so a
// truncated producer does not silently lose its tail.
func (e *Encoder) Flush() error {
	if e.n == 0 {
		return nil
	}
	_, err := e.w.Write(e.pending[:e.n])
	e.n = 0
	return err
}

// Split cuts content into fragments of at most max bytes without splitting a
// rune. Concatenating the fragments reproduces content exactly.
func Split(content string, max int) []string {
	if max < utf8.UTFMax {
		max = utf8.UTFMax
	}
	var frags []string
	for len(content) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		if cut == 0 {
			cut = max
		}
		frags = append(frags, content[:cut])
		content = content[cut:]
	}
	if content != "" {
		frags = append(frags, content)
	}
	return frags
}

// Stream copies fragments to w in order, flushing after every write, and
// emits Filler whenever the producer stalls longer than keepalive. A
// keepalive of zero disables padding. Stream returns when frags closes, or
// with ctx.Err() on cancellation.
func Stream(ctx context.Context, w io.Writer, frags <-chan string, keepalive time.Duration) error {
	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}
	enc := NewEncoder(w)

	for {
		var keepC <-chan time.Time
		var timer *time.Timer
		if keepalive > 0 {
			timer = time.NewTimer(keepalive)
			keepC = timer.C
		}
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case frag, ok := <-frags:
			if timer != nil {
				timer.Stop()
			}
			if !ok {
				err := enc.Flush()
				flush()
				return err
			}
			if _, err := enc.Write([]byte(frag)); err != nil {
				return err
			}
			flush()
		case <-keepC:
			// Padding mid-rune would corrupt the stream; wait for the
			// continuation bytes instead.
			if enc.Buffered() {
				continue
			}
			if _, err := io.WriteString(w, Filler); err != nil {
				return err
			}
			flush()
		}
	}
}
