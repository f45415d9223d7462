package stream

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

// validatingWriter fails the test if any single Write is not valid UTF-8.
type validatingWriter struct {
	t   *testing.T
	buf bytes.Buffer
}

func (w *validatingWriter) Write(p []byte) (int, error) {
	if !utf8.Valid(p) {
		w.t.Errorf("write is not valid UTF-8: %q", p)
	}
	return w.buf.Write(p)
}

func TestEncoderByteAtATime(t *testing.T) {
	const text = "序言 mixed 文本 with CJK。"
	w := &validatingWriter{t: t}
	enc := NewEncoder(w)
	for i := 0; i < len(text); i++ {
		if _, err := enc.Write([]byte{text[i]}); err != nil {
			t.Fatalf("write byte %d: %v", i, err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := w.buf.String(); got != text {
		t.Errorf("round trip = %q, want %q", got, text)
	}
}

func TestEncoderSplitRuneAcrossWrites(t *testing.T) {
	raw := []byte("你好") // 6 bytes, two runes
	w := &validatingWriter{t: t}
	enc := NewEncoder(w)

	if _, err := enc.Write(raw[:4]); err != nil { // second rune incomplete
		t.Fatal(err)
	}
	if !enc.Buffered() {
		t.Error("partial rune should be buffered")
	}
	if _, err := enc.Write(raw[4:]); err != nil {
		t.Fatal(err)
	}
	if enc.Buffered() {
		t.Error("nothing should remain buffered")
	}
	if got := w.buf.String(); got != "你好" {
		t.Errorf("round trip = %q", got)
	}
}

func TestEncoderPassesThroughInvalidBytes(t *testing.T) {
	raw := []byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb}
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if _, err := enc.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), raw) {
		t.Errorf("invalid input mangled: %x", buf.Bytes())
	}
}

func TestSplit(t *testing.T) {
	content := strings.Repeat("汉字和 ascii ", 50)
	frags := Split(content, 16)
	var joined strings.Builder
	for i, f := range frags {
		if f == "" {
			t.Errorf("fragment %d empty", i)
		}
		if len(f) > 16 {
			t.Errorf("fragment %d is %d bytes", i, len(f))
		}
		if !utf8.ValidString(f) {
			t.Errorf("fragment %d splits a rune: %q", i, f)
		}
		joined.WriteString(f)
	}
	if joined.String() != content {
		t.Error("fragments do not reassemble the content")
	}

	if got := Split("", 16); got != nil {
		t.Errorf("empty content gave %v", got)
	}
	if got := Split("short", 1024); len(got) != 1 || got[0] != "short" {
		t.Errorf("small content gave %v", got)
	}
}

func TestStreamDelivery(t *testing.T) {
	const content = "# 标题\n\n正文 body text。\n"
	frags := make(chan string)
	go func() {
		defer close(frags)
		for _, f := range Split(content, 8) {
			frags <- f
		}
	}()

	w := &validatingWriter{t: t}
	if err := Stream(t.Context(), w, frags, 0); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if got := w.buf.String(); got != content {
		t.Errorf("streamed = %q, want %q", got, content)
	}
}

func TestStreamKeepalive(t *testing.T) {
	frags := make(chan string)
	go func() {
		defer close(frags)
		frags <- "before"
		time.Sleep(80 * time.Millisecond)
		frags <- "after"
	}()

	w := &validatingWriter{t: t}
	if err := Stream(t.Context(), w, frags, 10*time.Millisecond); err != nil {
		t.Fatalf("stream: %v", err)
	}
	got := w.buf.String()
	if !strings.Contains(got, Filler) {
		t.Error("no keepalive filler emitted during the stall")
	}
	if cleaned := strings.ReplaceAll(got, Filler, ""); cleaned != "beforeafter" {
		t.Errorf("payload = %q", cleaned)
	}
}

func TestStreamCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	frags := make(chan string) // never fed
	done := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		done <- Stream(ctx, &buf, frags, 0)
	}()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not observe cancellation")
	}
}
