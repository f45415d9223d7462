package translate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hikari/ronbun/internal/markdown"
	"github.com/hikari/ronbun/internal/models"
)

func TestSplitSegmentsFitsBudget(t *testing.T) {
	text := "short text"
	segs := SplitSegments(text, 100)
	if len(segs) != 1 || segs[0] != text {
		t.Fatalf("segs = %v", segs)
	}
}

func TestSplitSegmentsParagraphAligned(t *testing.T) {
	paras := []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
		strings.Repeat("c", 30),
	}
	text := strings.Join(paras, "\n\n")
	segs := SplitSegments(text, 40)
	if len(segs) != 3 {
		t.Fatalf("expected one segment per paragraph, got %d: %v", len(segs), segs)
	}
	for i, seg := range segs {
		if seg != paras[i] {
			t.Errorf("segment %d split inside a paragraph: %q", i, seg)
		}
	}
	// Concatenation preserves all content in order.
	if strings.Join(segs, "\n\n") != text {
		t.Error("segments do not reassemble to the original text")
	}
}

func TestSplitSegmentsOversizedParagraph(t *testing.T) {
	big := strings.Repeat("x", 200)
	segs := SplitSegments("small\n\n"+big, 50)
	if len(segs) != 2 {
		t.Fatalf("segs = %d", len(segs))
	}
	// The oversized paragraph is kept whole as an irreducible unit.
	if segs[1] != big {
		t.Errorf("oversized paragraph was split: %d chars", len(segs[1]))
	}
}

func TestSplitSegmentsPacking(t *testing.T) {
	paras := []string{"aaaa", "bbbb", "cccc", "dddd"}
	segs := SplitSegments(strings.Join(paras, "\n\n"), 11)
	for _, seg := range segs {
		if len(seg) > 11 && !strings.Contains(seg, "\n\n") {
			continue // single oversized paragraph is allowed
		}
		if len(seg) > 11 {
			t.Errorf("multi-paragraph segment over budget: %q", seg)
		}
	}
}

func TestTranslateChunkPlaceholderWithoutCompleter(t *testing.T) {
	tr := NewTranslator(nil, 100, time.Second, nil)
	chunk := &models.Chunk{Title: "Methods", Lines: []string{"Some content."}}
	got := tr.TranslateChunk(t.Context(), chunk, models.SectionMethods)
	if got == "" {
		t.Fatal("placeholder must never be empty")
	}
	if !strings.Contains(got, "Methods") {
		t.Errorf("placeholder should name the section: %q", got)
	}
}

func TestTranslateChunkPlaceholderPerSegment(t *testing.T) {
	tr := NewTranslator(nil, 30, time.Second, nil)
	chunk := &models.Chunk{
		Title: "Methods",
		Lines: []string{strings.Repeat("a", 25), "", strings.Repeat("b", 25), "", strings.Repeat("c", 25)},
	}
	want := len(SplitSegments(strings.TrimSpace(chunk.Content()), 30))
	if want < 2 {
		t.Fatalf("fixture too small: %d segments", want)
	}
	got := tr.TranslateChunk(t.Context(), chunk, models.SectionMethods)
	if n := strings.Count(got, "未配置翻译服务"); n != want {
		t.Errorf("placeholders = %d, want one per segment (%d):\n%s", n, want, got)
	}
}

func TestTranslateChunkEmptyContent(t *testing.T) {
	tr := NewTranslator(&MockCompleter{}, 100, time.Second, nil)
	chunk := &models.Chunk{Title: "Empty"}
	if got := tr.TranslateChunk(t.Context(), chunk, models.SectionShort); got != "" {
		t.Errorf("empty chunk should yield empty translation, got %q", got)
	}
}

func TestTranslateChunkErrorPlaceholder(t *testing.T) {
	mock := &MockCompleter{Err: errors.New("upstream 503")}
	tr := NewTranslator(mock, 100, time.Second, nil)
	chunk := &models.Chunk{Title: "Results", Lines: []string{"Numbers went up."}}
	got := tr.TranslateChunk(t.Context(), chunk, models.SectionResults)
	if !strings.Contains(got, "翻译调用失败") {
		t.Errorf("error placeholder missing: %q", got)
	}
	if !strings.Contains(got, "upstream 503") {
		t.Errorf("error class not embedded: %q", got)
	}
}

func TestTranslateChunkSegmentsConcatenated(t *testing.T) {
	mock := &MockCompleter{Prefix: "OK:"}
	tr := NewTranslator(mock, 30, time.Second, nil)
	chunk := &models.Chunk{
		Title: "Body",
		Lines: []string{strings.Repeat("a", 25), "", strings.Repeat("b", 25)},
	}
	got := tr.TranslateChunk(t.Context(), chunk, models.SectionGeneral)
	if mock.Calls() != 2 {
		t.Errorf("expected 2 segment calls, got %d", mock.Calls())
	}
	if strings.Count(got, "OK:") != 2 {
		t.Errorf("expected both segment translations present:\n%s", got)
	}
}

func TestTranslateDocumentEveryChunkRepresented(t *testing.T) {
	chunks := markdown.Chunk("# Abstract\n\nA paper.\n\n# References\n\n[1] X.", 1)
	tr := NewTranslator(nil, 6000, time.Second, nil)
	doc := tr.TranslateDocument(t.Context(), "X123", "zh", chunks)
	if len(doc.Chunks) != len(chunks) {
		t.Fatalf("chunks dropped: %d != %d", len(doc.Chunks), len(chunks))
	}
	if doc.Chunks[0].Kind != models.SectionAbstract {
		t.Errorf("kind = %s", doc.Chunks[0].Kind)
	}
	if doc.Chunks[1].Kind != models.SectionReferences {
		t.Errorf("kind = %s", doc.Chunks[1].Kind)
	}
	for i, bc := range doc.Chunks {
		if bc.Translation == "" {
			t.Errorf("chunk %d has empty translation in placeholder mode", i)
		}
	}
}

func TestInstructionsVaryByKind(t *testing.T) {
	general := Instructions(models.SectionGeneral)
	refs := Instructions(models.SectionReferences)
	code := Instructions(models.SectionCodeHeavy)
	if general == refs || refs == code {
		t.Error("kind-specific rules should differ")
	}
	for _, p := range []string{general, refs, code} {
		if !strings.Contains(p, "代码块不要翻译") {
			t.Error("invariant rules must be present for every kind")
		}
	}
}

func TestSegmentMessagesShape(t *testing.T) {
	msgs := SegmentMessages("Intro", "text body", models.SectionIntroduction)
	if len(msgs) != 2 || msgs[0].Role != "system" || msgs[1].Role != "user" {
		t.Fatalf("messages = %+v", msgs)
	}
	if !strings.Contains(msgs[1].Content, "Intro") || !strings.Contains(msgs[1].Content, "text body") {
		t.Errorf("user message missing title or segment: %q", msgs[1].Content)
	}
}
