package markdown

import (
	"strings"
	"testing"
)

const sampleDoc = `Some preamble text.

# Title

Intro paragraph.

## Abstract

We present things.

![fig](images/fig1.png)

## References

[1] A paper.`

func TestChunkHeadings(t *testing.T) {
	chunks := Chunk(sampleDoc, 1)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks (preamble + 3 headings), got %d", len(chunks))
	}
	if !chunks[0].IsPreamble() {
		t.Errorf("first chunk should be preamble, got title %q", chunks[0].Title)
	}
	if chunks[1].Title != "Title" || chunks[1].Level != 1 {
		t.Errorf("chunk 1 = %q level %d", chunks[1].Title, chunks[1].Level)
	}
	if chunks[2].Title != "Abstract" || chunks[2].Level != 2 {
		t.Errorf("chunk 2 = %q level %d", chunks[2].Title, chunks[2].Level)
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestChunkImageRefs(t *testing.T) {
	chunks := Chunk(sampleDoc, 1)
	abstract := chunks[2]
	if len(abstract.Images) != 1 || abstract.Images[0] != "images/fig1.png" {
		t.Errorf("abstract images = %v", abstract.Images)
	}
}

func TestChunkMinLevel(t *testing.T) {
	// With minLevel 2, the H1 heading is plain content inside the preamble.
	chunks := Chunk(sampleDoc, 2)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks at minLevel 2, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Content(), "# Title") {
		t.Errorf("H1 should stay in preamble content:\n%s", chunks[0].Content())
	}
}

func TestChunkTrailingBlankTrimmed(t *testing.T) {
	chunks := Chunk("# A\n\ncontent\n\n\n", 1)
	if got := chunks[0].Content(); got != "content" {
		t.Errorf("content = %q", got)
	}
}

func TestChunkNoHeadings(t *testing.T) {
	chunks := Chunk("just text\nmore text", 1)
	if len(chunks) != 1 || !chunks[0].IsPreamble() {
		t.Fatalf("expected single preamble chunk, got %+v", chunks)
	}
}

func TestReconstructRoundTrip(t *testing.T) {
	docs := []string{
		sampleDoc,
		"# Only\n\ncontent",
		"no headings at all",
		"# A\n## B\n### C",
	}
	for _, doc := range docs {
		got := Reconstruct(Chunk(doc, 1))
		// Chunking trims the blank-line run before each heading (trailing
		// whitespace of the preceding chunk), so compare modulo blank lines.
		if normalize(got) != normalize(doc) {
			t.Errorf("round trip mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, doc)
		}
	}
}

// normalize drops blank lines and trailing per-line whitespace, the only
// differences chunking is allowed to introduce.
func normalize(s string) string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if t := strings.TrimRight(l, " \t"); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}

func TestChunkContentPreserved(t *testing.T) {
	chunks := Chunk(sampleDoc, 1)
	var all string
	for _, c := range chunks {
		all += c.Content()
	}
	for _, want := range []string{"Some preamble text.", "Intro paragraph.", "[1] A paper."} {
		if !strings.Contains(all, want) {
			t.Errorf("chunked content lost %q", want)
		}
	}
}

func TestPreambleLevel(t *testing.T) {
	chunks := Chunk("before\n## H", 2)
	if chunks[0].Level != 2 {
		t.Errorf("preamble level = %d, want minLevel", chunks[0].Level)
	}
}
