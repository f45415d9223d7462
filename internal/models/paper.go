// Package models defines core data structures for paper artifacts, chunks, and
// bilingual documents.
package models

import "strings"

// ArtifactKind identifies one processing stage's persisted output.
type ArtifactKind string

const (
	ArtifactPDF       ArtifactKind = "pdf"
	ArtifactMarkdown  ArtifactKind = "md"
	ArtifactBilingual ArtifactKind = "bilingual.md"
	ArtifactReport    ArtifactKind = "report.md"
)

// Tier is a storage location class, consulted in priority order.
type Tier string

const (
	TierLocal   Tier = "local"
	TierDurable Tier = "durable"
)

// Artifact is a persisted output addressable by a canonical path or key.
// Artifacts are immutable once published: a reader never observes a partial
// write (local writes go through temp-then-rename, remote writes are whole-body
// puts).
type Artifact struct {
	PaperID  string       `json:"paper_id"`
	Kind     ArtifactKind `json:"kind"`
	Tier     Tier         `json:"tier"`
	Location string       `json:"location"`
}

// PreambleTitle marks the chunk holding content before the first heading.
const PreambleTitle = "(Preamble)"

// Chunk is a heading-delimited unit of a Markdown document. Chunks are totally
// ordered and non-overlapping; concatenating all chunks in order (headings
// reinserted) reconstructs the document body.
type Chunk struct {
	Index  int      `json:"index"`
	Level  int      `json:"level"` // heading level 1-6
	Title  string   `json:"title"`
	Lines  []string `json:"-"`
	Images []string `json:"images,omitempty"` // embedded image references
}

// Content returns the chunk body with trailing whitespace trimmed.
func (c *Chunk) Content() string {
	return strings.TrimRight(strings.Join(c.Lines, "\n"), " \t\n")
}

// IsPreamble reports whether the chunk holds pre-heading content.
func (c *Chunk) IsPreamble() bool {
	return c.Title == PreambleTitle
}

// SectionKind is a coarse content-type label driving translation-instruction
// selection. It is a pure function of (title, content): the same input always
// yields the same kind.
type SectionKind string

const (
	SectionAbstract      SectionKind = "abstract"
	SectionIntroduction  SectionKind = "introduction"
	SectionMethods       SectionKind = "methods"
	SectionResults       SectionKind = "results"
	SectionDiscussion    SectionKind = "discussion"
	SectionConclusion    SectionKind = "conclusion"
	SectionReferences    SectionKind = "references"
	SectionCodeHeavy     SectionKind = "code-heavy"
	SectionEquationHeavy SectionKind = "equation-heavy"
	SectionTableHeavy    SectionKind = "table-heavy"
	SectionShort         SectionKind = "short"
	SectionGeneral       SectionKind = "general"
)

// BilingualChunk pairs an original chunk with its translation. The translation
// may be an explicit placeholder but is never silently dropped.
type BilingualChunk struct {
	Chunk       *Chunk      `json:"chunk"`
	Kind        SectionKind `json:"kind"`
	Translation string      `json:"translation"`
}

// BilingualDocument is the ordered bilingual rendition of a paper: every
// original chunk appears exactly once, in input order.
type BilingualDocument struct {
	PaperID string           `json:"paper_id"`
	Lang    string           `json:"lang"`
	Chunks  []BilingualChunk `json:"chunks"`
}

// ChunkIndexEntry is one row of the sidecar index written next to a bilingual
// artifact.
type ChunkIndexEntry struct {
	Index int    `json:"index"`
	Level int    `json:"level"`
	Title string `json:"title"`
	Chars int    `json:"chars"`
}

// TranslateInput is the inline-payload request for the translate-stream
// endpoint.
type TranslateInput struct {
	Text string `json:"text"`
	Lang string `json:"lang,omitempty"`
	Mock bool   `json:"mock,omitempty"`
}
