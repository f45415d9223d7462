// Package markdown provides heading-aware chunking, section classification,
// and bilingual rendering of Markdown documents.
package markdown

import (
	"regexp"
	"strings"

	"github.com/hikari/ronbun/internal/models"
)

var (
	headingRE = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	imageRE   = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)[^)]*\)`)
)

// Chunk splits a Markdown document into ordered, heading-delimited chunks.
// A heading line at or above minLevel closes the current chunk and opens a new
// one; headings below minLevel are treated as plain content. Content before the
// first heading becomes a preamble chunk. Trailing blank lines are trimmed from
// each chunk, and embedded image references are attached to their chunk.
func Chunk(text string, minLevel int) []*models.Chunk {
	if minLevel < 1 {
		minLevel = 1
	}
	var chunks []*models.Chunk
	var cur *models.Chunk

	finalize := func() {
		if cur == nil {
			return
		}
		cur.Lines = trimTrailingBlank(cur.Lines)
		cur.Images = imageRefs(cur.Lines)
		cur.Index = len(chunks)
		chunks = append(chunks, cur)
		cur = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if m := headingRE.FindStringSubmatch(line); m != nil && len(m[1]) >= minLevel {
			finalize()
			cur = &models.Chunk{Level: len(m[1]), Title: strings.TrimSpace(m[2])}
			continue
		}
		if cur == nil {
			cur = &models.Chunk{Level: minLevel, Title: models.PreambleTitle}
		}
		cur.Lines = append(cur.Lines, line)
	}
	finalize()
	return chunks
}

// Reconstruct concatenates chunk contents in order with headings reinserted.
// Aside from trailing-whitespace normalization this reproduces the original
// document body.
func Reconstruct(chunks []*models.Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n")
		}
		if !c.IsPreamble() {
			b.WriteString(strings.Repeat("#", c.Level))
			b.WriteString(" ")
			b.WriteString(c.Title)
			if len(c.Lines) > 0 {
				b.WriteString("\n")
			}
		}
		b.WriteString(strings.Join(c.Lines, "\n"))
	}
	return b.String()
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func imageRefs(lines []string) []string {
	var refs []string
	for _, line := range lines {
		for _, m := range imageRE.FindAllStringSubmatch(line, -1) {
			refs = append(refs, m[1])
		}
	}
	return refs
}
