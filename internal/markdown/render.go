package markdown

import (
	"strings"

	"github.com/hikari/ronbun/internal/models"
)

// Style selects how a chunk's translation is presented next to the original.
type Style string

const (
	// StyleBlockquote renders the translation as a "> 译文：" quoted block.
	StyleBlockquote Style = "blockquote"
	// StyleHeadingSplit renders the translation under a sub-heading.
	StyleHeadingSplit Style = "heading_split"
	// StyleQuoted renders the translation wrapped in CJK quotes.
	StyleQuoted Style = "quoted"
)

// ParseStyle maps a config string to a Style, defaulting to blockquote.
func ParseStyle(s string) Style {
	switch Style(s) {
	case StyleHeadingSplit, StyleQuoted:
		return Style(s)
	default:
		return StyleBlockquote
	}
}

// RenderBilingual combines each original chunk with its translation into a new
// Markdown document. Every chunk appears exactly once, in order, and a
// translation block is emitted even when the translation is empty.
func RenderBilingual(doc *models.BilingualDocument, style Style) string {
	var out []string
	for _, bc := range doc.Chunks {
		c := bc.Chunk
		if !c.IsPreamble() {
			out = append(out, strings.Repeat("#", c.Level)+" "+c.Title)
		}
		out = append(out, c.Lines...)
		out = append(out, "")

		zh := strings.TrimSpace(bc.Translation)
		if zh == "" {
			out = append(out, "> 译文：", "")
			continue
		}
		switch style {
		case StyleHeadingSplit:
			level := c.Level + 1
			if level > 6 {
				level = 6
			}
			out = append(out, strings.Repeat("#", level)+" 中文翻译", zh, "")
		case StyleQuoted:
			out = append(out, "“"+strings.ReplaceAll(zh, `"`, "”")+"”", "")
		default: // blockquote
			for i, line := range strings.Split(zh, "\n") {
				switch {
				case strings.TrimSpace(line) == "":
					out = append(out, ">")
				case i == 0:
					out = append(out, "> 译文："+line)
				default:
					out = append(out, "> "+line)
				}
			}
			out = append(out, "")
		}
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}
