package translate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hikari/ronbun/internal/markdown"
	"github.com/hikari/ronbun/internal/models"
	"go.uber.org/zap"
)

var paragraphRE = regexp.MustCompile(`\n\s*\n`)

// Translator turns chunks into translations, splitting oversized chunks into
// paragraph-aligned segments bounded by maxChars. A nil completer yields
// explicit placeholder translations instead of failing.
type Translator struct {
	completer Completer
	maxChars  int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewTranslator creates a translator. completer may be nil (placeholder mode);
// timeout bounds each segment invocation, not the whole document.
func NewTranslator(completer Completer, maxChars int, timeout time.Duration, logger *zap.Logger) *Translator {
	if maxChars <= 0 {
		maxChars = 6000
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Translator{completer: completer, maxChars: maxChars, timeout: timeout, logger: logger}
}

// Placeholder is the explicit translation emitted when no completion
// capability is configured. It names the untranslated section.
func Placeholder(title string) string {
	return "> 译文（未配置翻译服务，待人工补充）: " + title
}

// errorPlaceholder embeds the failure class so a broken segment stays visible
// in the output instead of vanishing.
func errorPlaceholder(err error) string {
	return fmt.Sprintf("> 译文（翻译调用失败: %T: %v）", err, err)
}

// TranslateChunk translates one chunk. Content within maxChars goes out as a
// single segment; larger content is split at paragraph boundaries and the
// per-segment translations are concatenated in order. A missing completer
// yields one placeholder per segment, and a capability error on one segment
// yields an error placeholder for that segment only.
func (t *Translator) TranslateChunk(ctx context.Context, chunk *models.Chunk, kind models.SectionKind) string {
	content := strings.TrimSpace(chunk.Content())
	if content == "" {
		return ""
	}
	var parts []string
	for _, seg := range SplitSegments(content, t.maxChars) {
		if t.completer == nil {
			parts = append(parts, Placeholder(chunk.Title))
			continue
		}
		parts = append(parts, t.translateSegment(ctx, chunk.Title, seg, kind))
	}
	return strings.Join(parts, "\n")
}

func (t *Translator) translateSegment(ctx context.Context, title, segment string, kind models.SectionKind) string {
	segCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	out, err := t.completer.Complete(segCtx, SegmentMessages(title, segment, kind))
	if err != nil {
		if t.logger != nil {
			t.logger.Warn("segment translation failed",
				zap.String("title", title), zap.String("kind", string(kind)), zap.Error(err))
		}
		return errorPlaceholder(err)
	}
	return strings.TrimSpace(out)
}

// TranslateDocument classifies and translates every chunk, in order. Every
// chunk appears in the result exactly once, even when its translation is a
// placeholder or empty.
func (t *Translator) TranslateDocument(ctx context.Context, paperID, lang string, chunks []*models.Chunk) *models.BilingualDocument {
	doc := &models.BilingualDocument{PaperID: paperID, Lang: lang}
	for _, c := range chunks {
		kind := markdown.Classify(c.Title, c.Content())
		doc.Chunks = append(doc.Chunks, models.BilingualChunk{
			Chunk:       c,
			Kind:        kind,
			Translation: t.TranslateChunk(ctx, c, kind),
		})
	}
	return doc
}

// SplitSegments splits text at blank-line paragraph boundaries into segments
// of at most maxChars. A paragraph is never split; a single paragraph larger
// than maxChars becomes its own oversized segment (irreducible unit).
func SplitSegments(text string, maxChars int) []string {
	if len(text) <= maxChars {
		return []string{text}
	}
	paragraphs := paragraphRE.Split(text, -1)
	var segments []string
	var buf []string
	count := 0
	for _, p := range paragraphs {
		length := len(p) + 2 // blank-line joiner
		if count+length > maxChars && len(buf) > 0 {
			segments = append(segments, strings.Join(buf, "\n\n"))
			buf = []string{p}
			count = length
			continue
		}
		buf = append(buf, p)
		count += length
	}
	if len(buf) > 0 {
		segments = append(segments, strings.Join(buf, "\n\n"))
	}
	return segments
}
