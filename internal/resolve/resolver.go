package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/hikari/ronbun/internal/markdown"
	"github.com/hikari/ronbun/internal/models"
	"github.com/hikari/ronbun/internal/store"
	"github.com/hikari/ronbun/internal/syncer"
	"github.com/hikari/ronbun/internal/translate"
	"go.uber.org/zap"
)

// ErrNotFound reports that no artifact was obtainable through any tier.
var ErrNotFound = errors.New("no artifact for paper")

// SourceFetcher obtains the original source file for an identifier.
type SourceFetcher interface {
	Fetch(ctx context.Context, paperID string) (localPath, dir string, err error)
}

// DocumentParser converts a fetched source file into Markdown.
type DocumentParser interface {
	Parse(ctx context.Context, sourcePath, outDir string) (string, error)
}

// Resolver answers "give me the best available Markdown representation of
// paper X", probing storage tiers in fixed priority and producing missing
// artifacts on demand. Failures in one tier are absorbed and the next tier is
// tried; only total exhaustion surfaces as ErrNotFound.
type Resolver struct {
	layout     *store.Layout
	durable    store.ObjectStore // may be nil: durable tier disabled
	fetcher    SourceFetcher
	parser     DocumentParser
	translator *translate.Translator
	ledger     *Ledger // may be nil
	style      markdown.Style
	minLevel   int
	targetLang string
	logger     *zap.Logger
}

// NewResolver wires the resolution pipeline. durable and ledger may be nil.
func NewResolver(
	layout *store.Layout,
	durable store.ObjectStore,
	fetcher SourceFetcher,
	parser DocumentParser,
	translator *translate.Translator,
	ledger *Ledger,
	style markdown.Style,
	minLevel int,
	targetLang string,
	logger *zap.Logger,
) *Resolver {
	if minLevel < 1 {
		minLevel = 1
	}
	if targetLang == "" {
		targetLang = "zh"
	}
	return &Resolver{
		layout:     layout,
		durable:    durable,
		fetcher:    fetcher,
		parser:     parser,
		translator: translator,
		ledger:     ledger,
		style:      style,
		minLevel:   minLevel,
		targetLang: targetLang,
		logger:     logger,
	}
}

// Resolve returns the best available Markdown content for paperID. With
// bilingual set, the bilingual artifact is preferred and produced from the
// plain text when absent; a failed translation step degrades to the plain
// text rather than failing the caller.
func (r *Resolver) Resolve(ctx context.Context, paperID string, bilingual bool) (string, error) {
	id := store.SanitizeID(paperID)
	if !bilingual {
		return r.resolveMarkdown(ctx, id)
	}

	if content, ok := r.readTiered(ctx, id, models.ArtifactBilingual); ok {
		return content, nil
	}

	md, err := r.resolveMarkdown(ctx, id)
	if err != nil {
		return "", err
	}
	content, err := r.translateAndPublish(ctx, id, md)
	if err != nil {
		r.logger.Warn("bilingual production failed, returning plain text",
			zap.String("paper_id", id), zap.Error(err))
		return md, nil
	}
	return content, nil
}

// resolveMarkdown probes: local md, durable md, then source pdf (downloading
// or fetching it as needed) followed by a parse.
func (r *Resolver) resolveMarkdown(ctx context.Context, id string) (string, error) {
	if content, ok := r.readTiered(ctx, id, models.ArtifactMarkdown); ok {
		return content, nil
	}

	sourcePath, dir, err := r.ensureSource(ctx, id)
	if err != nil {
		r.logger.Warn("source unavailable", zap.String("paper_id", id), zap.Error(err))
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	text, err := r.parser.Parse(ctx, sourcePath, dir)
	if err != nil {
		r.logger.Warn("parse failed", zap.String("paper_id", id), zap.Error(err))
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.markStage(ctx, id, StageParse)
	// A parse drops several artifacts at once (markdown, middle json,
	// images); mirror the whole paper directory.
	if err := syncer.SyncDir(ctx, r.layout, r.durable, dir, r.logger); err != nil {
		r.logger.Warn("post-parse sync failed", zap.String("paper_id", id), zap.Error(err))
	}
	return text, nil
}

// ensureSource returns a local path to the source pdf, consulting the local
// tier, then the durable tier, then the remote fetcher.
func (r *Resolver) ensureSource(ctx context.Context, id string) (string, string, error) {
	path := r.layout.LocalPath(id, models.ArtifactPDF)
	dir := r.layout.LocalDir(id)
	if _, err := os.Stat(path); err == nil {
		return path, dir, nil
	}

	if data, ok := r.getDurable(ctx, id, models.ArtifactPDF); ok {
		if err := store.Publish(path, data); err != nil {
			return "", "", err
		}
		return path, dir, nil
	}

	path, dir, err := r.fetcher.Fetch(ctx, id)
	if err != nil {
		return "", "", err
	}
	r.markStage(ctx, id, StageFetch)
	return path, dir, nil
}

// translateAndPublish runs the chunk/classify/translate pipeline over md and
// publishes the bilingual artifact with its sidecar index.
func (r *Resolver) translateAndPublish(ctx context.Context, id, md string) (string, error) {
	chunks := markdown.Chunk(md, r.minLevel)
	doc := r.translator.TranslateDocument(ctx, id, r.targetLang, chunks)
	content := markdown.RenderBilingual(doc, r.style)

	path := r.layout.LocalPath(id, models.ArtifactBilingual)
	if err := store.Publish(path, []byte(content)); err != nil {
		return "", err
	}
	r.writeChunkIndex(path, chunks)
	r.markStage(ctx, id, StageTranslate)
	r.uploadBestEffort(ctx, id, models.ArtifactBilingual)
	r.logger.Info("bilingual artifact produced",
		zap.String("paper_id", id), zap.Int("chunks", len(chunks)))
	return content, nil
}

// writeChunkIndex writes the sidecar chunk index next to the bilingual
// artifact. Best-effort: a failure is logged, never propagated.
func (r *Resolver) writeChunkIndex(biPath string, chunks []*models.Chunk) {
	entries := make([]models.ChunkIndexEntry, 0, len(chunks))
	for _, c := range chunks {
		entries = append(entries, models.ChunkIndexEntry{
			Index: c.Index,
			Level: c.Level,
			Title: c.Title,
			Chars: len(c.Content()),
		})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err == nil {
		err = store.Publish(biPath+".index.json", data)
	}
	if err != nil {
		r.logger.Warn("chunk index write failed", zap.String("path", biPath), zap.Error(err))
	}
}

// readTiered reads an artifact from the local tier, or downloads it from the
// durable tier and publishes it locally. ok is false when neither tier has it.
func (r *Resolver) readTiered(ctx context.Context, id string, kind models.ArtifactKind) (string, bool) {
	path := r.layout.LocalPath(id, kind)
	if data, err := os.ReadFile(path); err == nil {
		return string(data), true
	}
	data, ok := r.getDurable(ctx, id, kind)
	if !ok {
		return "", false
	}
	if err := store.Publish(path, data); err != nil {
		r.logger.Warn("local publish failed", zap.String("path", path), zap.Error(err))
	}
	return string(data), true
}

func (r *Resolver) getDurable(ctx context.Context, id string, kind models.ArtifactKind) ([]byte, bool) {
	if r.durable == nil {
		return nil, false
	}
	key := r.layout.Key(id, kind)
	ok, err := r.durable.Exists(ctx, key)
	if err != nil {
		r.logger.Warn("durable existence check failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	data, err := r.durable.Get(ctx, key)
	if err != nil {
		r.logger.Warn("durable get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return data, true
}

// uploadBestEffort mirrors a local artifact to the durable store; failures
// are logged and swallowed.
func (r *Resolver) uploadBestEffort(ctx context.Context, id string, kind models.ArtifactKind) {
	if r.durable == nil {
		return
	}
	key := r.layout.Key(id, kind)
	if ok, err := r.durable.Exists(ctx, key); err == nil && ok {
		return
	}
	if err := r.durable.PutFile(ctx, key, r.layout.LocalPath(id, kind)); err != nil {
		r.logger.Warn("durable upload failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *Resolver) markStage(ctx context.Context, id, stage string) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.MarkCompleted(ctx, id, stage); err != nil {
		r.logger.Warn("ledger update failed",
			zap.String("paper_id", id), zap.String("stage", stage), zap.Error(err))
	}
}
