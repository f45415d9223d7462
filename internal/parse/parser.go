// Package parse converts fetched source documents into structured Markdown,
// via a remote conversion service or a local extraction fallback.
package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hikari/ronbun/internal/store"
	"go.uber.org/zap"
)

// serviceOptions is the fixed configuration bundle sent with every conversion
// request: structured text plus inline-encoded images, no catalog extraction.
var serviceOptions = map[string]string{
	"return_middle_json": "true",
	"return_images":      "true",
	"extract_catalog":    "false",
}

// resultUnit is one output unit of the conversion service response.
type resultUnit struct {
	MDContent  string            `json:"md_content"`
	MiddleJSON string            `json:"middle_json"`
	Images     map[string]string `json:"images"`
}

type serviceResponse struct {
	Results map[string]resultUnit `json:"results"`
}

// Parser submits source files to the remote conversion service and persists
// the structured text and embedded images. When serviceURL is empty it falls
// back to local extraction.
type Parser struct {
	serviceURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewParser creates a parser. The timeout is long: large-document conversion
// is the dominant latency contributor.
func NewParser(serviceURL string, timeout time.Duration, logger *zap.Logger) *Parser {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Parser{
		serviceURL: serviceURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Parse converts the source file at sourcePath into Markdown inside outDir and
// returns the text. Re-parsing is skipped when the canonical output artifact
// already exists (idempotent); the cached text is returned instead.
func (p *Parser) Parse(ctx context.Context, sourcePath, outDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	mdPath := filepath.Join(outDir, base+".md")
	if data, err := os.ReadFile(mdPath); err == nil {
		p.logger.Debug("already parsed, skipping", zap.String("path", mdPath))
		return string(data), nil
	}

	ext := strings.ToLower(filepath.Ext(sourcePath))
	if ext == ".html" || ext == ".htm" {
		return p.parseHTML(sourcePath, mdPath)
	}
	if p.serviceURL == "" {
		return p.parseLocal(sourcePath, mdPath)
	}
	return p.parseRemote(ctx, sourcePath, outDir, mdPath)
}

// parseRemote submits the file as a multipart request and persists every
// output unit: Markdown text, intermediate JSON, and embedded images.
func (p *Parser) parseRemote(ctx context.Context, sourcePath, outDir, mdPath string) (string, error) {
	p.logger.Info("parsing via conversion service", zap.String("source", sourcePath))

	body, contentType, err := p.buildRequestBody(sourcePath)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL, body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("conversion request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("conversion service status %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var sr serviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode conversion response: %w", err)
	}

	var mdContent string
	for name, unit := range sr.Results {
		mdContent = unit.MDContent
		if err := store.Publish(filepath.Join(outDir, name+".md"), []byte(unit.MDContent)); err != nil {
			return "", err
		}
		if unit.MiddleJSON != "" {
			if err := store.Publish(filepath.Join(outDir, name+".jsonl"), []byte(unit.MiddleJSON)); err != nil {
				p.logger.Warn("intermediate json write failed", zap.Error(err))
			}
		}
		p.writeImages(outDir, unit.Images)
		p.logger.Info("markdown extracted", zap.String("unit", name), zap.Int("chars", len(unit.MDContent)))
	}
	if mdContent == "" {
		return "", fmt.Errorf("conversion response had no output units")
	}
	return mdContent, nil
}

func (p *Parser) buildRequestBody(sourcePath string) (io.Reader, string, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return nil, "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", filepath.Base(sourcePath))
	if err != nil {
		return nil, "", fmt.Errorf("multipart file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy source: %w", err)
	}
	for k, v := range serviceOptions {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("multipart field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// writeImages persists embedded images under outDir/images. A decode failure
// for one image is logged and skipped; it never aborts the rest.
func (p *Parser) writeImages(outDir string, images map[string]string) {
	if len(images) == 0 {
		return
	}
	imgDir := filepath.Join(outDir, "images")
	for name, payload := range images {
		raw, mime, err := DecodeImagePayload(payload)
		if err != nil {
			p.logger.Warn("image decode failed", zap.String("image", name), zap.Error(err))
			continue
		}
		fileName := name
		if filepath.Ext(fileName) == "" {
			fileName += "." + ExtensionForMIME(mime)
		}
		if err := store.Publish(filepath.Join(imgDir, fileName), raw); err != nil {
			p.logger.Warn("image write failed", zap.String("image", fileName), zap.Error(err))
			continue
		}
		p.logger.Debug("image saved", zap.String("image", fileName))
	}
}
