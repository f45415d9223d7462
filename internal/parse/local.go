package parse

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hikari/ronbun/internal/store"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// parseLocal extracts plain text from the PDF without the remote service.
// Degraded output (no structure recovery, no images), but keeps the pipeline
// usable when no conversion service is configured.
func (p *Parser) parseLocal(sourcePath, mdPath string) (string, error) {
	p.logger.Info("no conversion service configured, extracting locally", zap.String("source", sourcePath))
	content, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	text, err := extractPDFText(content)
	if err != nil {
		return "", err
	}
	if err := store.Publish(mdPath, []byte(text)); err != nil {
		return "", err
	}
	return text, nil
}

func extractPDFText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}
