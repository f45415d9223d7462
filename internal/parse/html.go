package parse

import (
	"fmt"
	"os"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/hikari/ronbun/internal/store"
	"go.uber.org/zap"
)

// parseHTML converts an HTML source artifact to Markdown.
func (p *Parser) parseHTML(sourcePath, mdPath string) (string, error) {
	p.logger.Info("converting html source", zap.String("source", sourcePath))
	content, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	md, err := ConvertHTML(string(content))
	if err != nil {
		return "", err
	}
	if err := store.Publish(mdPath, []byte(md)); err != nil {
		return "", err
	}
	return md, nil
}

// ConvertHTML renders an HTML document as Markdown.
func ConvertHTML(html string) (string, error) {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("html to markdown: %w", err)
	}
	return md, nil
}
