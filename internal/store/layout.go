package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/hikari/ronbun/internal/models"
)

var unsafeIDChars = regexp.MustCompile(`[^0-9A-Za-z.\-v]`)

// SanitizeID strips characters that are not valid in a paper identifier.
func SanitizeID(paperID string) string {
	return unsafeIDChars.ReplaceAllString(paperID, "")
}

// Layout maps paper identifiers to canonical local paths and durable keys.
// The shape is <namespace>/<paper-id>/<paper-id>.<ext>, with images under
// <namespace>/<paper-id>/images/<name>.
type Layout struct {
	Namespace string
	LocalRoot string
}

// NewLayout creates a layout rooted at localRoot with the given key namespace.
func NewLayout(namespace, localRoot string) *Layout {
	return &Layout{Namespace: namespace, LocalRoot: localRoot}
}

// LocalDir returns the per-paper local directory.
func (l *Layout) LocalDir(paperID string) string {
	return filepath.Join(l.LocalRoot, SanitizeID(paperID))
}

// LocalPath returns the canonical local path of an artifact.
func (l *Layout) LocalPath(paperID string, kind models.ArtifactKind) string {
	id := SanitizeID(paperID)
	return filepath.Join(l.LocalRoot, id, fmt.Sprintf("%s.%s", id, kind))
}

// Key returns the canonical durable-store key of an artifact.
func (l *Layout) Key(paperID string, kind models.ArtifactKind) string {
	id := SanitizeID(paperID)
	return fmt.Sprintf("%s/%s/%s.%s", l.Namespace, id, id, kind)
}

// ImageKey returns the durable-store key of an embedded image.
func (l *Layout) ImageKey(paperID, name string) string {
	return fmt.Sprintf("%s/%s/images/%s", l.Namespace, SanitizeID(paperID), name)
}

// KeyForLocal maps a path under LocalRoot to its durable-store key, or "" when
// the path is outside the root.
func (l *Layout) KeyForLocal(path string) string {
	rel, err := filepath.Rel(l.LocalRoot, path)
	if err != nil || rel == "." || filepath.IsAbs(rel) || rel[0] == '.' {
		return ""
	}
	return l.Namespace + "/" + filepath.ToSlash(rel)
}

// Publish writes data to path atomically: the content lands in a temp file in
// the same directory and is renamed into place, so a concurrent reader never
// observes a partial artifact. Parent directories are created as needed.
func Publish(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}
