package resolve

import (
	"fmt"
	"strings"

	"github.com/hikari/ronbun/internal/store"
)

// MockBilingual builds a deterministic placeholder bilingual document for a
// paper. The streaming surface falls back to it when no real artifact can be
// produced, so clients still receive a well-formed bilingual stream.
func MockBilingual(paperID, lang string) string {
	id := store.SanitizeID(paperID)
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", id)
	fmt.Fprintf(&b, "> 译文（%s，模拟）：%s\n\n", lang, id)
	fmt.Fprintf(&b, "## Abstract\n\n")
	fmt.Fprintf(&b, "Placeholder content for %s: the original document could not be retrieved.\n\n", id)
	fmt.Fprintf(&b, "> 译文（%s，模拟）：这是 %s 的占位内容，原始文档暂不可用。\n", lang, id)
	return b.String()
}
