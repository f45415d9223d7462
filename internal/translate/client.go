// Package translate produces bilingual renditions of chunked Markdown via an
// adaptive, size-bounded translation pipeline.
package translate

import "context"

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer invokes a text-completion capability with a role-tagged message
// list and returns the generated text. Implementations must be safe for
// concurrent use and honor ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
