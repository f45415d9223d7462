package parse

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

var dataURIRE = regexp.MustCompile(`(?is)^data:(image/[\w+.-]+);base64,(.*)$`)

var extByMIME = map[string]string{
	"image/jpeg":    "jpg",
	"image/jpg":     "jpg",
	"image/png":     "png",
	"image/webp":    "webp",
	"image/gif":     "gif",
	"image/bmp":     "bmp",
	"image/tiff":    "tiff",
	"image/x-icon":  "ico",
	"image/svg+xml": "svg",
}

// ExtensionForMIME maps an image MIME type to a file extension, defaulting to
// "bin" for unknown types.
func ExtensionForMIME(mime string) string {
	if ext, ok := extByMIME[strings.ToLower(mime)]; ok {
		return ext
	}
	return "bin"
}

// DecodeImagePayload decodes an inline-encoded image payload, with or without
// a data-URI prefix. Decoding is tolerant: whitespace is stripped, padding is
// restored, and the URL-safe alphabet is tried when the standard one fails.
// Returns the raw bytes and the MIME type ("" when no prefix was present).
func DecodeImagePayload(payload string) ([]byte, string, error) {
	mime := ""
	data := payload
	if m := dataURIRE.FindStringSubmatch(payload); m != nil {
		mime = strings.ToLower(m[1])
		data = m[2]
	}
	data = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, data)
	if pad := (4 - len(data)%4) % 4; pad > 0 {
		data += strings.Repeat("=", pad)
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return raw, mime, nil
	}
	raw, uerr := base64.URLEncoding.DecodeString(data)
	if uerr == nil {
		return raw, mime, nil
	}
	return nil, mime, fmt.Errorf("base64 decode: %w", err)
}
