package models

import (
	"encoding/json"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://[^\s"'` + "`" + `\]]+`)

// ParseImageList decodes a stored image column into a list of URLs.
// New writes always persist a JSON array, but legacy rows exist with
// single-quoted literals or backtick-corrupted strings; for those the
// parser salvages URL-like substrings instead of failing the read.
func ParseImageList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	cleaned := raw
	if strings.Contains(cleaned, "`") {
		cleaned = strings.ReplaceAll(cleaned, "`", `"`)
	}
	if strings.Contains(cleaned, "'") && !strings.Contains(cleaned, `"`) {
		cleaned = strings.ReplaceAll(cleaned, "'", `"`)
	}

	var images []string
	if err := json.Unmarshal([]byte(cleaned), &images); err == nil {
		if images == nil {
			return []string{}
		}
		return images
	}

	// Legacy salvage: pull anything URL-shaped out of the raw value.
	if matches := urlPattern.FindAllString(raw, -1); matches != nil {
		return matches
	}
	return []string{}
}

// EncodeImageList marshals an image list for storage. Writes are
// always well-formed JSON so the salvage path in ParseImageList only
// ever fires for legacy rows.
func EncodeImageList(images []string) string {
	if images == nil {
		images = []string{}
	}
	encoded, _ := json.Marshal(images)
	return string(encoded)
}
