package chat

import (
	"regexp"
	"strings"
)

// titleMaxRunes is the display length limit before truncation.
const titleMaxRunes = 10

// Keep letters, digits, CJK ideographs and whitespace; drop everything else
// the title model may have wrapped around its answer.
var titleStrip = regexp.MustCompile(`[^a-zA-Z0-9\x{4e00}-\x{9fa5}\s]`)

// DeriveTitle turns raw title-model output into a display title: strip
// punctuation and symbols, trim, and truncate to ten runes with a trailing
// ellipsis marker. An empty result means the caller should keep the
// placeholder title.
func DeriveTitle(raw string) string {
	title := strings.TrimSpace(titleStrip.ReplaceAllString(raw, ""))

	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	return title
}
