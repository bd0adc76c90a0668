package crawler

import (
	"fmt"
	"strings"

	"github.com/shee/briefcast/internal/feeds"
)

const (
	maxTitleRunes  = 80
	maxAuthorRunes = 40
)

// outputFilename builds "<date>_<title>_<author>.md" with characters that
// are unsafe in filenames stripped.
func outputFilename(entry feeds.Entry) string {
	author := entry.Author
	if author == "" {
		author = "unknown"
	}
	return fmt.Sprintf("%s_%s_%s.md",
		entry.Published.UTC().Format("2006-01-02"),
		sanitizeFilename(entry.Title, maxTitleRunes),
		sanitizeFilename(author, maxAuthorRunes))
}

func sanitizeFilename(text string, maxRunes int) string {
	var sb strings.Builder
	count := 0
	for _, r := range text {
		if strings.ContainsRune(`\/*?:"<>|`, r) {
			continue
		}
		sb.WriteRune(r)
		count++
		if count == maxRunes {
			break
		}
	}
	return sb.String()
}
