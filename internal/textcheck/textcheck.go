// Package textcheck detects degenerate model output. Gemini occasionally
// falls into a generation loop and emits the same phrase or sentence over
// and over; such a blob must be regenerated, not written to disk.
//
// Three structural checks are applied in order, short-circuiting on the
// first hit:
//
//	A) a short substring repeated back-to-back
//	B) a low ratio of unique sentences
//	C) low character n-gram diversity
package textcheck

import "strings"

const (
	// Texts shorter than this many characters are never flagged; they are
	// too short to exhibit meaningful repetition.
	minLength = 20

	// Layer A: a substring of 2-50 characters repeated at least this many
	// times with no intervening characters.
	minRepeatUnit      = 2
	maxRepeatUnit      = 50
	consecutiveRepeats = 4

	// Layer B: flag when fewer than this fraction of sentences are unique.
	uniqueRatioThreshold = 0.4

	// Layer C: n-gram window size and the diversity floor below which the
	// text is flagged.
	ngramSize               = 10
	ngramDiversityThreshold = 0.3
)

// IsRepetitive reports whether text looks like a degenerate generation loop.
// It is a pure function of the text; thresholds operate on characters
// (runes), since summaries are mostly Japanese.
func IsRepetitive(text string) bool {
	runes := []rune(text)
	if len(runes) < minLength {
		return false
	}

	if hasConsecutiveRepeat(runes) {
		return true
	}

	sentences := splitSentences(text)
	if len(sentences) >= 5 && uniqueRatio(sentences) < uniqueRatioThreshold {
		return true
	}

	if len(runes) >= ngramSize+1 && ngramDiversity(runes) < ngramDiversityThreshold {
		return true
	}

	return false
}

// hasConsecutiveRepeat scans for any substring of minRepeatUnit..maxRepeatUnit
// characters that occurs consecutiveRepeats or more times in a row. The
// stdlib regexp engine has no backreferences, so this is a direct scan.
func hasConsecutiveRepeat(runes []rune) bool {
	n := len(runes)
	for start := 0; start < n; start++ {
		for unit := minRepeatUnit; unit <= maxRepeatUnit; unit++ {
			if start+unit*consecutiveRepeats > n {
				break
			}
			if repeatsAt(runes, start, unit) {
				return true
			}
		}
	}
	return false
}

func repeatsAt(runes []rune, start, unit int) bool {
	for rep := 1; rep < consecutiveRepeats; rep++ {
		offset := start + rep*unit
		for i := 0; i < unit; i++ {
			if runes[offset+i] != runes[start+i] {
				return false
			}
		}
	}
	return true
}

// splitSentences breaks text on sentence-terminal punctuation (full-width
// and half-width periods, exclamation marks, newlines) and discards empty
// fragments.
func splitSentences(text string) []string {
	fragments := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '。', '．', '.', '!', '\n':
			return true
		}
		return false
	})

	sentences := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			sentences = append(sentences, f)
		}
	}
	return sentences
}

func uniqueRatio(sentences []string) float64 {
	unique := make(map[string]struct{}, len(sentences))
	for _, s := range sentences {
		unique[s] = struct{}{}
	}
	return float64(len(unique)) / float64(len(sentences))
}

// ngramDiversity slides an ngramSize-character window across the text and
// returns the number of distinct windows divided by the maximum possible.
func ngramDiversity(runes []rune) float64 {
	total := len(runes) - ngramSize + 1
	windows := make(map[string]struct{}, total)
	for i := 0; i < total; i++ {
		windows[string(runes[i:i+ngramSize])] = struct{}{}
	}
	return float64(len(windows)) / float64(total)
}
