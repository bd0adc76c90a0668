package textcheck

import (
	"strings"
	"testing"
)

func TestIsRepetitive(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"below minimum length", strings.Repeat("あ", 19), false},
		{"single char loop at threshold", strings.Repeat("あ", 20), true},
		{"phrase loop", strings.Repeat("こんにちは。", 20), true},
		{"latin phrase loop", strings.Repeat("and then ", 30), true},
		{"short normal text", "今日は晴れです。", false},
		{"normal paragraph", "動画の前半では新しいフレームワークの設計思想が紹介されました。後半は質疑応答で、導入事例や性能比較の質問が続きました。最後に次回予告がありました。", false},
		{"distinct sentences", "一文目です。二文目です。三文目です。四文目です。五文目です。六文目です。七文目です。八文目です。九文目です。十文目です。", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRepetitive(tt.text); got != tt.want {
				t.Errorf("IsRepetitive(%.30q...) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

// Two long internally-diverse sentences alternating six times: the sentence
// unit is too long for the consecutive-repeat scan and the n-gram diversity
// stays above its floor, so only the unique-sentence ratio (2/6) can flag it.
func TestIsRepetitiveSentenceRatio(t *testing.T) {
	s1 := distinctRunes('あ', 80)
	s2 := distinctRunes('ア', 80)
	text := strings.Repeat(s1+"。"+s2+"。", 3)

	if !IsRepetitive(text) {
		t.Error("expected alternating duplicate sentences to be flagged")
	}

	sentences := splitSentences(text)
	if len(sentences) != 6 {
		t.Fatalf("expected 6 sentences, got %d", len(sentences))
	}
	if ratio := uniqueRatio(sentences); ratio >= uniqueRatioThreshold {
		t.Errorf("unique ratio %.2f should be below %.2f", ratio, uniqueRatioThreshold)
	}
	if div := ngramDiversity([]rune(text)); div < ngramDiversityThreshold {
		t.Errorf("n-gram diversity %.2f should stay above %.2f for this fixture", div, ngramDiversityThreshold)
	}
}

func TestIsRepetitiveNgramDiversity(t *testing.T) {
	// A 60-character sentence repeated without separators: the unit exceeds
	// the 50-character repeat scan limit and there are no sentence breaks,
	// so only n-gram diversity catches it.
	unit := distinctRunes('一', 60)
	text := strings.Repeat(unit, 8)

	if !IsRepetitive(text) {
		t.Error("expected long-period loop to be flagged by n-gram diversity")
	}
}

func TestHasConsecutiveRepeat(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"four adjacent pairs", "xyabababab", true},
		{"three adjacent pairs only", "xyababab", false},
		{"repeats separated by noise", "abxyabzwabqqabrr", false},
		{"fifty char unit", strings.Repeat(distinctRunes('a', 50), 4), true},
		{"unit too long", strings.Repeat(distinctRunes('a', 51), 4), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasConsecutiveRepeat([]rune(tt.text)); got != tt.want {
				t.Errorf("hasConsecutiveRepeat(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

// distinctRunes returns a string of n distinct consecutive runes from base.
func distinctRunes(base rune, n int) string {
	runes := make([]rune, n)
	for i := range runes {
		runes[i] = base + rune(i)
	}
	return string(runes)
}
