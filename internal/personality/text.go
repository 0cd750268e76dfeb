package personality

import (
	"regexp"
	"strings"
)

// stopWords are excluded from keyword extraction and phrase ranking.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"i": true, "im": true, "me": true, "my": true, "you": true, "your": true,
	"he": true, "she": true, "it": true, "its": true, "we": true, "they": true,
	"is": true, "am": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "do": true, "does": true, "did": true, "have": true,
	"has": true, "had": true, "will": true, "would": true, "can": true,
	"could": true, "should": true, "to": true, "of": true, "in": true,
	"on": true, "at": true, "for": true, "with": true, "from": true,
	"this": true, "that": true, "these": true, "those": true, "there": true,
	"so": true, "just": true, "very": true, "not": true, "no": true,
	"yes": true, "ok": true, "okay": true, "what": true, "when": true,
	"how": true, "why": true, "if": true, "then": true, "than": true,
	"too": true, "also": true, "about": true, "up": true, "out": true,
	"all": true, "some": true, "any": true, "get": true, "got": true,
	"go": true, "going": true, "dont": true, "u": true, "ur": true,
}

var nonWord = regexp.MustCompile(`[^a-z0-9']+`)

// tokenize lowercases content, strips punctuation, and splits into words.
func tokenize(content string) []string {
	lower := strings.ToLower(content)
	parts := nonWord.Split(lower, -1)

	words := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "'")
		if p != "" {
			words = append(words, p)
		}
	}
	return words
}

// keywords returns up to max non-stop-word tokens from content, in order
// of appearance, without duplicates.
func keywords(content string, max int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range tokenize(content) {
		if stopWords[w] || len(w) < 3 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == max {
			break
		}
	}
	return out
}

// repeatedPunct matches the punctuation habits worth capturing: ellipses
// and doubled-or-more exclamation/question marks.
var repeatedPunct = regexp.MustCompile(`\.{3,}|!{2,}|\?{2,}`)

// extractEmojis collects emoji runes using the common Unicode emoji ranges.
func extractEmojis(content string) []string {
	var out []string
	for _, r := range content {
		if isEmoji(r) {
			out = append(out, string(r))
		}
	}
	return out
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF: // symbols & pictographs
		return true
	case r >= 0x1F600 && r <= 0x1F64F: // emoticons
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // transport & map
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // supplemental symbols
		return true
	case r >= 0x2600 && r <= 0x26FF: // miscellaneous symbols
		return true
	case r >= 0x2700 && r <= 0x27BF: // dingbats
		return true
	case r >= 0x2764 && r <= 0x2764: // heavy heart
		return true
	}
	return false
}

// splitFragments breaks content into sentence fragments on terminal
// punctuation, keeping the terminator attached.
var fragmentSplit = regexp.MustCompile(`[^.!?]*[.!?]+`)

func splitFragments(content string) []string {
	matches := fragmentSplit.FindAllString(content, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// appendUnique appends value if absent, respecting the cap.
func appendUnique(list []string, value string, cap int) []string {
	if len(list) >= cap {
		return list
	}
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
