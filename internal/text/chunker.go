package text

import (
	"regexp"
	"strings"
	"unicode"
)

// abbreviations lists period-terminated tokens that never end a sentence.
// The list is part of the chunker contract: changing it changes chunk
// boundaries for already-indexed content.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "sr": {}, "jr": {},
	"st": {}, "vs": {}, "etc": {}, "e.g": {}, "i.e": {}, "fig": {}, "no": {},
	"inc": {}, "ltd": {}, "co": {}, "dept": {}, "univ": {}, "approx": {},
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// SplitSentences splits prose into sentences. A boundary is a '.', '!' or '?'
// followed by whitespace and an uppercase letter, except when the token before
// a period is a single letter (initials, "U.S.") or a known abbreviation.
// The result is deterministic for identical input.
func SplitSentences(text string) []string {
	normalized := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if normalized == "" {
		return nil
	}

	runes := []rune(normalized)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if !isBoundary(runes, i) {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// isBoundary reports whether the terminator at runes[i] ends a sentence.
func isBoundary(runes []rune, i int) bool {
	// Must be followed by whitespace and then an uppercase letter.
	j := i + 1
	if j >= len(runes) || !unicode.IsSpace(runes[j]) {
		return false
	}
	for j < len(runes) && unicode.IsSpace(runes[j]) {
		j++
	}
	if j >= len(runes) || !unicode.IsUpper(runes[j]) {
		return false
	}

	if runes[i] != '.' {
		return true
	}

	// Walk back over the token preceding the period. Letters and interior
	// periods only, so "e.g." and "U.S." come back as one token.
	end := i
	k := i - 1
	for k >= 0 && (unicode.IsLetter(runes[k]) || runes[k] == '.') {
		k--
	}
	token := strings.TrimSuffix(string(runes[k+1:end]), ".")
	if token == "" {
		return true
	}

	// Single letters are initials or the tail of "U.S.".
	if len([]rune(token)) == 1 && unicode.IsLetter([]rune(token)[0]) {
		return false
	}
	if _, ok := abbreviations[strings.ToLower(token)]; ok {
		return false
	}
	return true
}

// Chunk splits text into sentence-aligned chunks of at most size characters,
// where consecutive chunks share up to overlap characters' worth of trailing
// sentences. A single sentence longer than size is emitted as its own
// oversized chunk rather than truncated. Empty input yields nil.
func Chunk(text string, size, overlap int) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		var current []string
		currentLen := 0

		j := i
		for ; j < len(sentences); j++ {
			add := len(sentences[j])
			if len(current) > 0 {
				add++ // joining space
			}
			if currentLen+add > size && len(current) > 0 {
				break
			}
			current = append(current, sentences[j])
			currentLen += add
		}

		chunks = append(chunks, strings.Join(current, " "))
		if j >= len(sentences) {
			break
		}

		// Start the next chunk with the trailing sentences of this one,
		// walking backward until the overlap budget is spent. Sentences are
		// never split for overlap, and the window must always advance.
		next := j
		if overlap > 0 {
			overlapLen := 0
			overlapCount := 0
			for k := len(current) - 1; k >= 0; k-- {
				sentenceLen := len(current[k]) + 1
				if overlapLen+sentenceLen > overlap {
					break
				}
				overlapLen += sentenceLen
				overlapCount++
			}
			if j-overlapCount > i {
				next = j - overlapCount
			}
		}
		i = next
	}

	return chunks
}
