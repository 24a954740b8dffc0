package lexical

import (
	"strings"
	"unicode"
)

// isWordRune reports whether r belongs to a word (letters, digits, underscore).
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Tokenize lowercases text and splits it on non-word boundaries.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if isWordRune(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// analyze produces the TF-IDF terms of a text: word tokens of two or more
// runes with stopwords removed, followed by the bigrams of the remaining tokens.
func analyze(text string, stopwords map[string]struct{}) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	words := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len([]rune(token)) < 2 {
			continue
		}
		if _, isStop := stopwords[token]; isStop {
			continue
		}
		words = append(words, token)
	}
	if len(words) == 0 {
		return nil
	}

	terms := make([]string, 0, 2*len(words)-1)
	terms = append(terms, words...)
	for i := 0; i+1 < len(words); i++ {
		terms = append(terms, words[i]+" "+words[i+1])
	}
	return terms
}
