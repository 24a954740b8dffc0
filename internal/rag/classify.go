package rag

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"studyqa/internal/curated"
)

var (
	interrogativeRe = regexp.MustCompile(`(?i)\?$|^(what|why|how|when|where|who|name|explain|discuss|enumerate|give reasons|identify|prepare|compare)\b`)
	exerciseRe      = regexp.MustCompile(`(?i)(exercise|work (these|this) out|short\s*answer|very\s*short|fill in|choose the correct|critically\s+appraise|match\s+the|state\s+whether|on\s+a\s+map\s+of\s+india)`)
	headingRe       = regexp.MustCompile(`^\d+(?:\.\d+)*\s+[A-Z][A-Z\s]+$`)
	artifactRe      = regexp.MustCompile(`\(cid:[^)]+\)`)
	motiveRe        = regexp.MustCompile(`(?i)(raw\s+material|supplier\s+of\s+raw|market\s+for\s+british)`)
	definitionalRe  = regexp.MustCompile(`(?i)^(what\s+is|define)\b`)
	copulaRe        = regexp.MustCompile(`(?i)\b(is|are|refers\s+to|means)\b`)
	enumVerbRe      = regexp.MustCompile(`(?i)\b(list|enumerate|state|mention|outline|write|what\s+are\s+the|which\s+are\s+the|name\s+the|give)\b`)
	pluralCueRe     = regexp.MustCompile(`(?i)\b(ways|methods|types|features|advantages|disadvantages|benefits|limitations|causes|modes)\b`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// IsListQuestion reports whether a question asks for an enumeration.
func IsListQuestion(question string) bool {
	if enumVerbRe.MatchString(question) && pluralCueRe.MatchString(question) {
		return true
	}
	return curated.IsRetirementQuestion(question)
}

// IsInstructional reports whether s reads as a question, an instruction or
// an exercise prompt rather than explanatory content.
func IsInstructional(s string) bool {
	s = strings.TrimSpace(s)
	return interrogativeRe.MatchString(s) || exerciseRe.MatchString(s)
}

// isHeading reports numbered headings and lines that are mostly uppercase.
func isHeading(s string) bool {
	if headingRe.MatchString(s) {
		return true
	}
	var letters, upper int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters > 8 && float64(upper)/float64(letters) > 0.8
}

// isNoiseSentence reports sentences that should never appear in an answer.
func isNoiseSentence(s string, filterNoise bool) bool {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < 5 {
		return true
	}
	if filterNoise && IsInstructional(s) {
		return true
	}
	if isHeading(s) {
		return true
	}
	if n > 300 && strings.ContainsAny(s, ";:") {
		return true
	}
	return false
}

// splitSentences splits on newlines and after sentence-ending punctuation
// followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		start := 0
		for i := 0; i < len(runes); i++ {
			if !strings.ContainsRune(".!?", runes[i]) {
				continue
			}
			if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeText(s string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

func stripArtifacts(s string) string {
	return artifactRe.ReplaceAllString(s, " ")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
