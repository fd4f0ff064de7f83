// Package chunker splits long memory text into bounded pieces at paragraph
// and sentence boundaries.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars is the largest chunk the memory store accepts.
const DefaultMaxChars = 2048

const (
	paragraphSep = "\n\n"
	sentenceSep  = " "
)

var blankLine = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)

// Len counts characters the way the chunker does (runes, not bytes).
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Chunk splits text into pieces no longer than maxChars. Text that already
// fits is returned unchanged as a single element, blank or not. Longer text
// is split and trimmed, and blank pieces are dropped. A single sentence
// longer than maxChars is returned whole rather than cut mid-word.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	// Short content, no chunking needed
	if Len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var current string

	flush := func() {
		if t := strings.TrimSpace(current); t != "" {
			chunks = append(chunks, t)
		}
		current = ""
	}

	for _, para := range splitParagraphs(text) {
		if Len(para) > maxChars {
			flush()
			chunks = append(chunks, packSentences(para, maxChars)...)
			continue
		}
		if current == "" {
			current = para
			continue
		}
		if Len(current)+len(paragraphSep)+Len(para) <= maxChars {
			current += paragraphSep + para
		} else {
			flush()
			current = para
		}
	}
	flush()

	return chunks
}

// splitParagraphs splits on blank lines and drops empty paragraphs.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paras []string
	for _, p := range blankLine.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// packSentences greedily packs the sentences of an oversized paragraph.
func packSentences(para string, maxChars int) []string {
	var chunks []string
	var current string

	for _, s := range splitSentences(para) {
		if current == "" {
			current = s
			continue
		}
		if Len(current)+len(sentenceSep)+Len(s) <= maxChars {
			current += sentenceSep + s
		} else {
			chunks = append(chunks, current)
			current = s
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitSentences breaks text after '.', '!' or '?' when followed by
// whitespace. Boundary whitespace is collapsed.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
