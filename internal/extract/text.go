package extract

import (
	"regexp"
	"strings"
)

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)

// paragraph is a blank-line-delimited block and its offset in the document
type paragraph struct {
	Text   string
	Offset int
}

// splitParagraphs returns blocks longer than 20 characters
func splitParagraphs(text string) []paragraph {
	var out []paragraph
	start := 0
	emit := func(end int) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if len(trimmed) > 20 {
			out = append(out, paragraph{
				Text:   trimmed,
				Offset: start + strings.Index(raw, trimmed),
			})
		}
	}
	for _, loc := range paragraphBreak.FindAllStringIndex(text, -1) {
		emit(loc[0])
		start = loc[1]
	}
	emit(len(text))
	return out
}

// sentenceAt returns the sentence of text that contains position pos,
// trimmed to at most 200 characters.
func sentenceAt(text string, pos int) string {
	if pos < 0 || pos > len(text) {
		return ""
	}

	start := 0
	for i := pos - 1; i >= 0; i-- {
		if isTerminator(text, i) {
			start = i + 1
			break
		}
	}
	end := len(text)
	for i := pos; i < len(text); i++ {
		if isTerminator(text, i) {
			end = i + 1
			break
		}
	}

	sentence := strings.Join(strings.Fields(text[start:end]), " ")
	if len(sentence) > 200 {
		sentence = truncate(sentence, 200)
	}
	return sentence
}

// isTerminator treats '.', '!', '?' followed by whitespace, and newlines,
// as sentence ends. Decimal points inside numbers are not terminators.
func isTerminator(text string, i int) bool {
	switch text[i] {
	case '\n':
		return true
	case '.', '!', '?':
		return i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t' || text[i+1] == '\n')
	}
	return false
}

// window returns text[start-before : end+after] clamped to the string
func window(text string, start, end, before, after int) string {
	lo := start - before
	if lo < 0 {
		lo = 0
	}
	hi := end + after
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
