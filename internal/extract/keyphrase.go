package extract

import (
	"sort"
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true, "all": true,
	"also": true, "an": true, "and": true, "any": true, "are": true, "as": true,
	"at": true, "be": true, "been": true, "before": true, "being": true, "below": true,
	"between": true, "both": true, "but": true, "by": true, "can": true, "could": true,
	"did": true, "do": true, "does": true, "during": true, "each": true, "for": true,
	"from": true, "further": true, "had": true, "has": true, "have": true, "having": true,
	"he": true, "her": true, "here": true, "his": true, "how": true, "i": true,
	"if": true, "in": true, "into": true, "is": true, "it": true, "its": true,
	"may": true, "more": true, "most": true, "no": true, "nor": true, "not": true,
	"of": true, "on": true, "once": true, "only": true, "or": true, "other": true,
	"our": true, "out": true, "over": true, "per": true, "same": true, "shall": true,
	"she": true, "should": true, "so": true, "such": true, "than": true, "that": true,
	"the": true, "their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "through": true, "to": true, "under": true,
	"until": true, "up": true, "very": true, "was": true, "we": true, "were": true,
	"what": true, "when": true, "where": true, "which": true, "while": true, "who": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
}

type keyphrase struct {
	Phrase string
	Score  float64
}

// candidatePhrases splits lowercased text into runs of content words.
// Punctuation, line breaks, numbers and stopwords end a phrase.
func candidatePhrases(text string) [][]string {
	var phrases [][]string
	var current []string
	var word strings.Builder

	flushWord := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		word.Reset()
		if stopwords[w] || isNumeric(w) {
			flushPhrase(&phrases, &current)
			return
		}
		current = append(current, w)
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			word.WriteRune(r)
		case r == ' ' || r == '\t':
			flushWord()
		default:
			flushWord()
			flushPhrase(&phrases, &current)
		}
	}
	flushWord()
	flushPhrase(&phrases, &current)
	return phrases
}

func flushPhrase(phrases *[][]string, current *[]string) {
	if len(*current) > 0 {
		*phrases = append(*phrases, *current)
		*current = nil
	}
}

func isNumeric(w string) bool {
	for _, r := range w {
		if !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

// topKeyphrases ranks candidate phrases by the sum of their word
// degree/frequency ratios and returns the n best, ties broken alphabetically.
func topKeyphrases(text string, n int) []keyphrase {
	if n <= 0 {
		return nil
	}
	phrases := candidatePhrases(text)

	freq := make(map[string]float64)
	degree := make(map[string]float64)
	for _, p := range phrases {
		for _, w := range p {
			freq[w]++
			degree[w] += float64(len(p))
		}
	}

	scores := make(map[string]float64)
	for _, p := range phrases {
		joined := strings.Join(p, " ")
		if _, seen := scores[joined]; seen {
			continue
		}
		s := 0.0
		for _, w := range p {
			s += degree[w] / freq[w]
		}
		scores[joined] = s
	}

	ranked := make([]keyphrase, 0, len(scores))
	for phrase, s := range scores {
		ranked = append(ranked, keyphrase{Phrase: phrase, Score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Phrase < ranked[j].Phrase
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// keywordRelevance is 1 + 0.1 for every category keyword that overlaps a
// top keyphrase, capped at 1.5.
func keywordRelevance(words []string, phrases []keyphrase) float64 {
	relevance := 1.0
	for _, kw := range words {
		for _, p := range phrases {
			if strings.Contains(p.Phrase, kw) || strings.Contains(kw, p.Phrase) {
				relevance += 0.1
				break
			}
		}
	}
	return min(relevance, 1.5)
}
