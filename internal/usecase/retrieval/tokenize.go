package retrieval

import (
	"strings"
	"unicode"
)

// portugueseStopwords is the function-word list stripped before topic
// classification and BM25 tokenization. Deliberately small: legal vocabulary
// ("lei", "artigo") stays in.
var portugueseStopwords = map[string]struct{}{
	"a": {}, "o": {}, "as": {}, "os": {}, "um": {}, "uma": {}, "uns": {}, "umas": {},
	"de": {}, "do": {}, "da": {}, "dos": {}, "das": {}, "em": {}, "no": {}, "na": {},
	"nos": {}, "nas": {}, "por": {}, "para": {}, "com": {}, "sem": {}, "sob": {},
	"e": {}, "ou": {}, "que": {}, "se": {}, "ao": {}, "aos": {}, "à": {}, "às": {},
	"é": {}, "são": {}, "ser": {}, "foi": {}, "como": {}, "qual": {}, "quais": {},
	"quando": {}, "onde": {}, "quem": {}, "este": {}, "esta": {}, "esse": {},
	"essa": {}, "isto": {}, "isso": {}, "meu": {}, "minha": {}, "seu": {}, "sua": {},
	"caso": {}, "sobre": {},
}

// tokenize lowercases and splits text on non-letter, non-digit runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tokenizeFiltered tokenizes and drops stopwords.
func tokenizeFiltered(text string) []string {
	tokens := tokenize(text)
	out := tokens[:0:0]
	for _, tok := range tokens {
		if _, stop := portugueseStopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// stripStopwords returns the query with stopwords removed, preserving the
// order of the remaining tokens. Used as classifier input.
func stripStopwords(query string) string {
	return strings.Join(tokenizeFiltered(query), " ")
}
