// Package tokenizer splits chatbot queries into lower-cased word tokens using
// Penn Treebank conventions: punctuation becomes its own token, the sentence
// final period is split off, double quotes become the Treebank open and
// close quote tokens, and clitics are separated ("don't" -> "do", "n't").
package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

func r(pattern, repl string) rule {
	return rule{re: regexp.MustCompile(pattern), repl: repl}
}

var startingQuotes = []rule{
	r("([«“‘„]|`+)", " $1 "),
	r(`^"`, "``"),
	r("(``)", " $1 "),
	r(`([ (\[{<])("|'')`, "$1 `` "),
}

// openingApostrophe matches a quote before a one-letter word, as in "'a";
// clitic letters are left for the ending rules.
var openingApostrophe = regexp.MustCompile(`'(\w)\b`)

var punctuation = []rule{
	r(`([^.])(\.)([\])}>"'»”’ ]*)\s*$`, "$1 $2 $3 "),
	r(`([:,])([^\d])`, " $1 $2"),
	r(`([:,])$`, " $1 "),
	r(`\.{2,}`, " $0 "),
	r(`[;@#$%&]`, " $0 "),
	r(`([^.])(\.)([\])}>"']*)\s*$`, "$1 $2$3 "),
	r(`[?!]`, " $0 "),
	r(`([^'])' `, "$1 ' "),
	r(`[*]`, " $0 "),
	r(`[\]\[(){}<>]`, " $0 "),
	r(`--`, " -- "),
}

var endingQuotes = []rule{
	r(`([»”’])`, " $1 "),
	r(`''`, " '' "),
	r(`"`, " '' "),
	r(`([^' ])('[sS]|'[mM]|'[dD]|') `, "$1 $2 "),
	r(`([^' ])('ll|'LL|'re|'RE|'ve|'VE|n't|N'T) `, "$1 $2 "),
}

var contractions = []rule{
	r(`(?i)\b(can)(not)\b`, " $1 $2 "),
	r(`(?i)\b(d)('ye)\b`, " $1 $2 "),
	r(`(?i)\b(gim)(me)\b`, " $1 $2 "),
	r(`(?i)\b(gon)(na)\b`, " $1 $2 "),
	r(`(?i)\b(got)(ta)\b`, " $1 $2 "),
	r(`(?i)\b(lem)(me)\b`, " $1 $2 "),
	r(`(?i)\b(more)('n)\b`, " $1 $2 "),
	r(`(?i)\b(wan)(na)(\s)`, " $1 $2 $3"),
	r(`(?i) ('t)(is)\b`, " $1 $2 "),
	r(`(?i) ('t)(was)\b`, " $1 $2 "),
}

// sentenceEnd finds a run of terminal punctuation followed by whitespace.
var sentenceEnd = regexp.MustCompile(`[.?!]+["')\]]*\s+`)

// abbreviations never end a sentence.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "st": {}, "jr": {}, "sr": {},
	"vs": {}, "etc": {}, "e.g": {}, "i.e": {}, "vol": {}, "feat": {},
}

// Tokenize lower-cases text and returns its word tokens in input order. Empty
// or blank input yields an empty, non-nil slice.
func Tokenize(text string) []string {
	tokens := make([]string, 0)
	for _, sentence := range Sentences(strings.ToLower(text)) {
		tokens = append(tokens, Words(sentence)...)
	}
	return tokens
}

// Sentences splits text at terminal punctuation followed by whitespace,
// except after common abbreviations and single letters.
func Sentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if isAbbreviation(text[start:loc[0]]) {
			continue
		}
		if s := strings.TrimSpace(text[start:loc[1]]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isAbbreviation(before string) bool {
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return false
	}
	last := strings.ToLower(strings.TrimLeft(fields[len(fields)-1], `"'([`))
	if len([]rune(last)) == 1 && unicode.IsLetter([]rune(last)[0]) {
		return true
	}
	_, ok := abbreviations[last]
	return ok
}

// Words applies the Treebank word rules to a single sentence.
func Words(sentence string) []string {
	text := sentence
	for _, rl := range startingQuotes {
		text = rl.re.ReplaceAllString(text, rl.repl)
	}
	text = openingApostrophe.ReplaceAllStringFunc(text, func(m string) string {
		switch strings.ToLower(m[1:]) {
		case "m", "t", "s", "d", "n":
			return m
		}
		return "' " + m[1:]
	})
	for _, rl := range punctuation {
		text = rl.re.ReplaceAllString(text, rl.repl)
	}
	text = " " + text + " "
	for _, rl := range endingQuotes {
		text = rl.re.ReplaceAllString(text, rl.repl)
	}
	for _, rl := range contractions {
		text = rl.re.ReplaceAllString(text, rl.repl)
	}
	return strings.Fields(text)
}
