// Package matcher turns a free-text chatbot query into the catalog movies
// whose category mentions any of the query's words or their synonyms.
package matcher

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/catalog"
)

// Tokenizer splits a query into lower-cased word tokens.
type Tokenizer func(text string) []string

// SynonymResolver returns the synonym set of a single word.
type SynonymResolver interface {
	Synonyms(word string) map[string]struct{}
}

// Catalog is what the matcher scans.
type Catalog interface {
	Filter(keep func(catalog.Movie) bool) []catalog.Movie
}

type Options struct {
	// DropPunctuation discards tokens without any letter or digit before
	// expansion. Off by default: a lone "," token then matches every
	// multi-genre category.
	DropPunctuation bool
}

// Result is the outcome of one query.
type Result struct {
	Tokens   []string        `json:"tokens"`
	Keywords []string        `json:"keywords"`
	Movies   []catalog.Movie `json:"movies"`
}

type Matcher struct {
	tokenize Tokenizer
	resolver SynonymResolver
	opts     Options
}

func New(tokenize Tokenizer, resolver SynonymResolver, opts Options) *Matcher {
	return &Matcher{
		tokenize: tokenize,
		resolver: resolver,
		opts:     opts,
	}
}

// Options returns the options the matcher was built with.
func (m *Matcher) Options() Options {
	return m.opts
}

// Keywords tokenizes query and expands every token with its synonyms. The
// keyword set always contains the tokens themselves and is returned sorted.
func (m *Matcher) Keywords(query string) (tokens, keywords []string) {
	tokens = m.tokenize(query)
	if tokens == nil {
		tokens = []string{}
	}
	if m.opts.DropPunctuation {
		kept := make([]string, 0, len(tokens))
		for _, t := range tokens {
			if hasWordRune(t) {
				kept = append(kept, t)
			}
		}
		tokens = kept
	}

	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
		for syn := range m.resolver.Synonyms(t) {
			if syn != "" {
				set[syn] = struct{}{}
			}
		}
	}
	keywords = make([]string, 0, len(set))
	for k := range set {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	return tokens, keywords
}

// Match returns every movie whose lower-cased category contains at least one
// keyword as a substring, in catalog order. An empty query has no keywords
// and so matches nothing.
func (m *Matcher) Match(query string, c Catalog) Result {
	tokens, keywords := m.Keywords(query)
	res := Result{
		Tokens:   tokens,
		Keywords: keywords,
		Movies:   []catalog.Movie{},
	}
	if len(keywords) == 0 {
		return res
	}
	res.Movies = c.Filter(func(movie catalog.Movie) bool {
		category := strings.ToLower(movie.Category)
		for _, kw := range keywords {
			if strings.Contains(category, kw) {
				return true
			}
		}
		return false
	})
	return res
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
