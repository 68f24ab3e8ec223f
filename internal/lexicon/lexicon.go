// Package lexicon resolves words to their synonyms using a static lexical
// database: a WordNet dictionary directory, a small YAML lexicon, or nothing
// at all. Databases are loaded once and read-only afterwards.
package lexicon

import (
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/config"
)

// Lexicon looks up the senses of a word. Each sense is the list of literal
// forms (lemmas) attached to it. Unknown words have no senses.
type Lexicon interface {
	Senses(word string) [][]string
}

// Empty is a Lexicon that knows no words.
type Empty struct{}

func (Empty) Senses(string) [][]string { return nil }

// Open loads the lexicon described by cfg.
func Open(cfg config.LexiconConfig) (Lexicon, error) {
	log := slog.Default().With("component", "lexicon")
	switch cfg.Format {
	case config.LexiconWordNet:
		wn, err := OpenWordNet(cfg.Path)
		if err != nil {
			return nil, err
		}
		log.Info("wordnet loaded", "path", cfg.Path, "lemmas", wn.LemmaCount(), "synsets", wn.SynsetCount())
		return wn, nil
	case config.LexiconYAML:
		y, err := LoadYAML(cfg.Path)
		if err != nil {
			return nil, err
		}
		log.Info("yaml lexicon loaded", "path", cfg.Path, "words", y.Len())
		return y, nil
	case config.LexiconNone:
		log.Warn("no lexicon configured, queries match their own tokens only")
		return Empty{}, nil
	default:
		return nil, fmt.Errorf("unknown lexicon format %q", cfg.Format)
	}
}
