package lexicon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/errors"
)

// YAMLLexicon is a hand-curated lexicon. The file maps each word either to a
// list of senses or, as a shorthand for a single sense, to a list of lemmas:
//
//	funny:
//	  - [amusing, comic, comical, funny, laughable, mirthful, risible]
//	  - [curious, funny, odd, peculiar, queer, rum, rummy, singular]
//	scary: [chilling, scarey, scary, shivery, shuddery]
type YAMLLexicon struct {
	senses map[string][][]string
}

// LoadYAML reads a YAML lexicon from path.
func LoadYAML(path string) (*YAMLLexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", apperrors.ErrLexiconLoad, path, err)
	}
	lex, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrLexiconLoad, path, err)
	}
	return lex, nil
}

// ParseYAML decodes a YAML lexicon document.
func ParseYAML(data []byte) (*YAMLLexicon, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing yaml lexicon: %w", err)
	}
	lex := &YAMLLexicon{senses: make(map[string][][]string, len(raw))}
	for word, node := range raw {
		senses, err := decodeSenses(&node)
		if err != nil {
			return nil, fmt.Errorf("word %q: %w", word, err)
		}
		if len(senses) == 0 {
			continue
		}
		key := normalizeWord(word)
		lex.senses[key] = append(lex.senses[key], senses...)
	}
	return lex, nil
}

func decodeSenses(node *yaml.Node) ([][]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list of lemmas or senses", node.Line)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var senses [][]string
		if err := node.Decode(&senses); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return senses, nil
	}
	var lemmas []string
	if err := node.Decode(&lemmas); err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return [][]string{lemmas}, nil
}

func normalizeWord(word string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(word)), " ", "_")
}

func (l *YAMLLexicon) Senses(word string) [][]string {
	return l.senses[normalizeWord(word)]
}

// Len returns the number of words with at least one entry.
func (l *YAMLLexicon) Len() int {
	return len(l.senses)
}
