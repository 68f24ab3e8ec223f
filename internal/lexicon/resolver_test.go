package lexicon

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/errors"
)

type countingLexicon struct {
	mu    sync.Mutex
	calls int
	data  map[string][][]string
}

func (c *countingLexicon) Senses(word string) [][]string {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.data[word]
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func TestResolverSynonyms(t *testing.T) {
	r := NewResolver(openMini(t))

	got := r.Synonyms("funny")
	assert.ElementsMatch(t, []string{
		"funny", "funny_story",
		"amusing", "comic", "comical", "laughable", "mirthful", "risible",
		"curious", "odd", "peculiar", "queer", "rum", "rummy", "singular",
	}, keys(got))

	nyc := r.Synonyms("new york")
	assert.Contains(t, nyc, "new_york_city", "lemmas are lower-cased")
}

func TestResolverUnknownWordIsEmptyNotNil(t *testing.T) {
	r := NewResolver(Empty{})
	got := r.Synonyms("anything")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestResolverMemoizes(t *testing.T) {
	lex := &countingLexicon{data: map[string][][]string{"scary": {{"chilling", "Scary"}}}}
	r := NewResolver(lex)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.ElementsMatch(t, []string{"chilling", "scary"}, keys(r.Synonyms("scary")))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, lex.calls)
	hitsBefore, misses := r.Stats()
	assert.Equal(t, int64(1), misses)

	r.Synonyms("scary")
	hitsAfter, _ := r.Stats()
	assert.Equal(t, hitsBefore+1, hitsAfter)
	assert.Equal(t, 1, lex.calls)
}

func TestResolverReturnsCopies(t *testing.T) {
	r := NewResolver(&countingLexicon{data: map[string][][]string{"odd": {{"odd", "peculiar"}}}})
	first := r.Synonyms("odd")
	delete(first, "peculiar")
	first["injected"] = struct{}{}

	assert.ElementsMatch(t, []string{"odd", "peculiar"}, keys(r.Synonyms("odd")))
}

func TestYAMLLexicon(t *testing.T) {
	lex, err := ParseYAML([]byte(`
funny:
  - [amusing, comic, comical, funny]
  - [curious, odd, peculiar]
Scary: [chilling, scary, spooky]
empty: []
`))
	require.NoError(t, err)
	assert.Equal(t, 2, lex.Len())

	assert.Len(t, lex.Senses("funny"), 2)
	assert.Equal(t, [][]string{{"chilling", "scary", "spooky"}}, lex.Senses("SCARY"))
	assert.Nil(t, lex.Senses("empty"))
	assert.Nil(t, lex.Senses("unknown"))
}

func TestYAMLLexiconErrors(t *testing.T) {
	_, err := ParseYAML([]byte("funny: amusing\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `word "funny"`)

	_, err = ParseYAML([]byte("- not a mapping\n"))
	assert.Error(t, err)

	_, err = LoadYAML(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, apperrors.ErrLexiconLoad)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("funny: [comic, amusing]\n"), 0o644))

	lex, err := Open(config.LexiconConfig{Format: config.LexiconYAML, Path: path})
	require.NoError(t, err)
	assert.Len(t, lex.Senses("funny"), 1)

	lex, err = Open(config.LexiconConfig{Format: config.LexiconWordNet, Path: writeWordNet(t, miniWordNet)})
	require.NoError(t, err)
	assert.NotEmpty(t, lex.Senses("comedy"))

	lex, err = Open(config.LexiconConfig{Format: config.LexiconNone})
	require.NoError(t, err)
	assert.Empty(t, lex.Senses("funny"))

	_, err = Open(config.LexiconConfig{Format: "thesaurus"})
	assert.Error(t, err)
}

func TestBundledYAMLLexicon(t *testing.T) {
	lex, err := LoadYAML(filepath.Join("..", "..", "configs", "lexicon.yaml"))
	require.NoError(t, err)

	syn := NewResolver(lex).Synonyms("funny")
	assert.Contains(t, syn, "comedies")
	assert.Contains(t, syn, "comic")
	assert.NotEmpty(t, NewResolver(lex).Synonyms("scary"))
}
