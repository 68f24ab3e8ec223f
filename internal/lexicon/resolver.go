package lexicon

import (
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// maxMemoEntries caps the memo; words past it are looked up every time.
const maxMemoEntries = 100_000

// Resolver turns a word into its synonym set. Results are memoized for the
// life of the process since the underlying lexicon never changes.
type Resolver struct {
	lex      Lexicon
	memo     sync.Map // word -> map[string]struct{}
	memoSize atomic.Int64
	group    singleflight.Group
	hits     atomic.Int64
	misses   atomic.Int64
}

func NewResolver(lex Lexicon) *Resolver {
	if lex == nil {
		lex = Empty{}
	}
	return &Resolver{lex: lex}
}

// Synonyms returns every lemma of every sense of word, lower-cased. Unknown
// words yield an empty, non-nil set. The caller owns the returned map.
func (r *Resolver) Synonyms(word string) map[string]struct{} {
	if cached, ok := r.memo.Load(word); ok {
		r.hits.Add(1)
		return cloneSet(cached.(map[string]struct{}))
	}
	v, _, _ := r.group.Do(word, func() (any, error) {
		if cached, ok := r.memo.Load(word); ok {
			return cached, nil
		}
		r.misses.Add(1)
		set := make(map[string]struct{})
		for _, sense := range r.lex.Senses(word) {
			for _, lemma := range sense {
				set[strings.ToLower(lemma)] = struct{}{}
			}
		}
		if r.memoSize.Load() < maxMemoEntries {
			r.memo.Store(word, set)
			r.memoSize.Add(1)
		}
		return set, nil
	})
	return cloneSet(v.(map[string]struct{}))
}

// Stats reports memo hits and lexicon lookups so far.
func (r *Resolver) Stats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}

func cloneSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
