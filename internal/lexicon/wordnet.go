package lexicon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/errors"
)

// POS is a WordNet part of speech.
type POS int

const (
	Noun POS = iota
	Verb
	Adjective
	Adverb
)

// partsOfSpeech is the lookup order for a word with no part of speech given.
var partsOfSpeech = []POS{Noun, Verb, Adjective, Adverb}

// fileSuffix names the index./data. files of each part of speech.
func (p POS) fileSuffix() string {
	switch p {
	case Noun:
		return "noun"
	case Verb:
		return "verb"
	case Adjective:
		return "adj"
	default:
		return "adv"
	}
}

func (p POS) String() string { return p.fileSuffix() }

const (
	maxLineSize = 1 << 20
	// maxWordLen bounds lookups; no WordNet lemma comes close.
	maxWordLen = 128
)

// posDB is the part of the database for one part of speech.
type posDB struct {
	lemmas     map[string][]int64  // lemma -> synset offsets, in sense order
	synsets    map[int64][]string  // offset -> lemma forms
	exceptions map[string][]string // irregular inflection -> base forms
}

// WordNet is an in-memory WordNet 3.x database read from its dictionary
// files (index.*, data.* and the optional *.exc exception lists).
type WordNet struct {
	db [4]*posDB
}

// OpenWordNet parses the dictionary directory dir. The four parts of speech
// load concurrently.
func OpenWordNet(dir string) (*WordNet, error) {
	wn := &WordNet{}
	var g errgroup.Group
	for _, pos := range partsOfSpeech {
		g.Go(func() error {
			db, err := loadPOS(dir, pos)
			if err != nil {
				return err
			}
			wn.db[pos] = db
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: wordnet %s: %w", apperrors.ErrLexiconLoad, dir, err)
	}
	return wn, nil
}

func loadPOS(dir string, pos POS) (*posDB, error) {
	db := &posDB{
		lemmas:     make(map[string][]int64),
		synsets:    make(map[int64][]string),
		exceptions: make(map[string][]string),
	}
	if err := readLines(filepath.Join(dir, "index."+pos.fileSuffix()), db.parseIndexLine); err != nil {
		return nil, err
	}
	if err := readLines(filepath.Join(dir, "data."+pos.fileSuffix()), db.parseDataLine); err != nil {
		return nil, err
	}
	err := readLines(filepath.Join(dir, pos.fileSuffix()+".exc"), db.parseExceptionLine)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return db, nil
}

func readLines(path string, parse func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scanLines(f, path, parse)
}

func scanLines(r io.Reader, name string, parse func(line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		// License header lines start with a space.
		if line == "" || line[0] == ' ' {
			continue
		}
		if err := parse(line); err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return nil
}

// parseIndexLine reads
//
//	lemma pos synset_cnt p_cnt [ptr_symbol...] sense_cnt tagsense_cnt synset_offset...
func (db *posDB) parseIndexLine(line string) error {
	f := strings.Fields(line)
	if len(f) < 4 {
		return fmt.Errorf("short index entry %q", line)
	}
	synsetCnt, err := strconv.Atoi(f[2])
	if err != nil {
		return fmt.Errorf("bad synset_cnt %q", f[2])
	}
	pCnt, err := strconv.Atoi(f[3])
	if err != nil {
		return fmt.Errorf("bad p_cnt %q", f[3])
	}
	start := 4 + pCnt + 2
	if synsetCnt < 0 || pCnt < 0 || len(f) < start+synsetCnt {
		return fmt.Errorf("truncated index entry for %q", f[0])
	}
	offsets := make([]int64, 0, synsetCnt)
	for _, s := range f[start : start+synsetCnt] {
		off, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("bad synset offset %q", s)
		}
		offsets = append(offsets, off)
	}
	db.lemmas[f[0]] = offsets
	return nil
}

// parseDataLine reads the leading part of
//
//	synset_offset lex_filenum ss_type w_cnt word lex_id [word lex_id...] p_cnt ...
//
// w_cnt and lex_id are hexadecimal.
func (db *posDB) parseDataLine(line string) error {
	f := strings.Fields(line)
	if len(f) < 4 {
		return fmt.Errorf("short data entry %q", line)
	}
	off, err := strconv.ParseInt(f[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad synset offset %q", f[0])
	}
	wCnt, err := strconv.ParseInt(f[3], 16, 32)
	if err != nil {
		return fmt.Errorf("bad w_cnt %q", f[3])
	}
	if len(f) < 4+2*int(wCnt) {
		return fmt.Errorf("truncated data entry %d", off)
	}
	words := make([]string, 0, wCnt)
	for i := 0; i < int(wCnt); i++ {
		words = append(words, stripSyntacticMarker(f[4+2*i]))
	}
	db.synsets[off] = words
	return nil
}

// parseExceptionLine reads "inflected base [base...]".
func (db *posDB) parseExceptionLine(line string) error {
	f := strings.Fields(line)
	if len(f) < 2 {
		return fmt.Errorf("short exception entry %q", line)
	}
	db.exceptions[f[0]] = append(db.exceptions[f[0]], f[1:]...)
	return nil
}

// stripSyntacticMarker drops the adjective position markers (a), (p), (ip).
func stripSyntacticMarker(word string) string {
	if i := strings.IndexByte(word, '('); i > 0 && strings.HasSuffix(word, ")") {
		return word[:i]
	}
	return word
}

// Senses returns the lemma forms of every sense of word across all parts of
// speech, nouns first. Inflected forms resolve to their base forms.
func (wn *WordNet) Senses(word string) [][]string {
	word = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(word)), " ", "_")
	if word == "" || len(word) > maxWordLen {
		return nil
	}
	var senses [][]string
	for _, pos := range partsOfSpeech {
		db := wn.db[pos]
		for _, form := range db.baseForms(word, pos) {
			for _, off := range db.lemmas[form] {
				if words, ok := db.synsets[off]; ok {
					senses = append(senses, words)
				}
			}
		}
	}
	return senses
}

// LemmaCount returns the number of distinct (lemma, part of speech) entries.
func (wn *WordNet) LemmaCount() int {
	n := 0
	for _, db := range wn.db {
		n += len(db.lemmas)
	}
	return n
}

// SynsetCount returns the number of synsets across all parts of speech.
func (wn *WordNet) SynsetCount() int {
	n := 0
	for _, db := range wn.db {
		n += len(db.synsets)
	}
	return n
}
