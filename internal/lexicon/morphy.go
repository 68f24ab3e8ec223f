package lexicon

import "strings"

type detachment struct {
	suffix, ending string
}

// detachmentRules are WordNet's inflectional suffix rules per part of speech.
var detachmentRules = map[POS][]detachment{
	Noun: {
		{"s", ""}, {"ses", "s"}, {"ves", "f"}, {"xes", "x"}, {"zes", "z"},
		{"ches", "ch"}, {"shes", "sh"}, {"men", "man"}, {"ies", "y"},
	},
	Verb: {
		{"s", ""}, {"ies", "y"}, {"es", "e"}, {"es", ""},
		{"ed", "e"}, {"ed", ""}, {"ing", "e"}, {"ing", ""},
	},
	Adjective: {
		{"er", ""}, {"est", ""}, {"er", "e"}, {"est", "e"},
	},
	Adverb: nil,
}

// baseForms returns the forms of word present in this part of speech's index:
// word plus its exception list entries if word is an irregular inflection,
// otherwise word plus whatever a single pass of the detachment rules reaches.
// Rules are not chained, so "laughings" does not reach "laugh".
func (db *posDB) baseForms(word string, pos POS) []string {
	if bases, ok := db.exceptions[word]; ok {
		return db.known(append([]string{word}, bases...))
	}
	return db.known(append([]string{word}, applyRules([]string{word}, detachmentRules[pos])...))
}

// applyRules detaches one suffix from each form, dropping duplicates.
func applyRules(forms []string, rules []detachment) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, form := range forms {
		for _, r := range rules {
			if !strings.HasSuffix(form, r.suffix) {
				continue
			}
			next := strings.TrimSuffix(form, r.suffix) + r.ending
			if _, dup := seen[next]; dup {
				continue
			}
			seen[next] = struct{}{}
			out = append(out, next)
		}
	}
	return out
}

// known filters forms to those indexed, dropping duplicates and keeping order.
func (db *posDB) known(forms []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(forms))
	for _, form := range forms {
		if _, dup := seen[form]; dup {
			continue
		}
		if _, ok := db.lemmas[form]; ok {
			out = append(out, form)
			seen[form] = struct{}{}
		}
	}
	return out
}
