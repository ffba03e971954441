// Package orthography derives the written spelling of an Italian word from
// its stress-marked dictionary form.
//
// Non-final stress marks are pedagogical and are stripped. Final accents are
// orthographic and are kept, with two enumerated exceptions (qui/qua and
// vowel-less monosyllables outside the accented-monosyllable list). French
// loanwords keep their spelling verbatim. Combinations the rule table does not
// decide are reported unresolved instead of guessed.
package orthography

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

//go:embed rules.yaml
var rulesYAML []byte

// Rule names the table entry that decided a derivation.
type Rule string

const (
	RuleLoanword              Rule = "loanword"
	RuleNoAccent              Rule = "no-accent"
	RuleStripNonFinal         Rule = "strip-non-final"
	RuleNeverAccented         Rule = "never-accented"
	RuleMonosyllableWhitelist Rule = "monosyllable-whitelist"
	RuleFinalPolysyllable     Rule = "final-polysyllable"
	RuleMonosyllableStrip     Rule = "monosyllable-strip"
	RuleMultiAccent           Rule = "multi-accent"
)

// Derivation is the outcome for one stress-marked input.
type Derivation struct {
	Written  string
	Rules    []Rule
	Resolved bool
}

// Source returns the written-source tag a resolved derivation is stamped with.
func (d Derivation) Source() domain.WrittenSource {
	if slices.Contains(d.Rules, RuleLoanword) {
		return domain.WrittenSourceLoanword
	}
	return domain.WrittenSourceRule
}

type ruleFile struct {
	Accented      string   `yaml:"accented"`
	Final         string   `yaml:"final"`
	Vowels        string   `yaml:"vowels"`
	Monosyllables []string `yaml:"monosyllables"`
	NeverAccented []string `yaml:"never_accented"`
	Loanwords     []string `yaml:"loanwords"`
}

// table is the parsed, immutable rule set.
type table struct {
	accented      map[rune]rune // stress-marked rune -> unmarked base
	final         map[rune]bool
	vowels        map[rune]bool
	monosyllables map[string]bool
	neverAccented map[string]bool
	loanwords     map[string]bool
}

var loadTable = sync.OnceValues(func() (*table, error) {
	return parseTable(rulesYAML)
})

func parseTable(data []byte) (*table, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("orthography rules: %w", err)
	}
	if rf.Accented == "" || rf.Final == "" || rf.Vowels == "" {
		return nil, fmt.Errorf("orthography rules: accented, final and vowels are required")
	}

	t := &table{
		accented:      make(map[rune]rune),
		final:         make(map[rune]bool),
		vowels:        make(map[rune]bool),
		monosyllables: make(map[string]bool, len(rf.Monosyllables)),
		neverAccented: make(map[string]bool, len(rf.NeverAccented)),
		loanwords:     make(map[string]bool, len(rf.Loanwords)),
	}
	for _, r := range rf.Accented {
		base := []rune(norm.NFD.String(string(r)))[0]
		t.accented[r] = base
	}
	for _, r := range rf.Final {
		t.final[r] = true
	}
	for _, r := range rf.Vowels {
		t.vowels[r] = true
	}
	for _, w := range rf.Monosyllables {
		t.monosyllables[w] = true
	}
	for _, w := range rf.NeverAccented {
		t.neverAccented[w] = true
	}
	for _, w := range rf.Loanwords {
		t.loanwords[norm.NFC.String(strings.ToLower(w))] = true
	}
	return t, nil
}

// Engine applies the rule table with a per-input cache. Safe for concurrent use.
type Engine struct {
	rules *table

	mu    sync.RWMutex
	cache map[string]Derivation
}

// NewEngine returns an engine using the embedded rule table.
func NewEngine() (*Engine, error) {
	t, err := loadTable()
	if err != nil {
		return nil, err
	}
	return &Engine{rules: t, cache: make(map[string]Derivation)}, nil
}

// HasAccent reports whether s contains any stress-mark character, in either
// composed or decomposed form.
func (e *Engine) HasAccent(s string) bool {
	for _, r := range norm.NFC.String(s) {
		if _, ok := e.rules.accented[r]; ok {
			return true
		}
	}
	return false
}

// Derive computes the written form of a stress-marked word or phrase.
// Phrases are derived word by word; one unresolved word leaves the phrase unresolved.
// Input is NFC-normalized first, so the written result is always composed.
func (e *Engine) Derive(stressed string) Derivation {
	stressed = norm.NFC.String(stressed)

	e.mu.RLock()
	d, ok := e.cache[stressed]
	e.mu.RUnlock()
	if ok {
		return d
	}

	d = e.derivePhrase(stressed)

	e.mu.Lock()
	e.cache[stressed] = d
	e.mu.Unlock()
	return d
}

// CacheSize returns the number of distinct inputs derived so far.
func (e *Engine) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func (e *Engine) derivePhrase(stressed string) Derivation {
	words := strings.Fields(stressed)
	if len(words) == 0 {
		return Derivation{}
	}

	out := Derivation{Resolved: true}
	written := make([]string, 0, len(words))
	for _, w := range words {
		wd := e.deriveWord(w)
		out.Rules = append(out.Rules, wd.Rules...)
		if !wd.Resolved {
			out.Resolved = false
			continue
		}
		written = append(written, wd.Written)
	}
	if out.Resolved {
		out.Written = strings.Join(written, " ")
	}
	return out
}

func (e *Engine) deriveWord(word string) Derivation {
	if e.rules.loanwords[strings.ToLower(word)] {
		return resolved(word, RuleLoanword)
	}

	letters := []rune(word)
	var finalAccent bool
	var nonFinal int
	for i, r := range letters {
		if _, ok := e.rules.accented[r]; !ok {
			continue
		}
		if i == len(letters)-1 {
			finalAccent = true
		} else {
			nonFinal++
		}
	}

	switch {
	case !finalAccent && nonFinal == 0:
		return resolved(word, RuleNoAccent)
	case !finalAccent:
		return resolved(e.strip(word), RuleStripNonFinal)
	case nonFinal > 0:
		return Derivation{Rules: []Rule{RuleMultiAccent}}
	}

	last := unicode.ToLower(letters[len(letters)-1])
	if !e.rules.final[last] {
		return resolved(e.strip(word), RuleStripNonFinal)
	}

	lower := strings.ToLower(word)
	if e.rules.neverAccented[domain.NormalizeKey(word)] {
		return resolved(e.strip(word), RuleNeverAccented)
	}
	if e.rules.monosyllables[lower] {
		return resolved(word, RuleMonosyllableWhitelist)
	}
	for _, r := range letters[:len(letters)-1] {
		if e.rules.vowels[r] {
			return resolved(word, RuleFinalPolysyllable)
		}
	}
	return resolved(e.strip(word), RuleMonosyllableStrip)
}

// strip replaces every stress-mark character with its base letter, keeping case.
func (e *Engine) strip(word string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range word {
		if base, ok := e.rules.accented[r]; ok {
			r = base
		}
		b.WriteRune(r)
	}
	return b.String()
}

func resolved(written string, rule Rule) Derivation {
	return Derivation{Written: written, Rules: []Rule{rule}, Resolved: true}
}
