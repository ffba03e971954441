package wiktextract

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// LemmaEntry is a dictionary headword with its inflection table and glosses.
type LemmaEntry struct {
	Lemma       domain.Lemma
	Forms       []domain.InflectedForm
	Definitions []domain.Definition
	// Dropped counts form rows filtered out, keyed by reason.
	Dropped map[string]int
}

// FormOfEntry states that Form is an inflection of Lemma, with optional usage labels.
type FormOfEntry struct {
	Form   string
	Lemma  string
	POS    domain.PartOfSpeech
	Labels []string
}

type formRow struct {
	text   string
	tags   []string
	origin domain.FormOrigin
}

func isLemmaEntry(e *rawEntry) bool {
	return e.Forms != nil && !e.hasFormOf()
}

func buildLemmaEntry(e *rawEntry, pos domain.PartOfSpeech) LemmaEntry {
	stressed := norm.NFC.String(lemmaStressed(e))
	lemma := domain.Lemma{
		Normalized: domain.NormalizeKey(e.Word),
		Stressed:   stressed,
		POS:        pos,
		IPA:        ipa(e),
	}
	lemma.ID = domain.LemmaID(pos, lemma.Normalized)

	switch pos {
	case domain.PartOfSpeechVerb:
		lemma.Auxiliary = auxiliary(e)
		lemma.Transitivity = transitivity(e)
	case domain.PartOfSpeechNoun:
		lemma.Gender = nounGender(e)
	}

	out := LemmaEntry{Lemma: lemma, Dropped: make(map[string]int)}
	seen := make(map[string]bool)
	for _, row := range formRows(e, pos, stressed) {
		form, reason := buildForm(lemma, row)
		if reason != "" {
			out.Dropped[reason]++
			continue
		}
		if seen[form.ID.String()] {
			continue
		}
		seen[form.ID.String()] = true
		out.Forms = append(out.Forms, form)
	}
	out.Definitions = definitions(e, lemma)
	return out
}

// formRows lists the usable (text, tags) rows of the forms table, deduplicated,
// plus the citation form, plural twins of invariable entries and the expansion
// of adjective rows that spell out only gender or only number.
func formRows(e *rawEntry, pos domain.PartOfSpeech, stressed string) []formRow {
	var rows []formRow
	seen := make(map[string]bool)
	add := func(r formRow) {
		key := r.text + "|" + domain.TagKey(r.tags)
		if seen[key] {
			return
		}
		seen[key] = true
		rows = append(rows, r)
	}

	for _, f := range e.forms() {
		text := norm.NFC.String(strings.TrimSpace(f.Form))
		if text == "" || hasAny(f.Tags, skipTags) {
			continue
		}
		if pos == domain.PartOfSpeechAdjective {
			for _, r := range expandAdjective(text, f.Tags) {
				add(r)
			}
			continue
		}
		add(formRow{text: text, tags: f.Tags, origin: domain.FormOriginExtracted})
	}

	switch pos {
	case domain.PartOfSpeechNoun:
		if !hasRowWith(rows, "singular") {
			rows = slices.Insert(rows, 0, formRow{text: stressed, tags: []string{"singular"}, origin: domain.FormOriginCitation})
			seen[stressed+"|singular"] = true
		}
		if isInvariable(e) && !hasRowWith(rows, "plural") {
			add(formRow{text: stressed, tags: []string{"plural"}, origin: domain.FormOriginInvariable})
		}
	case domain.PartOfSpeechAdjective:
		if !hasRowWith(rows, "masculine", "singular") {
			rows = slices.Insert(rows, 0, formRow{text: stressed, tags: []string{"masculine", "singular"}, origin: domain.FormOriginCitation})
			seen[stressed+"|masculine,singular"] = true
		}
		if isInvariable(e) {
			for _, tags := range [][]string{
				{"feminine", "singular"},
				{"masculine", "plural"},
				{"feminine", "plural"},
			} {
				if !hasRowWith(rows, tags...) {
					add(formRow{text: stressed, tags: tags, origin: domain.FormOriginInvariable})
				}
			}
		}
	}
	return rows
}

// expandAdjective fills in the half of the gender/number pair a two-form
// adjective row leaves implicit: gender-only rows are singular, number-only
// rows apply to both genders. Rows carrying neither pass through and are
// rejected later.
func expandAdjective(text string, tags []string) []formRow {
	hasGender := slices.Contains(tags, "masculine") || slices.Contains(tags, "feminine")
	hasNumber := slices.Contains(tags, "singular") || slices.Contains(tags, "plural")
	switch {
	case hasGender && !hasNumber:
		return []formRow{{text: text, tags: append(slices.Clone(tags), "singular"), origin: domain.FormOriginPattern}}
	case hasNumber && !hasGender:
		return []formRow{
			{text: text, tags: append(slices.Clone(tags), "masculine"), origin: domain.FormOriginPattern},
			{text: text, tags: append(slices.Clone(tags), "feminine"), origin: domain.FormOriginPattern},
		}
	}
	return []formRow{{text: text, tags: tags, origin: domain.FormOriginExtracted}}
}

func hasRowWith(rows []formRow, tags ...string) bool {
	for _, r := range rows {
		ok := true
		for _, t := range tags {
			if !slices.Contains(r.tags, t) {
				ok = false
				break
			}
		}
		if ok && !shouldFilter(r.tags) {
			return true
		}
	}
	return false
}

func buildForm(lemma domain.Lemma, row formRow) (domain.InflectedForm, string) {
	if shouldFilter(row.tags) {
		return domain.InflectedForm{}, ReasonFilteredTag
	}

	var (
		features domain.FormFeatures
		reason   string
	)
	switch lemma.POS {
	case domain.PartOfSpeechVerb:
		features, reason = verbFeatures(row.tags)
	case domain.PartOfSpeechNoun:
		features, reason = nounFeatures(row.tags, lemma.Gender)
	case domain.PartOfSpeechAdjective:
		features, reason = adjectiveFeatures(row.tags)
	}
	if reason != "" {
		return domain.InflectedForm{}, reason
	}

	tags := slices.Clone(row.tags)
	slices.Sort(tags)
	tags = slices.Compact(tags)

	form := domain.InflectedForm{
		LemmaID:    lemma.ID,
		Stressed:   row.text,
		Normalized: domain.NormalizeKey(row.text),
		Origin:     row.origin,
		Tags:       tags,
		Features:   features,
		Labels:     Labels(row.tags),
	}
	form.ID = domain.FormID(lemma.ID, form.Stressed, form.TagKey())
	return form, ""
}

func lemmaStressed(e *rawEntry) string {
	for _, f := range e.forms() {
		if slices.Contains(f.Tags, "canonical") || slices.Contains(f.Tags, "infinitive") {
			if s := strings.TrimSpace(f.Form); s != "" {
				return s
			}
		}
	}
	return e.Word
}

func ipa(e *rawEntry) *string {
	for _, s := range e.Sounds {
		if s.IPA != "" {
			v := s.IPA
			return &v
		}
	}
	return nil
}

func auxiliary(e *rawEntry) *domain.Auxiliary {
	var avere, essere bool
	for _, f := range e.forms() {
		if !slices.Contains(f.Tags, "auxiliary") {
			continue
		}
		text := domain.NormalizeKey(f.Form)
		if strings.Contains(text, "aver") {
			avere = true
		}
		if strings.Contains(text, "esser") {
			essere = true
		}
	}
	var a domain.Auxiliary
	switch {
	case avere && essere:
		a = domain.AuxiliaryBoth
	case avere:
		a = domain.AuxiliaryAvere
	case essere:
		a = domain.AuxiliaryEssere
	default:
		return nil
	}
	return &a
}

func transitivity(e *rawEntry) *domain.Transitivity {
	var trans, intrans bool
	for _, s := range e.Senses {
		if slices.Contains(s.Tags, "transitive") {
			trans = true
		}
		if slices.Contains(s.Tags, "intransitive") {
			intrans = true
		}
	}
	var t domain.Transitivity
	switch {
	case trans && intrans:
		t = domain.TransitivityBoth
	case trans:
		t = domain.TransitivityTransitive
	case intrans:
		t = domain.TransitivityIntransitive
	default:
		return nil
	}
	return &t
}

// nounGender resolves a noun's grammatical gender from categories, then
// sense tags, then the head template's gender argument.
func nounGender(e *rawEntry) *string {
	for _, raw := range e.Categories {
		name := categoryName(raw)
		switch {
		case strings.Contains(name, "Italian masculine nouns"):
			return strPtr("masculine")
		case strings.Contains(name, "Italian feminine nouns"):
			return strPtr("feminine")
		}
	}
	for _, s := range e.Senses {
		if g := firstOf(s.Tags, "masculine", "feminine"); g != nil {
			return g
		}
	}
	for _, ht := range e.HeadTemplates {
		for _, key := range []string{"2", "g"} {
			v, _ := ht.Args[key].(string)
			switch v {
			case "m", "m-s", "m-p":
				return strPtr("masculine")
			case "f", "f-s", "f-p":
				return strPtr("feminine")
			}
		}
	}
	return nil
}

// isInvariable reports whether the entry declares identical singular and plural spellings.
func isInvariable(e *rawEntry) bool {
	for _, f := range e.forms() {
		if slices.Contains(f.Tags, "invariable") {
			return true
		}
	}
	for _, ht := range e.HeadTemplates {
		for k, v := range ht.Args {
			s, _ := v.(string)
			if k == "inv" && s != "" && s != "0" {
				return true
			}
			if s == "#" || s == "inv" {
				return true
			}
		}
	}
	return false
}

func definitions(e *rawEntry, lemma domain.Lemma) []domain.Definition {
	var out []domain.Definition
	seen := make(map[string]bool)
	for _, s := range e.Senses {
		if len(s.FormOf) > 0 || len(s.Glosses) == 0 {
			continue
		}
		gloss := strings.TrimSpace(strings.Join(s.Glosses, "; "))
		if gloss == "" || seen[gloss] {
			continue
		}
		seen[gloss] = true
		out = append(out, domain.Definition{
			ID:       domain.DefinitionID(lemma.ID, gloss),
			LemmaID:  lemma.ID,
			Position: len(out),
			Gloss:    gloss,
			Tags:     definitionTags(s.Tags),
		})
	}
	return out
}

// formOfEntries lists every (form, lemma) pair declared by the entry's form_of senses.
func formOfEntries(e *rawEntry, pos domain.PartOfSpeech) []FormOfEntry {
	form := strings.TrimSpace(e.Word)
	if form == "" {
		return nil
	}
	var out []FormOfEntry
	for _, s := range e.Senses {
		labels := Labels(s.Tags)
		for _, fo := range s.FormOf {
			lemma := strings.TrimSpace(fo.Word)
			if lemma == "" {
				continue
			}
			out = append(out, FormOfEntry{Form: form, Lemma: lemma, POS: pos, Labels: labels})
		}
	}
	return out
}

func strPtr(s string) *string { return &s }
