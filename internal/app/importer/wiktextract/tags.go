package wiktextract

import (
	"slices"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

var (
	// filterTags drop a form entirely.
	filterTags = set("misspelling", "proscribed", "error-unknown-tag", "error-unrecognized-form")

	// skipTags mark metadata rows of the forms table rather than inflections.
	skipTags = set("table-tags", "inflection-template", "canonical", "auxiliary", "form-of")

	// moods in precedence order.
	moods = []string{"indicative", "subjunctive", "conditional", "imperative", "infinitive", "participle", "gerund"}

	persons = map[string]int16{"first-person": 1, "second-person": 2, "third-person": 3}

	// definitionTagBlocklist holds sense tags already captured in lemma columns.
	definitionTagBlocklist = set(
		"masculine", "feminine", "by-personal-gender",
		"transitive", "intransitive", "ditransitive", "ambitransitive",
		"alt-of", "alternative",
	)

	// labelCanonical maps usage and register tags onto the stored label vocabulary.
	labelCanonical = map[string]string{
		"archaic":    "archaic",
		"obsolete":   "archaic",
		"dated":      "archaic",
		"literary":   "literary",
		"poetic":     "literary",
		"regional":   "regional",
		"dialectal":  "regional",
		"Tuscany":    "regional",
		"rare":       "rare",
		"uncommon":   "rare",
		"colloquial": "colloquial",
		"slang":      "colloquial",
		"apocopic":   "apocopic",
		"Latinism":   "latinism",
	}
)

// Reasons a form row is dropped during lexicon import.
const (
	ReasonFilteredTag    = "filtered_tag"
	ReasonNoMood         = "no_mood"
	ReasonNoNumber       = "no_number"
	ReasonNoGenderNumber = "no_gender_number"
)

func hasAny(tags []string, m map[string]bool) bool {
	for _, t := range tags {
		if m[t] {
			return true
		}
	}
	return false
}

func shouldFilter(tags []string) bool {
	return hasAny(tags, filterTags)
}

// Labels returns the canonical usage labels carried by tags, sorted and unique.
func Labels(tags []string) []string {
	var out []string
	for _, t := range tags {
		if c, ok := labelCanonical[t]; ok {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func firstOf(tags []string, candidates ...string) *string {
	for _, c := range candidates {
		if slices.Contains(tags, c) {
			v := c
			return &v
		}
	}
	return nil
}

func tense(tags []string, mood *string) *string {
	if mood != nil && (*mood == "infinitive" || *mood == "gerund") {
		return nil
	}
	if slices.Contains(tags, "past") {
		if slices.Contains(tags, "historic") {
			v := "remote"
			return &v
		}
		if mood != nil && *mood == "participle" {
			return nil
		}
		v := "past"
		return &v
	}
	return firstOf(tags, "present", "imperfect", "future")
}

// verbFeatures decodes a verb form's tags. A verb form without a mood is dropped.
func verbFeatures(tags []string) (domain.FormFeatures, string) {
	var f domain.FormFeatures
	f.Mood = firstOf(tags, moods...)
	if f.Mood == nil {
		return f, ReasonNoMood
	}
	f.Tense = tense(tags, f.Mood)
	for _, t := range tags {
		if p, ok := persons[t]; ok {
			f.Person = &p
			break
		}
	}
	f.Number = firstOf(tags, "singular", "plural")
	f.Gender = firstOf(tags, "masculine", "feminine")
	f.IsFormal = slices.Contains(tags, "formal")
	f.IsNegative = slices.Contains(tags, "negative")
	return f, ""
}

// nounFeatures decodes a noun form's tags. Gender falls back to the lemma's.
func nounFeatures(tags []string, lemmaGender *string) (domain.FormFeatures, string) {
	var f domain.FormFeatures
	f.Number = firstOf(tags, "singular", "plural")
	if f.Number == nil {
		return f, ReasonNoNumber
	}
	f.Gender = firstOf(tags, "masculine", "feminine")
	if f.Gender == nil && lemmaGender != nil {
		g := *lemmaGender
		f.Gender = &g
	}
	f.IsDiminutive = slices.Contains(tags, "diminutive")
	f.IsAugmentative = slices.Contains(tags, "augmentative")
	return f, ""
}

func degree(tags []string) *string {
	d := "positive"
	switch {
	case slices.Contains(tags, "superlative"):
		d = "superlative"
	case slices.Contains(tags, "comparative"):
		d = "comparative"
	}
	return &d
}

// adjectiveFeatures decodes an adjective form's tags. Both gender and number are required.
func adjectiveFeatures(tags []string) (domain.FormFeatures, string) {
	var f domain.FormFeatures
	f.Gender = firstOf(tags, "masculine", "feminine")
	f.Number = firstOf(tags, "singular", "plural")
	if f.Gender == nil || f.Number == nil {
		return f, ReasonNoGenderNumber
	}
	f.Degree = degree(tags)
	return f, ""
}

// definitionTags filters sense tags down to what a learner needs.
func definitionTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if !definitionTagBlocklist[t] {
			out = append(out, t)
		}
	}
	return out
}
