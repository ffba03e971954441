package wiktextract

import (
	"encoding/json"
)

// rawEntry mirrors the subset of a Wiktextract JSONL line the importer reads.
type rawEntry struct {
	Word          string            `json:"word"`
	POS           string            `json:"pos"`
	Forms         *[]rawForm        `json:"forms"`
	Senses        []rawSense        `json:"senses"`
	Sounds        []rawSound        `json:"sounds"`
	Categories    []json.RawMessage `json:"categories"`
	HeadTemplates []rawTemplate     `json:"head_templates"`
}

type rawForm struct {
	Form string   `json:"form"`
	Tags []string `json:"tags"`
}

type rawSense struct {
	Glosses []string    `json:"glosses"`
	Tags    []string    `json:"tags"`
	FormOf  []rawFormOf `json:"form_of"`
}

type rawFormOf struct {
	Word string `json:"word"`
}

type rawSound struct {
	IPA string `json:"ipa"`
}

type rawTemplate struct {
	Args map[string]any `json:"args"`
}

type rawCategory struct {
	Name string `json:"name"`
}

// categoryName accepts both the string and the object encoding of a category.
func categoryName(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var c rawCategory
	if err := json.Unmarshal(raw, &c); err == nil {
		return c.Name
	}
	return ""
}

func (e *rawEntry) hasFormOf() bool {
	for _, s := range e.Senses {
		if len(s.FormOf) > 0 {
			return true
		}
	}
	return false
}

func (e *rawEntry) forms() []rawForm {
	if e.Forms == nil {
		return nil
	}
	return *e.Forms
}
