package domain

// PartOfSpeech is the grammatical category of a lemma.
type PartOfSpeech string

const (
	PartOfSpeechVerb      PartOfSpeech = "verb"
	PartOfSpeechNoun      PartOfSpeech = "noun"
	PartOfSpeechAdjective PartOfSpeech = "adjective"
)

// AllPartsOfSpeech lists the supported categories in import order.
var AllPartsOfSpeech = []PartOfSpeech{PartOfSpeechVerb, PartOfSpeechNoun, PartOfSpeechAdjective}

func (p PartOfSpeech) String() string { return string(p) }

func (p PartOfSpeech) IsValid() bool {
	switch p {
	case PartOfSpeechVerb, PartOfSpeechNoun, PartOfSpeechAdjective:
		return true
	}
	return false
}

// WrittenSource records which mechanism supplied a form's written spelling.
type WrittenSource string

const (
	WrittenSourceLexicon        WrittenSource = "morphological-lexicon"
	WrittenSourceFormOf         WrittenSource = "form-of-fallback"
	WrittenSourceRule           WrittenSource = "derived-by-rule"
	WrittenSourceAccentlessCopy WrittenSource = "accent-stripped-fallback"
	WrittenSourceLoanword       WrittenSource = "hardcoded-loanword"
)

func (s WrittenSource) String() string { return string(s) }

func (s WrittenSource) IsValid() bool {
	switch s {
	case WrittenSourceLexicon, WrittenSourceFormOf, WrittenSourceRule,
		WrittenSourceAccentlessCopy, WrittenSourceLoanword:
		return true
	}
	return false
}

// State returns the precedence state a spelling from this source moves a form into.
func (s WrittenSource) State() WrittenState {
	switch s {
	case WrittenSourceLexicon:
		return WrittenSetByLexicon
	case WrittenSourceFormOf:
		return WrittenSetByFallback
	case WrittenSourceRule, WrittenSourceAccentlessCopy, WrittenSourceLoanword:
		return WrittenSetByDerivation
	}
	return WrittenUnset
}

// FormOrigin records how the grammatical form itself was obtained.
type FormOrigin string

const (
	FormOriginExtracted  FormOrigin = "extracted"
	FormOriginCitation   FormOrigin = "citation-form"
	FormOriginInvariable FormOrigin = "inferred-invariable"
	FormOriginPattern    FormOrigin = "pattern-fallback"
)

func (o FormOrigin) String() string { return string(o) }

func (o FormOrigin) IsValid() bool {
	switch o {
	case FormOriginExtracted, FormOriginCitation, FormOriginInvariable, FormOriginPattern:
		return true
	}
	return false
}

// Auxiliary is the auxiliary verb a verb takes in compound tenses.
type Auxiliary string

const (
	AuxiliaryAvere  Auxiliary = "avere"
	AuxiliaryEssere Auxiliary = "essere"
	AuxiliaryBoth   Auxiliary = "both"
)

// Transitivity classifies a verb lemma.
type Transitivity string

const (
	TransitivityTransitive   Transitivity = "transitive"
	TransitivityIntransitive Transitivity = "intransitive"
	TransitivityBoth         Transitivity = "both"
)
