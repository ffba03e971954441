package domain

import (
	"github.com/google/uuid"
)

// namespace seeds every identifier derived from a natural key, so a re-import
// of the same source rows yields the same primary keys.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/heartmarshall/italian-lexicon"))

// LemmaID derives the identifier of the lemma (pos, normalized).
func LemmaID(pos PartOfSpeech, normalized string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("lemma|"+string(pos)+"|"+normalized))
}

// FormID derives the identifier of a form from its owning lemma, stressed spelling and tag-set.
func FormID(lemmaID uuid.UUID, stressed, tagKey string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("form|"+lemmaID.String()+"|"+stressed+"|"+tagKey))
}

// DefinitionID derives the identifier of a gloss attached to a lemma.
func DefinitionID(lemmaID uuid.UUID, gloss string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("definition|"+lemmaID.String()+"|"+gloss))
}
