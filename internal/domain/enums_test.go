package domain

import "testing"

func TestPartOfSpeech_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pos  PartOfSpeech
		want bool
	}{
		{PartOfSpeechVerb, true},
		{PartOfSpeechNoun, true},
		{PartOfSpeechAdjective, true},
		{PartOfSpeech("adj"), false},
		{PartOfSpeech(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.pos), func(t *testing.T) {
			t.Parallel()
			if got := tt.pos.IsValid(); got != tt.want {
				t.Errorf("PartOfSpeech(%q).IsValid() = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestWrittenSource_State(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source WrittenSource
		want   WrittenState
	}{
		{WrittenSourceLexicon, WrittenSetByLexicon},
		{WrittenSourceFormOf, WrittenSetByFallback},
		{WrittenSourceRule, WrittenSetByDerivation},
		{WrittenSourceAccentlessCopy, WrittenSetByDerivation},
		{WrittenSourceLoanword, WrittenSetByDerivation},
		{WrittenSource("bogus"), WrittenUnset},
	}
	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			t.Parallel()
			if got := tt.source.State(); got != tt.want {
				t.Errorf("%q.State() = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

func TestFormOrigin_IsValid(t *testing.T) {
	t.Parallel()

	for _, o := range []FormOrigin{FormOriginExtracted, FormOriginCitation, FormOriginInvariable, FormOriginPattern} {
		if !o.IsValid() {
			t.Errorf("FormOrigin(%q).IsValid() = false", o)
		}
	}
	if FormOrigin("guessed").IsValid() {
		t.Error("FormOrigin(guessed).IsValid() = true")
	}
}
