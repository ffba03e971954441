package domain

// WrittenState is the precedence state of an inflected form's written field.
// Transitions only leave WrittenUnset; a set field is final.
type WrittenState int

const (
	WrittenUnset WrittenState = iota
	WrittenSetByLexicon
	WrittenSetByFallback
	WrittenSetByDerivation
)

func (s WrittenState) String() string {
	switch s {
	case WrittenUnset:
		return "UNSET"
	case WrittenSetByLexicon:
		return "SET_BY_LEXICON_ENRICHMENT"
	case WrittenSetByFallback:
		return "SET_BY_FALLBACK"
	case WrittenSetByDerivation:
		return "SET_BY_DERIVATION"
	}
	return "UNKNOWN"
}

// StateOf returns the state implied by a stored written-source column.
func StateOf(source *WrittenSource) WrittenState {
	if source == nil {
		return WrittenUnset
	}
	return source.State()
}

// CanTransition reports whether the written field may move from one state to another.
func CanTransition(from, to WrittenState) bool {
	return from == WrittenUnset && to != WrittenUnset
}

// WrittenProposal is a candidate spelling offered by one phase.
type WrittenProposal struct {
	Written string
	Source  WrittenSource
}

// WrittenDecision is the outcome of offering a proposal to a form.
type WrittenDecision int

const (
	// DecisionApply means the field is unset and takes the proposal.
	DecisionApply WrittenDecision = iota
	// DecisionKeep means the field was already set and keeps its value.
	DecisionKeep
	// DecisionUnchanged means the field already holds exactly this proposal.
	DecisionUnchanged
	// DecisionReject means the proposal itself is unusable.
	DecisionReject
)

func (d WrittenDecision) String() string {
	switch d {
	case DecisionApply:
		return "apply"
	case DecisionKeep:
		return "keep"
	case DecisionUnchanged:
		return "unchanged"
	case DecisionReject:
		return "reject"
	}
	return "unknown"
}

// DecideWritten runs the precedence state machine for one form.
func DecideWritten(current FormState, p WrittenProposal) WrittenDecision {
	if p.Written == "" || !p.Source.IsValid() {
		return DecisionReject
	}

	state := current.State()
	if CanTransition(state, p.Source.State()) {
		return DecisionApply
	}
	if current.Written != nil && *current.Written == p.Written &&
		current.WrittenSource != nil && *current.WrittenSource == p.Source {
		return DecisionUnchanged
	}
	return DecisionKeep
}

// Apply moves the in-memory state forward after a successful write.
func (f *FormState) Apply(p WrittenProposal) {
	w, s := p.Written, p.Source
	f.Written = &w
	f.WrittenSource = &s
}
