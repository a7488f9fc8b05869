package retrieval

// ContextKind names the three possible generation contexts.
type ContextKind string

const (
	ResolvedMatch   ContextKind = "resolved_match"
	UnresolvedMatch ContextKind = "unresolved_match"
	NoMatch         ContextKind = "no_match"
)

// GenerationContext is the classified outcome of a retrieval. Exactly one
// kind holds per request; Matches is nil for NoMatch and otherwise carries
// the subset that determined the kind, score-ordered.
type GenerationContext struct {
	Kind    ContextKind
	Matches []Match
}

// Classify maps a retrieval result to its generation context. It is total:
// any Result, including the zero value, maps to exactly one kind. Only the
// resolved flag and subset presence are inspected, never resolution text.
func Classify(res Result) GenerationContext {
	switch {
	case len(res.Resolved) > 0:
		return GenerationContext{Kind: ResolvedMatch, Matches: res.Resolved}
	case len(res.Unresolved) > 0:
		return GenerationContext{Kind: UnresolvedMatch, Matches: res.Unresolved}
	default:
		return GenerationContext{Kind: NoMatch}
	}
}
