package artifact

import "strings"

// Kind identifies an artifact type.
type Kind string

const (
	KindStudyPlan  Kind = "study_plan"
	KindFlashcards Kind = "flashcards"
	KindMindMap    Kind = "mind_map"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindStudyPlan, KindFlashcards, KindMindMap}

// ParseKind accepts the canonical name or its URL form ("study-plan").
func ParseKind(raw string) (Kind, bool) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	switch k {
	case KindStudyPlan, KindFlashcards, KindMindMap:
		return k, true
	}
	return "", false
}

// Slug returns the URL path segment of the kind.
func (k Kind) Slug() string {
	return strings.ReplaceAll(string(k), "_", "-")
}

// Source values that are not provider ids.
const (
	SourceFallback = "fallback"
	SourceCache    = "cache"
)
