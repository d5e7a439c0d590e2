package artifact

import (
	"errors"
	"testing"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	cases := []struct {
		name string
		raw  RawRequest
		want Parameters
	}{
		{
			name: "study plan",
			raw:  RawRequest{Kind: "study_plan", Parameters: RawParameters{DurationWeeks: intPtr(4)}},
			want: Parameters{DurationWeeks: 4, HoursPerWeek: 5, Difficulty: DifficultyIntermediate},
		},
		{
			name: "flashcards",
			raw:  RawRequest{Kind: "flashcards", Parameters: RawParameters{Difficulty: strPtr(" Advanced ")}},
			want: Parameters{Count: 10, Difficulty: DifficultyAdvanced},
		},
		{
			name: "mind map url form",
			raw:  RawRequest{Kind: "mind-map", Parameters: RawParameters{Topic: strPtr("  Cells ")}},
			want: Parameters{MaxNodes: 20, Depth: 3, Difficulty: DifficultyIntermediate, Topic: "Cells"},
		},
	}
	for _, tc := range cases {
		tc.raw.ResourceID = " doc-1 "
		tc.raw.OwnerID = "owner-1"
		req, err := Normalize(tc.raw)
		if err != nil {
			t.Fatalf("%s: Normalize error: %v", tc.name, err)
		}
		if req.Parameters != tc.want {
			t.Fatalf("%s: parameters = %+v, want %+v", tc.name, req.Parameters, tc.want)
		}
		if req.ResourceID != "doc-1" {
			t.Fatalf("%s: resource id = %q, want trimmed", tc.name, req.ResourceID)
		}
	}
}

func TestNormalizeReportsEveryViolation(t *testing.T) {
	cases := []struct {
		name       string
		raw        RawRequest
		wantFields []string
	}{
		{
			name:       "zero duration",
			raw:        RawRequest{Kind: "study_plan", ResourceID: "d", OwnerID: "o", Parameters: RawParameters{DurationWeeks: intPtr(0)}},
			wantFields: []string{"durationWeeks"},
		},
		{
			name:       "missing duration",
			raw:        RawRequest{Kind: "study_plan", ResourceID: "d", OwnerID: "o"},
			wantFields: []string{"durationWeeks"},
		},
		{
			name: "several study plan fields",
			raw: RawRequest{Kind: "study_plan", ResourceID: " ", OwnerID: "o", Parameters: RawParameters{
				DurationWeeks: intPtr(53), HoursPerWeek: intPtr(0), Difficulty: strPtr("expert"),
			}},
			wantFields: []string{"resourceId", "durationWeeks", "hoursPerWeek", "difficulty"},
		},
		{
			name:       "flashcard count",
			raw:        RawRequest{Kind: "flashcards", ResourceID: "d", OwnerID: "o", Parameters: RawParameters{Count: intPtr(101)}},
			wantFields: []string{"count"},
		},
		{
			name:       "mind map bounds",
			raw:        RawRequest{Kind: "mind_map", ResourceID: "d", OwnerID: "o", Parameters: RawParameters{MaxNodes: intPtr(2), Depth: intPtr(6)}},
			wantFields: []string{"maxNodes", "depth"},
		},
		{
			name:       "mind map difficulty",
			raw:        RawRequest{Kind: "mind_map", ResourceID: "d", OwnerID: "o", Parameters: RawParameters{Difficulty: strPtr("xyz")}},
			wantFields: []string{"difficulty"},
		},
		{
			name:       "unknown kind and owner",
			raw:        RawRequest{Kind: "quiz", ResourceID: "d"},
			wantFields: []string{"kind", "ownerId"},
		},
	}
	for _, tc := range cases {
		_, err := Normalize(tc.raw)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: err = %v, want ValidationError", tc.name, err)
		}
		got := map[string]bool{}
		for _, v := range verr.Violations {
			if v.Message == "" {
				t.Fatalf("%s: empty message for %s", tc.name, v.Field)
			}
			got[v.Field] = true
		}
		if len(got) != len(tc.wantFields) {
			t.Fatalf("%s: violations = %+v, want fields %v", tc.name, verr.Violations, tc.wantFields)
		}
		for _, f := range tc.wantFields {
			if !got[f] {
				t.Fatalf("%s: missing violation for %s in %+v", tc.name, f, verr.Violations)
			}
		}
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"study_plan": KindStudyPlan,
		"study-plan": KindStudyPlan,
		"Flashcards": KindFlashcards,
		" mind_map ": KindMindMap,
	}
	for raw, want := range cases {
		got, ok := ParseKind(raw)
		if !ok || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}
	if _, ok := ParseKind("summary"); ok {
		t.Fatalf("ParseKind accepted unknown kind")
	}
	if KindMindMap.Slug() != "mind-map" {
		t.Fatalf("slug = %q", KindMindMap.Slug())
	}
}
