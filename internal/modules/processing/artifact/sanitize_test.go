package artifact

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestStripEnvelope(t *testing.T) {
	const obj = `{"weeks":[{"title":"a","tasks":[{"title":"b"}]}]}`
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", obj, obj},
		{"surrounding whitespace", "\n\t  " + obj + "  \n", obj},
		{"byte order mark", "\ufeff" + obj, obj},
		{"json fence", "```json\n" + obj + "\n```", obj},
		{"upper case fence tag", "```JSON\n" + obj + "\n```", obj},
		{"bare fence", "```\n" + obj + "\n```", obj},
		{"tilde fence", "~~~json\n" + obj + "\n~~~", obj},
		{"unterminated fence", "```json\n" + obj, obj},
		{"leading prose", "Sure! Here is your plan:\n" + obj, obj},
		{"trailing prose", obj + "\nLet me know if you need changes.", obj},
		{"prose around fence", "Here it is:\n```json\n" + obj + "\n```\nEnjoy!", obj},
		{"array", "Cards:\n[{\"front\":\"a\",\"back\":\"b\"}] done", `[{"front":"a","back":"b"}]`},
		{"brackets inside strings", `{"title":"a } b ] c","weeks":[]} trailing`, `{"title":"a } b ] c","weeks":[]}`},
		{"escaped quote in string", `{"title":"say \"}\" now"} x`, `{"title":"say \"}\" now"}`},
		{"bracketed prose before array", "Here are the [2] flashcards:\n[{\"front\":\"a\",\"back\":\"b\"}]", `[{"front":"a","back":"b"}]`},
		{"braced prose before object", "Use {curly} braces:\n" + obj, obj},
		{"bracketed prose before fence", "Your [3] cards:\n```json\n[{\"front\":\"a\",\"back\":\"b\"}]\n```", `[{"front":"a","back":"b"}]`},
		{"no json at all", "  I cannot help with that.  ", "I cannot help with that."},
	}
	for _, tc := range cases {
		if got := StripEnvelope(tc.raw); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSanitizeFlashcardsCountReconciliation(t *testing.T) {
	cases := []struct {
		name          string
		returned      int
		requested     int
		wantLen       int
		wantTruncated bool
		wantShortBy   int
	}{
		{"exact", 10, 10, 10, false, 0},
		{"too many is truncated", 20, 15, 15, true, 0},
		{"too few is accepted", 8, 10, 8, false, 2},
	}
	for _, tc := range cases {
		out, err := Sanitize(KindFlashcards, Parameters{Count: tc.requested, Difficulty: DifficultyIntermediate}, flashcardsJSON(t, tc.returned))
		if err != nil {
			t.Fatalf("%s: Sanitize error: %v", tc.name, err)
		}
		cards := decodeFlashcards(t, out.Payload)
		if len(cards) != tc.wantLen {
			t.Fatalf("%s: len = %d, want %d", tc.name, len(cards), tc.wantLen)
		}
		if out.Truncated != tc.wantTruncated || out.ShortBy != tc.wantShortBy {
			t.Fatalf("%s: truncated=%v shortBy=%d, want %v/%d", tc.name, out.Truncated, out.ShortBy, tc.wantTruncated, tc.wantShortBy)
		}
		mustValidate(t, KindFlashcards, out.Payload)
	}
}

func TestSanitizeFillsOptionalFields(t *testing.T) {
	raw := "```json\n[{\"front\":\"  Q  \",\"back\":\"A\"}]\n```"
	out, err := Sanitize(KindFlashcards, Parameters{Count: 1}, raw)
	if err != nil {
		t.Fatalf("Sanitize error: %v", err)
	}
	want := `[{"front":"Q","back":"A","hint":"","tags":[]}]`
	if string(out.Payload) != want {
		t.Fatalf("payload = %s, want %s", out.Payload, want)
	}
}

func TestSanitizeTreatsNullAsAbsent(t *testing.T) {
	cases := []struct {
		name   string
		kind   Kind
		params Parameters
		raw    string
		want   string
	}{
		{
			"flashcards",
			KindFlashcards,
			Parameters{Count: 2},
			`[{"front":"Q1","back":"A1","hint":null,"tags":null},{"front":"Q2","back":"A2"}]`,
			`[{"front":"Q1","back":"A1","hint":"","tags":[]},{"front":"Q2","back":"A2","hint":"","tags":[]}]`,
		},
		{
			"study plan",
			KindStudyPlan,
			Parameters{DurationWeeks: 1, Topic: "Optics"},
			`{"title":null,"summary":null,"weeks":[{"week":null,"title":"Lenses","goals":null,"tasks":[{"title":"Read","description":null,"durationMinutes":null}]}]}`,
			`{"title":"Optics","summary":"","weeks":[{"week":1,"title":"Lenses","goals":[],"tasks":[{"title":"Read","description":"","durationMinutes":0}]}]}`,
		},
		{
			"mind map",
			KindMindMap,
			Parameters{MaxNodes: 2, Depth: 1},
			`{"title":"Cells","root":null,"nodes":[{"id":"r","label":"Cell","parentId":null,"description":null},{"id":"a","label":"Wall","parentId":"r"}]}`,
			`{"title":"Cells","root":"r","nodes":[{"id":"r","label":"Cell","parentId":"","description":""},{"id":"a","label":"Wall","parentId":"r","description":""}]}`,
		},
	}
	for _, tc := range cases {
		out, err := Sanitize(tc.kind, tc.params, tc.raw)
		if err != nil {
			t.Fatalf("%s: Sanitize error: %v", tc.name, err)
		}
		if string(out.Payload) != tc.want {
			t.Fatalf("%s: payload = %s, want %s", tc.name, out.Payload, tc.want)
		}
		mustValidate(t, tc.kind, out.Payload)
	}

	_, err := Sanitize(KindFlashcards, Parameters{Count: 1}, `[{"front":"Q","back":null}]`)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("null required field: err = %v, want SchemaError", err)
	}
}

func TestSanitizeStudyPlan(t *testing.T) {
	raw := `Here is the plan:
{"title":"","weeks":[
  {"week":7,"title":"Intro","tasks":[{"title":"Read","durationMinutes":60}]},
  {"title":"Practice","goals":[" drill ",""],"tasks":[{"title":"Exercises"}]},
  {"title":"Extra","tasks":[{"title":"More"}]}
]}`
	out, err := Sanitize(KindStudyPlan, Parameters{DurationWeeks: 2, Topic: "Algebra"}, raw)
	if err != nil {
		t.Fatalf("Sanitize error: %v", err)
	}
	plan := decodeStudyPlan(t, out.Payload)
	if len(plan.Weeks) != 2 || !out.Truncated {
		t.Fatalf("weeks = %d truncated = %v, want 2/true", len(plan.Weeks), out.Truncated)
	}
	if plan.Title != "Algebra" {
		t.Fatalf("title = %q, want topic fallback", plan.Title)
	}
	if plan.Weeks[0].Week != 1 || plan.Weeks[1].Week != 2 {
		t.Fatalf("weeks not renumbered: %+v", plan.Weeks)
	}
	if len(plan.Weeks[1].Goals) != 1 || plan.Weeks[1].Goals[0] != "drill" {
		t.Fatalf("goals = %q, want [drill]", plan.Weeks[1].Goals)
	}
	if plan.Weeks[0].Goals == nil {
		t.Fatalf("missing goals should become an empty list")
	}
}

func TestSanitizeRejections(t *testing.T) {
	cases := []struct {
		name      string
		kind      Kind
		raw       string
		wantParse bool
	}{
		{"prose only", KindFlashcards, "I'm sorry, I can't do that.", true},
		{"truncated json", KindFlashcards, `[{"front":"a","back":"b"},{"front":`, true},
		{"object for flashcards", KindFlashcards, `{"cards":[]}`, false},
		{"array for study plan", KindStudyPlan, `[{"title":"w"}]`, false},
		{"empty flashcards", KindFlashcards, `[]`, false},
		{"card without back", KindFlashcards, `[{"front":"a"}]`, false},
		{"week without tasks", KindStudyPlan, `{"weeks":[{"title":"w","tasks":[]}]}`, false},
		{"fractional minutes", KindStudyPlan, `{"weeks":[{"title":"w","tasks":[{"title":"t","durationMinutes":1.5}]}]}`, false},
		{"node without label", KindMindMap, `{"nodes":[{"id":"a"}]}`, false},
		{"scalar", KindMindMap, `42`, false},
	}
	for _, tc := range cases {
		_, err := Sanitize(tc.kind, Parameters{Count: 5, DurationWeeks: 1, MaxNodes: 5, Depth: 2}, tc.raw)
		var parseErr *ParseError
		var schemaErr *SchemaError
		switch {
		case tc.wantParse && !errors.As(err, &parseErr):
			t.Fatalf("%s: err = %v, want ParseError", tc.name, err)
		case !tc.wantParse && !errors.As(err, &schemaErr):
			t.Fatalf("%s: err = %v, want SchemaError", tc.name, err)
		}
	}
}

func TestSanitizeMindMapRepairsTree(t *testing.T) {
	raw := `{"title":"Cells","nodes":[
		{"id":"root","label":"Cell"},
		{"id":"a","label":"Membrane","parentId":"root"},
		{"id":"b","label":"Lipids","parentId":"a"},
		{"id":"a","label":"Duplicate","parentId":"root"},
		{"id":"c","label":"Nucleus","parentId":"missing"}
	]}`
	out, err := Sanitize(KindMindMap, Parameters{MaxNodes: 20, Depth: 1}, raw)
	if err != nil {
		t.Fatalf("Sanitize error: %v", err)
	}
	var mm MindMap
	if err := json.Unmarshal(out.Payload, &mm); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mm.Root != "root" {
		t.Fatalf("root = %q, want root", mm.Root)
	}
	got := map[string]string{}
	for _, n := range mm.Nodes {
		got[n.ID] = n.ParentID
	}
	want := map[string]string{"root": "", "a": "root", "c": "root"}
	if len(got) != len(want) {
		t.Fatalf("nodes = %v, want %v", got, want)
	}
	for id, parent := range want {
		if p, ok := got[id]; !ok || p != parent {
			t.Fatalf("node %s parent = %q (present %v), want %q", id, p, ok, parent)
		}
	}
	if !out.Truncated {
		t.Fatalf("dropping nodes beyond depth should flag truncation")
	}
}

func TestSanitizeMindMapMaxNodes(t *testing.T) {
	raw := `{"root":"r","nodes":[
		{"id":"r","label":"R"},
		{"id":"1","label":"one","parentId":"r"},
		{"id":"2","label":"two","parentId":"r"},
		{"id":"3","label":"three","parentId":"r"},
		{"id":"4","label":"four","parentId":"1"}
	]}`
	out, err := Sanitize(KindMindMap, Parameters{MaxNodes: 3, Depth: 3}, raw)
	if err != nil {
		t.Fatalf("Sanitize error: %v", err)
	}
	var mm MindMap
	if err := json.Unmarshal(out.Payload, &mm); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mm.Nodes) != 3 || !out.Truncated {
		t.Fatalf("nodes = %d truncated = %v, want 3/true", len(mm.Nodes), out.Truncated)
	}
	ids := map[string]bool{}
	for _, n := range mm.Nodes {
		ids[n.ID] = true
	}
	for _, n := range mm.Nodes {
		if n.ParentID != "" && !ids[n.ParentID] {
			t.Fatalf("node %s references dropped parent %s", n.ID, n.ParentID)
		}
	}
}
