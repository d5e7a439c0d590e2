package artifact

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestSynthesizeStudyPlan(t *testing.T) {
	for _, difficulty := range []string{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced} {
		for _, weeks := range []int{1, 4, 52} {
			params := Parameters{DurationWeeks: weeks, HoursPerWeek: 7, Difficulty: difficulty, Topic: "Linear algebra"}
			out := Synthesize(KindStudyPlan, params)
			mustValidate(t, KindStudyPlan, out.Payload)
			plan := decodeStudyPlan(t, out.Payload)
			if len(plan.Weeks) != weeks {
				t.Fatalf("%s/%d: weeks = %d", difficulty, weeks, len(plan.Weeks))
			}
			for _, w := range plan.Weeks {
				if len(w.Tasks) == 0 {
					t.Fatalf("%s/%d: week %d has no tasks", difficulty, weeks, w.Week)
				}
				total := 0
				for _, task := range w.Tasks {
					total += task.DurationMinutes
				}
				if total != 7*60 {
					t.Fatalf("%s/%d: week %d minutes = %d, want %d", difficulty, weeks, w.Week, total, 7*60)
				}
			}
			if out.Truncated || out.ShortBy != 0 {
				t.Fatalf("fallback must not carry reconciliation flags")
			}
		}
	}
}

func TestSynthesizeFlashcards(t *testing.T) {
	for _, count := range []int{1, 10, 100} {
		out := Synthesize(KindFlashcards, Parameters{Count: count, Difficulty: DifficultyBeginner})
		mustValidate(t, KindFlashcards, out.Payload)
		cards := decodeFlashcards(t, out.Payload)
		if len(cards) != count {
			t.Fatalf("cards = %d, want %d", len(cards), count)
		}
		seen := map[string]bool{}
		for _, c := range cards {
			if seen[c.Front] {
				t.Fatalf("duplicate card front %q", c.Front)
			}
			seen[c.Front] = true
		}
	}
}

func TestSynthesizeMindMap(t *testing.T) {
	cases := []struct {
		maxNodes, depth int
	}{
		{3, 1}, {20, 3}, {100, 5}, {7, 2}, {50, 1},
	}
	for _, tc := range cases {
		out := Synthesize(KindMindMap, Parameters{MaxNodes: tc.maxNodes, Depth: tc.depth, Topic: "Cells"})
		mustValidate(t, KindMindMap, out.Payload)
		var mm MindMap
		if err := json.Unmarshal(out.Payload, &mm); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(mm.Nodes) != tc.maxNodes {
			t.Fatalf("%d/%d: nodes = %d", tc.maxNodes, tc.depth, len(mm.Nodes))
		}

		depth := map[string]int{}
		for _, n := range mm.Nodes {
			if n.ParentID == "" {
				if n.ID != mm.Root {
					t.Fatalf("second root %s", n.ID)
				}
				depth[n.ID] = 0
				continue
			}
			parentDepth, ok := depth[n.ParentID]
			if !ok {
				t.Fatalf("node %s listed before its parent %s", n.ID, n.ParentID)
			}
			depth[n.ID] = parentDepth + 1
			if depth[n.ID] > tc.depth {
				t.Fatalf("%d/%d: node %s at depth %d", tc.maxNodes, tc.depth, n.ID, depth[n.ID])
			}
		}
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	params := Parameters{DurationWeeks: 3, HoursPerWeek: 4, Count: 12, MaxNodes: 15, Depth: 2, Difficulty: DifficultyAdvanced, Topic: "Optics"}
	for _, kind := range Kinds {
		a := Synthesize(kind, params)
		b := Synthesize(kind, params)
		if !bytes.Equal(a.Payload, b.Payload) {
			t.Fatalf("%s: payloads differ between runs", kind)
		}
	}
}

func TestSplitMinutes(t *testing.T) {
	got := splitMinutes(301, 3)
	if got[0] != 101 || got[1] != 100 || got[2] != 100 {
		t.Fatalf("splitMinutes = %v", got)
	}
}

func TestSynthesizeRejectsUnknownKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Synthesize accepted an unknown kind")
		}
	}()
	Synthesize(Kind("quiz"), Parameters{})
}
