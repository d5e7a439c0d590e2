package artifact

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type difficultyTemplate struct {
	tasks  []string
	goals  []string
	cards  []cardTemplate
	hint   string
	phases []string
}

type cardTemplate struct {
	front string
	back  string
}

var fallbackTemplates = map[string]difficultyTemplate{
	DifficultyBeginner: {
		tasks: []string{"Read", "Summarize", "Self-check"},
		goals: []string{"Recognise the key terms of %s", "Explain %s in plain words"},
		cards: []cardTemplate{
			{"What is key idea %d of %s?", "Look up key idea %d of %s in your notes and restate it in one sentence."},
			{"Give a simple example of key idea %d of %s.", "Describe one everyday situation where key idea %d of %s applies."},
		},
		hint:   "Start from the definitions.",
		phases: []string{"Getting started", "Building vocabulary", "Guided practice", "Consolidation"},
	},
	DifficultyIntermediate: {
		tasks: []string{"Study", "Practice", "Review"},
		goals: []string{"Connect the main ideas of %s", "Apply %s to worked examples"},
		cards: []cardTemplate{
			{"Explain key idea %d of %s.", "Summarize key idea %d of %s and how it relates to the previous one."},
			{"How would you apply key idea %d of %s?", "Outline the steps to apply key idea %d of %s to a new problem."},
			{"What is a common mistake with key idea %d of %s?", "Name a misconception about key idea %d of %s and correct it."},
		},
		hint:   "Think about how the ideas connect.",
		phases: []string{"Core concepts", "Worked examples", "Independent practice", "Consolidation"},
	},
	DifficultyAdvanced: {
		tasks: []string{"Deep reading", "Problem set", "Teach back", "Critique"},
		goals: []string{"Analyse the assumptions behind %s", "Evaluate trade-offs within %s"},
		cards: []cardTemplate{
			{"Derive or justify key idea %d of %s.", "Reconstruct the reasoning behind key idea %d of %s from first principles."},
			{"Where does key idea %d of %s break down?", "Identify the limits of key idea %d of %s and an alternative that covers them."},
			{"Compare key idea %d of %s with a related approach.", "Contrast key idea %d of %s with a neighbouring concept and state when each is preferable."},
		},
		hint:   "Question the assumptions.",
		phases: []string{"Survey", "Analysis", "Synthesis", "Critical review"},
	},
}

func templateFor(difficulty string) difficultyTemplate {
	if t, ok := fallbackTemplates[difficulty]; ok {
		return t
	}
	return fallbackTemplates[DifficultyIntermediate]
}

func fallbackTopic(params Parameters) string {
	if topic := strings.TrimSpace(params.Topic); topic != "" {
		return topic
	}
	return "this material"
}

// Synthesize builds a schema-valid artifact from params alone. The same
// parameters always produce byte-identical payloads. kind must be one of
// Kinds; anything else is a programming error and panics.
func Synthesize(kind Kind, params Parameters) Sanitized {
	var payload interface{}
	switch kind {
	case KindStudyPlan:
		payload = synthesizeStudyPlan(params)
	case KindFlashcards:
		payload = synthesizeFlashcards(params)
	case KindMindMap:
		payload = synthesizeMindMap(params)
	default:
		panic(fmt.Sprintf("artifact: no fallback for kind %q", kind))
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("artifact: marshal %s fallback: %v", kind, err))
	}
	return Sanitized{Payload: raw}
}

func synthesizeStudyPlan(params Parameters) StudyPlan {
	tmpl := templateFor(params.Difficulty)
	topic := fallbackTopic(params)
	weeks := params.DurationWeeks
	if weeks < 1 {
		weeks = 1
	}
	hours := params.HoursPerWeek
	if hours < 1 {
		hours = defaultHoursPerWeek
	}
	minutes := splitMinutes(hours*60, len(tmpl.tasks))

	plan := StudyPlan{
		Title:   "Study plan: " + topic,
		Summary: fmt.Sprintf("A %d-week %s plan for %s at %d hours per week.", weeks, params.Difficulty, topic, hours),
		Weeks:   make([]StudyWeek, 0, weeks),
	}
	for i := 0; i < weeks; i++ {
		phase := tmpl.phases[i*len(tmpl.phases)/weeks]
		if weeks > 1 && i == weeks-1 {
			phase = "Review and self-assessment"
		}
		week := StudyWeek{
			Week:  i + 1,
			Title: fmt.Sprintf("Week %d: %s", i+1, phase),
			Goals: make([]string, 0, len(tmpl.goals)),
			Tasks: make([]StudyTask, 0, len(tmpl.tasks)),
		}
		for _, g := range tmpl.goals {
			week.Goals = append(week.Goals, fmt.Sprintf(g, topic))
		}
		for j, name := range tmpl.tasks {
			week.Tasks = append(week.Tasks, StudyTask{
				Title:           fmt.Sprintf("%s: %s", name, strings.ToLower(phase)),
				Description:     fmt.Sprintf("%s the part of %s covered in week %d.", name, topic, i+1),
				DurationMinutes: minutes[j],
			})
		}
		plan.Weeks = append(plan.Weeks, week)
	}
	return plan
}

// splitMinutes divides total into n parts that differ by at most one and
// sum to total.
func splitMinutes(total, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = total / n
		if i < total%n {
			out[i]++
		}
	}
	return out
}

func synthesizeFlashcards(params Parameters) []Flashcard {
	tmpl := templateFor(params.Difficulty)
	topic := fallbackTopic(params)
	count := params.Count
	if count < 1 {
		count = defaultCardCount
	}
	cards := make([]Flashcard, 0, count)
	for i := 0; i < count; i++ {
		c := tmpl.cards[i%len(tmpl.cards)]
		idea := i/len(tmpl.cards) + 1
		cards = append(cards, Flashcard{
			Front: fmt.Sprintf(c.front, idea, topic),
			Back:  fmt.Sprintf(c.back, idea, topic),
			Hint:  tmpl.hint,
			Tags:  []string{params.Difficulty, "review"},
		})
	}
	return cards
}

// synthesizeMindMap lays out maxNodes nodes as a breadth-first balanced tree
// no deeper than depth.
func synthesizeMindMap(params Parameters) MindMap {
	topic := fallbackTopic(params)
	maxNodes := params.MaxNodes
	if maxNodes < 1 {
		maxNodes = defaultMaxNodes
	}
	depth := params.Depth
	if depth < 1 {
		depth = defaultDepth
	}
	branching := branchingFactor(maxNodes, depth)

	mm := MindMap{
		Title: "Mind map: " + topic,
		Root:  "root",
		Nodes: make([]MindMapNode, 0, maxNodes),
	}
	mm.Nodes = append(mm.Nodes, MindMapNode{
		ID:          "root",
		Label:       topic,
		Description: "Central topic",
	})

	type pending struct {
		id    string
		path  string
		level int
	}
	queue := []pending{{id: "root"}}
	for len(queue) > 0 && len(mm.Nodes) < maxNodes {
		parent := queue[0]
		queue = queue[1:]
		if parent.level == depth {
			continue
		}
		for c := 1; c <= branching && len(mm.Nodes) < maxNodes; c++ {
			path := strconv.Itoa(c)
			if parent.path != "" {
				path = parent.path + "." + path
			}
			id := "n" + strings.ReplaceAll(path, ".", "-")
			mm.Nodes = append(mm.Nodes, MindMapNode{
				ID:          id,
				Label:       fmt.Sprintf("%s %s", levelName(parent.level+1), path),
				ParentID:    parent.id,
				Description: fmt.Sprintf("%s of %s", levelName(parent.level+1), topic),
			})
			queue = append(queue, pending{id: id, path: path, level: parent.level + 1})
		}
	}
	return mm
}

// branchingFactor is the smallest factor >= 2 whose full tree of the given
// depth holds at least maxNodes nodes.
func branchingFactor(maxNodes, depth int) int {
	for b := 2; ; b++ {
		size, level := 1, 1
		for d := 1; d <= depth; d++ {
			level *= b
			size += level
			if size >= maxNodes {
				return b
			}
		}
	}
}

func levelName(level int) string {
	switch level {
	case 1:
		return "Theme"
	case 2:
		return "Subtopic"
	case 3:
		return "Detail"
	default:
		return "Point"
	}
}
