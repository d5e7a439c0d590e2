package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sanitized is schema-valid canonical payload plus count reconciliation flags.
type Sanitized struct {
	Payload   json.RawMessage
	Truncated bool
	ShortBy   int
}

const byteOrderMark = "\ufeff"

var fenceMarkers = []string{"```", "~~~"}

// StripEnvelope removes the text models wrap around JSON: a byte order mark,
// a markdown code fence with optional language tag, and prose before and
// after the JSON value. Bracketed prose such as "the [2] cards" is skipped
// in favour of the first value that is an object or an array of objects.
// When no JSON value can be located the trimmed input is returned as is.
func StripEnvelope(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), byteOrderMark))

	if fenceAt, marker := firstFence(s); fenceAt >= 0 {
		if open := strings.IndexAny(s, "{["); open < 0 || fenceAt < open {
			s = fenceBody(s[fenceAt+len(marker):], marker)
		}
	}

	first := ""
	for from := 0; from < len(s); {
		i := strings.IndexAny(s[from:], "{[")
		if i < 0 {
			break
		}
		open := from + i
		end := matchingClose(s, open)
		if end < 0 {
			if first == "" {
				return strings.TrimSpace(s[open:])
			}
			break
		}
		candidate := s[open : end+1]
		if payloadShaped(candidate) {
			return candidate
		}
		if first == "" {
			first = candidate
		}
		from = end + 1
	}
	if first != "" {
		return first
	}
	return strings.TrimSpace(s)
}

// payloadShaped reports whether s is a JSON object or a non-empty array of
// objects, the only shapes an artifact payload takes.
func payloadShaped(s string) bool {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return false
	}
	switch doc := v.(type) {
	case map[string]interface{}:
		return true
	case []interface{}:
		if len(doc) == 0 {
			return false
		}
		for _, item := range doc {
			if _, ok := item.(map[string]interface{}); !ok {
				return false
			}
		}
		return true
	}
	return false
}

func firstFence(s string) (int, string) {
	best, marker := -1, ""
	for _, m := range fenceMarkers {
		if i := strings.Index(s, m); i >= 0 && (best < 0 || i < best) {
			best, marker = i, m
		}
	}
	return best, marker
}

// fenceBody drops the info string after an opening fence and cuts at the
// closing fence, if there is one.
func fenceBody(s, marker string) string {
	i := 0
	for i < len(s) && isInfoChar(s[i]) {
		i++
	}
	s = s[i:]
	if end := strings.Index(s, marker); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

func isInfoChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '-' || c == '_' || c == '+' || c == '.'
}

// matchingClose returns the index of the bracket closing the one at start,
// skipping brackets inside JSON strings, or -1.
func matchingClose(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Sanitize turns raw provider text into a canonical, schema-valid payload
// for kind. Unparseable text yields *ParseError, a wrong shape or schema
// violation yields *SchemaError.
func Sanitize(kind Kind, params Parameters, raw string) (Sanitized, error) {
	body := StripEnvelope(raw)
	doc, err := decodeDocument(body)
	if err != nil {
		return Sanitized{}, &ParseError{Err: err}
	}
	if err := checkShape(kind, doc); err != nil {
		return Sanitized{}, err
	}
	if err := ValidateDocument(kind, dropNulls(doc)); err != nil {
		return Sanitized{}, err
	}

	var out Sanitized
	switch kind {
	case KindStudyPlan:
		var plan StudyPlan
		if err := decodeTyped(kind, body, &plan); err != nil {
			return Sanitized{}, err
		}
		out.Truncated, out.ShortBy = normalizeStudyPlan(&plan, params)
		out.Payload, err = json.Marshal(plan)
	case KindFlashcards:
		var cards []Flashcard
		if err := decodeTyped(kind, body, &cards); err != nil {
			return Sanitized{}, err
		}
		cards, out.Truncated, out.ShortBy = normalizeFlashcards(cards, params)
		out.Payload, err = json.Marshal(cards)
	case KindMindMap:
		var mm MindMap
		if err := decodeTyped(kind, body, &mm); err != nil {
			return Sanitized{}, err
		}
		out.Truncated, out.ShortBy = normalizeMindMap(&mm, params)
		out.Payload, err = json.Marshal(mm)
	default:
		return Sanitized{}, fmt.Errorf("unknown kind %q", kind)
	}
	if err != nil {
		return Sanitized{}, err
	}

	if err := validatePayload(kind, out.Payload); err != nil {
		return Sanitized{}, err
	}
	return out, nil
}

func decodeDocument(body string) (interface{}, error) {
	if body == "" {
		return nil, errors.New("no JSON value found")
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON value")
	}
	return doc, nil
}

// dropNulls removes object members whose value is null, so an explicit
// null in an optional field reads as an absent field. Array elements are
// left alone.
func dropNulls(doc interface{}) interface{} {
	switch v := doc.(type) {
	case map[string]interface{}:
		for k, member := range v {
			if member == nil {
				delete(v, k)
				continue
			}
			v[k] = dropNulls(member)
		}
	case []interface{}:
		for i, item := range v {
			v[i] = dropNulls(item)
		}
	}
	return doc
}

func checkShape(kind Kind, doc interface{}) error {
	switch doc.(type) {
	case map[string]interface{}:
		if kind == KindFlashcards {
			return &SchemaError{Kind: kind, Reason: "expected an array, got an object"}
		}
	case []interface{}:
		if kind != KindFlashcards {
			return &SchemaError{Kind: kind, Reason: "expected an object, got an array"}
		}
	default:
		return &SchemaError{Kind: kind, Reason: fmt.Sprintf("expected a JSON container, got %T", doc)}
	}
	return nil
}

func decodeTyped(kind Kind, body string, out interface{}) error {
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return &SchemaError{Kind: kind, Reason: err.Error()}
	}
	return nil
}

func validatePayload(kind Kind, payload []byte) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return ValidateDocument(kind, doc)
}

func reconcileCount(have, want int) (keep int, truncated bool, shortBy int) {
	switch {
	case want <= 0:
		return have, false, 0
	case have > want:
		return want, true, 0
	default:
		return have, false, want - have
	}
}

func normalizeStudyPlan(plan *StudyPlan, params Parameters) (bool, int) {
	keep, truncated, shortBy := reconcileCount(len(plan.Weeks), params.DurationWeeks)
	plan.Weeks = plan.Weeks[:keep]

	plan.Title = strings.TrimSpace(plan.Title)
	if plan.Title == "" {
		plan.Title = params.Topic
	}
	plan.Summary = strings.TrimSpace(plan.Summary)
	for i := range plan.Weeks {
		w := &plan.Weeks[i]
		w.Week = i + 1
		w.Title = strings.TrimSpace(w.Title)
		w.Goals = cleanStrings(w.Goals)
		for j := range w.Tasks {
			t := &w.Tasks[j]
			t.Title = strings.TrimSpace(t.Title)
			t.Description = strings.TrimSpace(t.Description)
		}
	}
	return truncated, shortBy
}

func normalizeFlashcards(cards []Flashcard, params Parameters) ([]Flashcard, bool, int) {
	keep, truncated, shortBy := reconcileCount(len(cards), params.Count)
	cards = cards[:keep]
	for i := range cards {
		c := &cards[i]
		c.Front = strings.TrimSpace(c.Front)
		c.Back = strings.TrimSpace(c.Back)
		c.Hint = strings.TrimSpace(c.Hint)
		c.Tags = cleanStrings(c.Tags)
	}
	return cards, truncated, shortBy
}

// normalizeMindMap makes the node list a tree rooted at Root: duplicate ids
// are dropped, orphans and extra roots are attached to the root, nodes on
// cycles or deeper than params.Depth are dropped, and the list is cut to
// params.MaxNodes in breadth-first order.
func normalizeMindMap(mm *MindMap, params Parameters) (bool, int) {
	mm.Title = strings.TrimSpace(mm.Title)
	if mm.Title == "" {
		mm.Title = params.Topic
	}

	nodes := make([]MindMapNode, 0, len(mm.Nodes))
	index := make(map[string]int, len(mm.Nodes))
	for _, n := range mm.Nodes {
		n.ID = strings.TrimSpace(n.ID)
		n.ParentID = strings.TrimSpace(n.ParentID)
		n.Label = strings.TrimSpace(n.Label)
		n.Description = strings.TrimSpace(n.Description)
		if _, dup := index[n.ID]; dup {
			continue
		}
		index[n.ID] = len(nodes)
		nodes = append(nodes, n)
	}

	root := strings.TrimSpace(mm.Root)
	if _, ok := index[root]; !ok {
		root = nodes[0].ID
		for _, n := range nodes {
			if n.ParentID == "" {
				root = n.ID
				break
			}
		}
	}

	children := make(map[string][]int, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		if n.ID == root {
			n.ParentID = ""
			continue
		}
		if _, ok := index[n.ParentID]; !ok || n.ParentID == "" {
			n.ParentID = root
		}
		children[n.ParentID] = append(children[n.ParentID], i)
	}

	maxNodes := params.MaxNodes
	if maxNodes <= 0 {
		maxNodes = len(nodes)
	}
	kept := make([]MindMapNode, 0, len(nodes))
	truncated := false
	type queued struct {
		idx   int
		depth int
	}
	queue := []queued{{idx: index[root]}}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		if len(kept) == maxNodes {
			truncated = true
			break
		}
		kept = append(kept, nodes[q.idx])
		for _, child := range children[nodes[q.idx].ID] {
			if params.Depth > 0 && q.depth+1 > params.Depth {
				truncated = true
				continue
			}
			queue = append(queue, queued{idx: child, depth: q.depth + 1})
		}
	}

	mm.Root = root
	mm.Nodes = kept
	shortBy := 0
	if !truncated && params.MaxNodes > len(kept) {
		shortBy = params.MaxNodes - len(kept)
	}
	return truncated, shortBy
}

// cleanStrings trims entries, drops blanks and never returns nil.
func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
