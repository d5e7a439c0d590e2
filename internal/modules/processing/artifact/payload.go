package artifact

// StudyPlan is the payload of a study_plan artifact.
type StudyPlan struct {
	Title   string      `json:"title"`
	Summary string      `json:"summary"`
	Weeks   []StudyWeek `json:"weeks"`
}

type StudyWeek struct {
	Week  int         `json:"week"`
	Title string      `json:"title"`
	Goals []string    `json:"goals"`
	Tasks []StudyTask `json:"tasks"`
}

type StudyTask struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"durationMinutes"`
}

// Flashcard is one element of a flashcards artifact.
type Flashcard struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Hint  string   `json:"hint"`
	Tags  []string `json:"tags"`
}

// MindMap is the payload of a mind_map artifact. Root is the id of the only
// node with an empty ParentID.
type MindMap struct {
	Title string        `json:"title"`
	Root  string        `json:"root"`
	Nodes []MindMapNode `json:"nodes"`
}

type MindMapNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	ParentID    string `json:"parentId"`
	Description string `json:"description"`
}
