package entities

// Question is a yes/no screening question tied to a priority.
type Question struct {
	Key      string   `json:"clave"`
	Prompt   string   `json:"pregunta"`
	Priority Priority `json:"prioridad"`
}

// Catalog maps category names to their ordered questions. It is immutable
// once built; accessors return copies.
type Catalog struct {
	order     []string
	questions map[string][]Question
}

// CategoryQuestions is one catalog entry, used to build a Catalog in order.
type CategoryQuestions struct {
	Category  string
	Questions []Question
}

// NewCatalog builds a catalog preserving the order of entries.
// A repeated category replaces the earlier questions but keeps its first position.
func NewCatalog(entries ...CategoryQuestions) Catalog {
	c := Catalog{
		order:     make([]string, 0, len(entries)),
		questions: make(map[string][]Question, len(entries)),
	}
	for _, e := range entries {
		if _, seen := c.questions[e.Category]; !seen {
			c.order = append(c.order, e.Category)
		}
		qs := make([]Question, len(e.Questions))
		copy(qs, e.Questions)
		c.questions[e.Category] = qs
	}
	return c
}

// Categories returns the category names in catalog order.
func (c Catalog) Categories() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Has reports whether the category exists.
func (c Catalog) Has(category string) bool {
	_, ok := c.questions[category]
	return ok
}

// Questions returns the category's questions, or an empty slice if unknown.
func (c Catalog) Questions(category string) []Question {
	qs := c.questions[category]
	out := make([]Question, len(qs))
	copy(out, qs)
	return out
}

// Len returns the number of categories.
func (c Catalog) Len() int {
	return len(c.order)
}
