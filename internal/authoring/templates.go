package authoring

// TemplateEntry is one content slot of a course template.
type TemplateEntry struct {
	Kind        Kind   `json:"type"`
	Title       string `json:"title"`
	Placeholder string `json:"placeholder"`
}

// Template is a fixed starting layout for a course draft.
type Template struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Content     []TemplateEntry `json:"content"`
}

var templates = []Template{
	{
		ID:          "basic-video",
		Name:        "Basic Video Course",
		Description: "Simple course with intro video and quiz",
		Icon:        "📹",
		Content: []TemplateEntry{
			{Kind: KindVideo, Title: "Introduction", Placeholder: "Course introduction video"},
			{Kind: KindReading, Title: "Course Materials", Placeholder: "Additional reading materials and resources"},
			{Kind: KindQuiz, Title: "Knowledge Check", Placeholder: "Test understanding of key concepts"},
		},
	},
	{
		ID:          "comprehensive",
		Name:        "Comprehensive Course",
		Description: "Full course with multiple modules",
		Icon:        "📚",
		Content: []TemplateEntry{
			{Kind: KindVideo, Title: "Course Overview", Placeholder: "Welcome and course objectives"},
			{Kind: KindReading, Title: "Module 1: Fundamentals", Placeholder: "Core concepts and principles"},
			{Kind: KindVideo, Title: "Module 1 Demo", Placeholder: "Practical demonstration"},
			{Kind: KindQuiz, Title: "Module 1 Quiz", Placeholder: "Test Module 1 knowledge"},
			{Kind: KindReading, Title: "Module 2: Advanced Topics", Placeholder: "Advanced concepts and techniques"},
			{Kind: KindVideo, Title: "Module 2 Demo", Placeholder: "Advanced demonstration"},
			{Kind: KindQuiz, Title: "Final Assessment", Placeholder: "Comprehensive final quiz"},
		},
	},
	{
		ID:          "quick-tutorial",
		Name:        "Quick Tutorial",
		Description: "Short tutorial with practice",
		Icon:        "⚡",
		Content: []TemplateEntry{
			{Kind: KindVideo, Title: "Tutorial Video", Placeholder: "Step-by-step tutorial"},
			{Kind: KindReading, Title: "Practice Exercise", Placeholder: "Hands-on practice instructions"},
		},
	},
}

// Templates returns the built-in course templates.
func Templates() []Template {
	out := make([]Template, len(templates))
	for i, t := range templates {
		out[i] = t
		out[i].Content = append([]TemplateEntry(nil), t.Content...)
	}
	return out
}

// LookupTemplate finds a template by id.
func LookupTemplate(id string) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}
