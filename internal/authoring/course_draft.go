package authoring

import (
	"fmt"
	"math"
	"time"
)

// State is the lifecycle position of a draft.
type State string

const (
	StateEmpty     State = "empty"
	StateEditing   State = "editing"
	StateReady     State = "ready"
	StateSaved     State = "saved"
	StateDiscarded State = "discarded"
)

// Terminal reports whether no further mutation is allowed.
func (s State) Terminal() bool {
	return s == StateSaved || s == StateDiscarded
}

// Selector is the picker currently open in the course form.
type Selector string

const (
	SelectorNone        Selector = ""
	SelectorTemplate    Selector = "template"
	SelectorContentType Selector = "content_type"
)

// CourseDraft is an unsaved course authoring session.
type CourseDraft struct {
	id            string
	ownerID       string
	title         string
	description   string
	duration      int
	content       *ContentList
	templateID    string
	selector      Selector
	closed        State
	savedCourseID string
	createdAt     time.Time
	updatedAt     time.Time
}

// CourseDraftView is a read-only rendering of a course draft.
type CourseDraftView struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration_minutes"`
	TemplateID      string     `json:"template_id,omitempty"`
	Selector        Selector   `json:"selector,omitempty"`
	State           State      `json:"state"`
	Ready           bool       `json:"ready"`
	Completion      int        `json:"completion"`
	Items           []ItemView `json:"items"`
	SavedCourseID   string     `json:"saved_course_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CourseSnapshot is the finalized content handed to persistence on save.
type CourseSnapshot struct {
	DraftID         string
	OwnerID         string
	Title           string
	Description     string
	DurationMinutes int
	TemplateID      string
	Items           []ContentItem
	Publish         bool
}

// NewCourseDraft starts an empty draft owned by ownerID.
func NewCourseDraft(id, ownerID string) *CourseDraft {
	now := time.Now().UTC()
	return &CourseDraft{
		id:        id,
		ownerID:   ownerID,
		content:   NewContentList(),
		createdAt: now,
		updatedAt: now,
	}
}

func (d *CourseDraft) ID() string           { return d.id }
func (d *CourseDraft) OwnerID() string      { return d.ownerID }
func (d *CourseDraft) UpdatedAt() time.Time { return d.updatedAt }

// Items returns copies of the draft's content items in order.
func (d *CourseDraft) Items() []ContentItem { return d.content.Items() }

// State derives the lifecycle state from the current fields.
func (d *CourseDraft) State() State {
	if d.closed != "" {
		return d.closed
	}
	if d.Ready() {
		return StateReady
	}
	if d.title != "" || d.description != "" || d.duration > 0 || d.content.Len() > 0 || d.templateID != "" {
		return StateEditing
	}
	return StateEmpty
}

// Ready reports whether title, description and at least one item are present.
func (d *CourseDraft) Ready() bool {
	return d.title != "" && d.description != "" && d.content.Len() > 0
}

// Completion is the share of {title, description, content, duration} that is
// filled, as a rounded percentage.
func (d *CourseDraft) Completion() int {
	filled := 0
	for _, ok := range []bool{d.title != "", d.description != "", d.content.Len() > 0, d.duration > 0} {
		if ok {
			filled++
		}
	}
	return int(math.Round(float64(filled) / 4 * 100))
}

// Missing lists the fields still required before the draft can be saved.
func (d *CourseDraft) Missing() []string {
	var missing []string
	if d.title == "" {
		missing = append(missing, "title")
	}
	if d.description == "" {
		missing = append(missing, "description")
	}
	if d.content.Len() == 0 {
		missing = append(missing, "content")
	}
	return missing
}

// ApplyTemplate fills an empty draft with the entries of the template.
func (d *CourseDraft) ApplyTemplate(templateID string) error {
	if err := d.mutable(); err != nil {
		return err
	}
	tpl, ok := LookupTemplate(templateID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}
	if d.State() != StateEmpty {
		return ErrTemplateNotAllowed
	}
	items := make([]ContentItem, 0, len(tpl.Content))
	for _, entry := range tpl.Content {
		item := newItem(d.content.freshID(), entry.Kind)
		b := item.base()
		b.Title = entry.Title
		b.Body = entry.Placeholder
		items = append(items, item)
		d.content.replace(items)
	}
	d.templateID = tpl.ID
	d.selector = SelectorNone
	d.touch()
	return nil
}

// SetTitle replaces the course title.
func (d *CourseDraft) SetTitle(title string) error {
	return d.edit(func() { d.title = title })
}

// SetDescription replaces the course description.
func (d *CourseDraft) SetDescription(description string) error {
	return d.edit(func() { d.description = description })
}

// SetDuration sets the estimated duration in minutes; zero clears it.
func (d *CourseDraft) SetDuration(minutes int) error {
	if minutes < 0 {
		return &ValidationError{Missing: []string{"duration"}}
	}
	return d.edit(func() { d.duration = minutes })
}

// ToggleTemplateSelector opens or closes the template picker.
func (d *CourseDraft) ToggleTemplateSelector() error {
	return d.edit(func() {
		if d.selector == SelectorTemplate {
			d.selector = SelectorNone
			return
		}
		d.selector = SelectorTemplate
	})
}

// OpenContentTypeSelector opens the content type picker.
func (d *CourseDraft) OpenContentTypeSelector() error {
	return d.edit(func() { d.selector = SelectorContentType })
}

// AddItem appends an empty item of kind and closes the content type picker.
func (d *CourseDraft) AddItem(kind Kind) (ContentItem, error) {
	if err := d.mutable(); err != nil {
		return nil, err
	}
	item := d.content.Add(kind)
	d.selector = SelectorNone
	d.touch()
	return item, nil
}

// UpdateItem merges patch into the item with id. Unknown ids are ignored.
func (d *CourseDraft) UpdateItem(id string, patch ItemPatch) error {
	return d.editErr(func() error { return d.content.Update(id, patch) })
}

// RemoveItem deletes the item with id. Unknown ids are ignored.
func (d *CourseDraft) RemoveItem(id string) error {
	return d.edit(func() { d.content.Remove(id) })
}

// DuplicateItem inserts a copy of the item right after it.
func (d *CourseDraft) DuplicateItem(id string) (ContentItem, error) {
	if err := d.mutable(); err != nil {
		return nil, err
	}
	dup, err := d.content.Duplicate(id)
	if err != nil {
		return nil, err
	}
	d.touch()
	return dup, nil
}

// MoveItem moves the item at from to position to.
func (d *CourseDraft) MoveItem(from, to int) error {
	return d.editErr(func() error { return d.content.MoveTo(from, to) })
}

// AddQuestion appends an empty question to a quiz item.
func (d *CourseDraft) AddQuestion(itemID string) error {
	return d.editErr(func() error { return d.content.AddQuestion(itemID) })
}

// UpdateQuestionText replaces the text of a quiz question.
func (d *CourseDraft) UpdateQuestionText(itemID string, q int, text string) error {
	return d.editErr(func() error { return d.content.UpdateQuestionText(itemID, q, text) })
}

// UpdateQuestionOption replaces one answer option of a quiz question.
func (d *CourseDraft) UpdateQuestionOption(itemID string, q, opt int, text string) error {
	return d.editErr(func() error { return d.content.UpdateQuestionOption(itemID, q, opt, text) })
}

// SetCorrectAnswer marks the correct option of a quiz question.
func (d *CourseDraft) SetCorrectAnswer(itemID string, q, opt int) error {
	return d.editErr(func() error { return d.content.SetCorrectAnswer(itemID, q, opt) })
}

// RemoveQuestion deletes a quiz question.
func (d *CourseDraft) RemoveQuestion(itemID string, q int) error {
	return d.editErr(func() error { return d.content.RemoveQuestion(itemID, q) })
}

// Reset clears every field and item and closes any open picker.
func (d *CourseDraft) Reset() error {
	return d.edit(func() {
		d.title = ""
		d.description = ""
		d.duration = 0
		d.content.reset()
		d.templateID = ""
		d.selector = SelectorNone
	})
}

// Finalize returns the snapshot to persist. The draft must be ready.
func (d *CourseDraft) Finalize(publish bool) (CourseSnapshot, error) {
	if err := d.mutable(); err != nil {
		return CourseSnapshot{}, err
	}
	if missing := d.Missing(); len(missing) > 0 {
		return CourseSnapshot{}, &ValidationError{Missing: missing}
	}
	return CourseSnapshot{
		DraftID:         d.id,
		OwnerID:         d.ownerID,
		Title:           d.title,
		Description:     d.description,
		DurationMinutes: d.duration,
		TemplateID:      d.templateID,
		Items:           d.content.Items(),
		Publish:         publish,
	}, nil
}

// MarkSaved closes the draft after persistence accepted it.
func (d *CourseDraft) MarkSaved(courseID string) error {
	if err := d.mutable(); err != nil {
		return err
	}
	d.closed = StateSaved
	d.savedCourseID = courseID
	d.selector = SelectorNone
	d.touch()
	return nil
}

// Discard abandons the draft.
func (d *CourseDraft) Discard() error {
	if err := d.mutable(); err != nil {
		return err
	}
	d.closed = StateDiscarded
	d.selector = SelectorNone
	d.touch()
	return nil
}

// View renders the draft for callers outside the package.
func (d *CourseDraft) View() CourseDraftView {
	items := d.content.Items()
	views := make([]ItemView, len(items))
	for i, item := range items {
		views[i] = ViewOf(item)
	}
	return CourseDraftView{
		ID:              d.id,
		OwnerID:         d.ownerID,
		Title:           d.title,
		Description:     d.description,
		DurationMinutes: d.duration,
		TemplateID:      d.templateID,
		Selector:        d.selector,
		State:           d.State(),
		Ready:           d.Ready(),
		Completion:      d.Completion(),
		Items:           views,
		SavedCourseID:   d.savedCourseID,
		CreatedAt:       d.createdAt,
		UpdatedAt:       d.updatedAt,
	}
}

func (d *CourseDraft) mutable() error {
	if d.closed != "" {
		return fmt.Errorf("%w: %s", ErrDraftClosed, d.closed)
	}
	return nil
}

func (d *CourseDraft) edit(fn func()) error {
	if err := d.mutable(); err != nil {
		return err
	}
	fn()
	d.touch()
	return nil
}

func (d *CourseDraft) editErr(fn func() error) error {
	if err := d.mutable(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	d.touch()
	return nil
}

func (d *CourseDraft) touch() {
	d.updatedAt = time.Now().UTC()
}
