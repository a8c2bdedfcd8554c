// Package authoring holds the in-memory state model behind the admin dashboard:
// course drafts built from content items, badge drafts bundling published
// courses, and the role-gated dashboard controller that exposes them.
//
// Nothing in this package performs I/O. Drafts are owned by a single authoring
// session and every operation mutates the draft synchronously.
package authoring

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies the variant of a content item.
type Kind string

const (
	KindVideo   Kind = "video"
	KindReading Kind = "reading"
	KindQuiz    Kind = "quiz"
)

// Valid reports whether k is a known content kind.
func (k Kind) Valid() bool {
	switch k {
	case KindVideo, KindReading, KindQuiz:
		return true
	}
	return false
}

// DefaultOptionSlots is the number of empty answer options a new question starts with.
const DefaultOptionSlots = 4

// Question is one multiple-choice question of a quiz item.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

func (q Question) clone() Question {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return Question{Text: q.Text, Options: opts, CorrectAnswer: q.CorrectAnswer}
}

// ItemBase carries the fields shared by every content variant.
type ItemBase struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"content"`
	Required bool   `json:"required"`
}

func (b *ItemBase) base() *ItemBase { return b }

// ContentItem is one teaching unit of a course draft. The set of variants is
// closed: *VideoItem, *ReadingItem and *QuizItem.
type ContentItem interface {
	Kind() Kind
	base() *ItemBase
	clone() ContentItem
}

// VideoItem is a video lesson with an optional URL.
type VideoItem struct {
	ItemBase
	VideoURL string `json:"video_url"`
}

// Kind implements ContentItem.
func (*VideoItem) Kind() Kind { return KindVideo }

func (v *VideoItem) clone() ContentItem {
	c := *v
	return &c
}

// ReadingItem is a text lesson.
type ReadingItem struct {
	ItemBase
}

// Kind implements ContentItem.
func (*ReadingItem) Kind() Kind { return KindReading }

func (r *ReadingItem) clone() ContentItem {
	c := *r
	return &c
}

// QuizItem is a knowledge check made of ordered questions.
type QuizItem struct {
	ItemBase
	Questions []Question `json:"questions"`
}

// Kind implements ContentItem.
func (*QuizItem) Kind() Kind { return KindQuiz }

func (q *QuizItem) clone() ContentItem {
	c := *q
	c.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		c.Questions[i] = question.clone()
	}
	return &c
}

// Header returns a copy of the shared fields of item.
func Header(item ContentItem) ItemBase {
	return *item.base()
}

// newItem builds an empty item of kind. An unknown kind is a caller bug.
func newItem(id string, kind Kind) ContentItem {
	base := ItemBase{ID: id, Required: true}
	switch kind {
	case KindVideo:
		return &VideoItem{ItemBase: base}
	case KindReading:
		return &ReadingItem{ItemBase: base}
	case KindQuiz:
		return &QuizItem{ItemBase: base, Questions: []Question{}}
	}
	panic(fmt.Sprintf("authoring: unknown content kind %q", kind))
}

// ItemPatch lists the fields to merge into an item. Nil fields are left untouched.
type ItemPatch struct {
	Title     *string
	Body      *string
	Required  *bool
	VideoURL  *string
	Questions *[]Question
}

func (p ItemPatch) apply(item ContentItem) error {
	if p.VideoURL != nil {
		if _, ok := item.(*VideoItem); !ok {
			return fmt.Errorf("%w: video_url on %s item", ErrFieldNotApplicable, item.Kind())
		}
	}
	if p.Questions != nil {
		if _, ok := item.(*QuizItem); !ok {
			return fmt.Errorf("%w: questions on %s item", ErrFieldNotApplicable, item.Kind())
		}
		for _, q := range *p.Questions {
			if err := checkIndex("correct_answer", q.CorrectAnswer, len(q.Options)); err != nil {
				return err
			}
		}
	}

	b := item.base()
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Body != nil {
		b.Body = *p.Body
	}
	if p.Required != nil {
		b.Required = *p.Required
	}
	switch v := item.(type) {
	case *VideoItem:
		if p.VideoURL != nil {
			v.VideoURL = *p.VideoURL
		}
	case *QuizItem:
		if p.Questions != nil {
			questions := make([]Question, len(*p.Questions))
			for i, q := range *p.Questions {
				questions[i] = q.clone()
			}
			v.Questions = questions
		}
	}
	return nil
}

// ContentList is the ordered sequence of items inside a course draft.
type ContentList struct {
	items []ContentItem
	newID func() string
}

// NewContentList returns an empty list using random UUIDs for item identifiers.
func NewContentList() *ContentList {
	return &ContentList{newID: uuid.NewString}
}

// Len returns the number of items.
func (l *ContentList) Len() int { return len(l.items) }

// Items returns the items in order. The returned items are copies.
func (l *ContentList) Items() []ContentItem {
	out := make([]ContentItem, len(l.items))
	for i, item := range l.items {
		out[i] = item.clone()
	}
	return out
}

// Get returns a copy of the item with id.
func (l *ContentList) Get(id string) (ContentItem, bool) {
	idx := l.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return l.items[idx].clone(), true
}

// Add appends a new empty item of kind and returns it.
func (l *ContentList) Add(kind Kind) ContentItem {
	item := newItem(l.freshID(), kind)
	l.items = append(l.items, item)
	return item.clone()
}

// Update merges patch into the item with id. An unknown id is a no-op.
func (l *ContentList) Update(id string, patch ItemPatch) error {
	idx := l.indexOf(id)
	if idx < 0 {
		return nil
	}
	candidate := l.items[idx].clone()
	if err := patch.apply(candidate); err != nil {
		return err
	}
	l.items[idx] = candidate
	return nil
}

// Remove deletes the item with id. An unknown id is a no-op.
func (l *ContentList) Remove(id string) {
	idx := l.indexOf(id)
	if idx < 0 {
		return
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
}

// Duplicate inserts a copy of the item with id right after it. The copy gets a
// new identifier and " (Copy)" appended to its title.
func (l *ContentList) Duplicate(id string) (ContentItem, error) {
	idx := l.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	dup := l.items[idx].clone()
	b := dup.base()
	b.ID = l.freshID()
	b.Title = b.Title + " (Copy)"

	l.items = append(l.items, nil)
	copy(l.items[idx+2:], l.items[idx+1:])
	l.items[idx+1] = dup
	return dup.clone(), nil
}

// MoveTo removes the item at from and reinserts it at to. Both indices must
// address an existing position; otherwise the list is left unchanged.
func (l *ContentList) MoveTo(from, to int) error {
	if err := checkIndex("from", from, len(l.items)); err != nil {
		return err
	}
	if err := checkIndex("to", to, len(l.items)); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	moved := l.items[from]
	rest := append(l.items[:from:from], l.items[from+1:]...)
	out := make([]ContentItem, 0, len(l.items))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	l.items = out
	return nil
}

// AddQuestion appends an empty question with four blank options to a quiz item.
func (l *ContentList) AddQuestion(itemID string) error {
	quiz, err := l.quiz(itemID)
	if err != nil {
		return err
	}
	quiz.Questions = append(quiz.Questions, Question{
		Options:       make([]string, DefaultOptionSlots),
		CorrectAnswer: 0,
	})
	return nil
}

// UpdateQuestionText replaces the text of question q.
func (l *ContentList) UpdateQuestionText(itemID string, q int, text string) error {
	quiz, err := l.quiz(itemID)
	if err != nil {
		return err
	}
	if err := checkIndex("question", q, len(quiz.Questions)); err != nil {
		return err
	}
	quiz.Questions[q].Text = text
	return nil
}

// UpdateQuestionOption replaces option opt of question q.
func (l *ContentList) UpdateQuestionOption(itemID string, q, opt int, text string) error {
	quiz, err := l.quiz(itemID)
	if err != nil {
		return err
	}
	if err := checkIndex("question", q, len(quiz.Questions)); err != nil {
		return err
	}
	if err := checkIndex("option", opt, len(quiz.Questions[q].Options)); err != nil {
		return err
	}
	quiz.Questions[q].Options[opt] = text
	return nil
}

// SetCorrectAnswer marks option opt as the correct answer of question q.
func (l *ContentList) SetCorrectAnswer(itemID string, q, opt int) error {
	quiz, err := l.quiz(itemID)
	if err != nil {
		return err
	}
	if err := checkIndex("question", q, len(quiz.Questions)); err != nil {
		return err
	}
	if err := checkIndex("option", opt, len(quiz.Questions[q].Options)); err != nil {
		return err
	}
	quiz.Questions[q].CorrectAnswer = opt
	return nil
}

// RemoveQuestion deletes question q.
func (l *ContentList) RemoveQuestion(itemID string, q int) error {
	quiz, err := l.quiz(itemID)
	if err != nil {
		return err
	}
	if err := checkIndex("question", q, len(quiz.Questions)); err != nil {
		return err
	}
	quiz.Questions = append(quiz.Questions[:q], quiz.Questions[q+1:]...)
	return nil
}

func (l *ContentList) quiz(itemID string) (*QuizItem, error) {
	idx := l.indexOf(itemID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	quiz, ok := l.items[idx].(*QuizItem)
	if !ok {
		return nil, fmt.Errorf("%w: item %s is %s", ErrNotQuiz, itemID, l.items[idx].Kind())
	}
	return quiz, nil
}

func (l *ContentList) indexOf(id string) int {
	for i, item := range l.items {
		if item.base().ID == id {
			return i
		}
	}
	return -1
}

// freshID draws identifiers until one is unused in the list.
func (l *ContentList) freshID() string {
	for {
		id := l.newID()
		if l.indexOf(id) < 0 {
			return id
		}
	}
}

func (l *ContentList) reset() {
	l.items = nil
}

func (l *ContentList) replace(items []ContentItem) {
	l.items = items
}

func checkIndex(name string, idx, length int) error {
	if idx < 0 || idx >= length {
		return &IndexError{Name: name, Index: idx, Len: length}
	}
	return nil
}
