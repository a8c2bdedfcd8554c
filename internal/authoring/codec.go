package authoring

import (
	"encoding/json"
	"fmt"
)

// ItemView is the flat, tagged representation of a content item used on the
// wire and in draft storage. VideoURL is set only for videos and Questions
// only for quizzes.
type ItemView struct {
	ID        string      `json:"id"`
	Kind      Kind        `json:"type"`
	Title     string      `json:"title"`
	Body      string      `json:"content"`
	Required  bool        `json:"required"`
	VideoURL  *string     `json:"video_url,omitempty"`
	Questions *[]Question `json:"questions,omitempty"`
}

// ViewOf flattens item into its tagged representation.
func ViewOf(item ContentItem) ItemView {
	b := item.base()
	view := ItemView{ID: b.ID, Kind: item.Kind(), Title: b.Title, Body: b.Body, Required: b.Required}
	switch v := item.clone().(type) {
	case *VideoItem:
		view.VideoURL = &v.VideoURL
	case *QuizItem:
		view.Questions = &v.Questions
	}
	return view
}

// Item rebuilds the variant described by v.
func (v ItemView) Item() (ContentItem, error) {
	if !v.Kind.Valid() {
		return nil, fmt.Errorf("decode content item %s: unknown kind %q", v.ID, v.Kind)
	}
	item := newItem(v.ID, v.Kind)
	b := item.base()
	b.Title, b.Body, b.Required = v.Title, v.Body, v.Required
	if err := (ItemPatch{VideoURL: v.VideoURL, Questions: v.Questions}).apply(item); err != nil {
		return nil, fmt.Errorf("decode content item %s: %w", v.ID, err)
	}
	return item, nil
}

// MarshalJSON implements json.Marshaler for the draft store.
func (d *CourseDraft) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.View())
}

// UnmarshalJSON implements json.Unmarshaler for the draft store.
func (d *CourseDraft) UnmarshalJSON(data []byte) error {
	var view CourseDraftView
	if err := json.Unmarshal(data, &view); err != nil {
		return err
	}
	items := make([]ContentItem, 0, len(view.Items))
	for _, iv := range view.Items {
		item, err := iv.Item()
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	restored := NewCourseDraft(view.ID, view.OwnerID)
	restored.title = view.Title
	restored.description = view.Description
	restored.duration = view.DurationMinutes
	restored.templateID = view.TemplateID
	restored.selector = view.Selector
	restored.savedCourseID = view.SavedCourseID
	restored.createdAt = view.CreatedAt
	restored.updatedAt = view.UpdatedAt
	restored.content.replace(items)
	if view.State == StateSaved || view.State == StateDiscarded {
		restored.closed = view.State
	}
	*d = *restored
	return nil
}

// MarshalJSON implements json.Marshaler for the draft store.
func (d *BadgeDraft) MarshalJSON() ([]byte, error) {
	return json.Marshal(badgeDraftJSON{
		BadgeDraftView: d.View(),
		Catalog:        d.catalog,
	})
}

// UnmarshalJSON implements json.Unmarshaler for the draft store.
func (d *BadgeDraft) UnmarshalJSON(data []byte) error {
	var stored badgeDraftJSON
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	restored := NewBadgeDraft(stored.ID, stored.OwnerID, stored.Catalog)
	restored.title = stored.Title
	restored.description = stored.Description
	restored.icon = stored.Icon
	restored.color = stored.Color
	restored.courseIDs = append([]string(nil), stored.CourseIDs...)
	restored.savedBadgeID = stored.SavedBadgeID
	restored.createdAt = stored.CreatedAt
	restored.updatedAt = stored.UpdatedAt
	if stored.State == StateSaved || stored.State == StateDiscarded {
		restored.closed = stored.State
	}
	*d = *restored
	return nil
}

type badgeDraftJSON struct {
	BadgeDraftView
	Catalog []CourseSummary `json:"catalog"`
}
