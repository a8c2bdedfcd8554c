package authoring

import (
	"fmt"
	"time"
)

// CourseStatus mirrors the publication status of a persisted course.
type CourseStatus string

const (
	CourseDraftStatus     CourseStatus = "draft"
	CoursePublishedStatus CourseStatus = "published"
)

// CourseSummary is the catalog entry a badge draft selects from.
type CourseSummary struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Status           CourseStatus `json:"status"`
	EstimatedMinutes int          `json:"estimated_minutes"`
}

// DefaultBadgeIcon is used until the author picks a glyph.
const DefaultBadgeIcon = "🏆"

// DefaultBadgeColor is the palette token used until the author picks one.
const DefaultBadgeColor = "blue"

var palette = map[string]string{
	"blue":   "from-blue-500 to-blue-600",
	"green":  "from-emerald-500 to-emerald-600",
	"purple": "from-purple-500 to-purple-600",
	"orange": "from-orange-500 to-orange-600",
	"red":    "from-red-500 to-red-600",
}

// ColorClass returns the gradient classes for a palette token.
func ColorClass(token string) (string, bool) {
	class, ok := palette[token]
	return class, ok
}

// BadgeDraft bundles published courses into an unsaved badge.
type BadgeDraft struct {
	id           string
	ownerID      string
	title        string
	description  string
	icon         string
	color        string
	courseIDs    []string
	catalog      []CourseSummary
	closed       State
	savedBadgeID string
	createdAt    time.Time
	updatedAt    time.Time
}

// BadgeDraftView is a read-only rendering of a badge draft.
type BadgeDraftView struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Icon         string          `json:"icon"`
	Color        string          `json:"color"`
	ColorClass   string          `json:"color_class"`
	CourseIDs    []string        `json:"course_ids"`
	Available    []CourseSummary `json:"available_courses"`
	State        State           `json:"state"`
	Ready        bool            `json:"ready"`
	SavedBadgeID string          `json:"saved_badge_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BadgeSnapshot is the finalized badge handed to persistence.
type BadgeSnapshot struct {
	DraftID     string
	OwnerID     string
	Title       string
	Description string
	Icon        string
	Color       string
	CourseIDs   []string
	Publish     bool
}

// NewBadgeDraft opens a badge draft against a snapshot of the course catalog.
func NewBadgeDraft(id, ownerID string, catalog []CourseSummary) *BadgeDraft {
	now := time.Now().UTC()
	return &BadgeDraft{
		id:        id,
		ownerID:   ownerID,
		icon:      DefaultBadgeIcon,
		color:     DefaultBadgeColor,
		catalog:   append([]CourseSummary(nil), catalog...),
		createdAt: now,
		updatedAt: now,
	}
}

func (d *BadgeDraft) ID() string           { return d.id }
func (d *BadgeDraft) OwnerID() string      { return d.ownerID }
func (d *BadgeDraft) UpdatedAt() time.Time { return d.updatedAt }

// CourseIDs returns the selected courses in order.
func (d *BadgeDraft) CourseIDs() []string {
	return append([]string(nil), d.courseIDs...)
}

// Available lists the published courses of the catalog in catalog order.
func (d *BadgeDraft) Available() []CourseSummary {
	out := make([]CourseSummary, 0, len(d.catalog))
	for _, c := range d.catalog {
		if c.Status == CoursePublishedStatus {
			out = append(out, c)
		}
	}
	return out
}

// State reports the lifecycle state of the badge draft.
func (d *BadgeDraft) State() State {
	if d.closed != "" {
		return d.closed
	}
	if d.Ready() {
		return StateReady
	}
	if d.title != "" || d.description != "" || len(d.courseIDs) > 0 {
		return StateEditing
	}
	return StateEmpty
}

// Ready reports whether the badge can be created.
func (d *BadgeDraft) Ready() bool {
	return len(d.Missing()) == 0
}

// Missing lists the fields still required before the badge can be created.
func (d *BadgeDraft) Missing() []string {
	var missing []string
	if d.title == "" {
		missing = append(missing, "title")
	}
	if d.description == "" {
		missing = append(missing, "description")
	}
	if len(d.courseIDs) == 0 {
		missing = append(missing, "courses")
	}
	return missing
}

// SetTitle replaces the badge title.
func (d *BadgeDraft) SetTitle(title string) error {
	return d.edit(func() error { d.title = title; return nil })
}

// SetDescription replaces the badge description.
func (d *BadgeDraft) SetDescription(description string) error {
	return d.edit(func() error { d.description = description; return nil })
}

// SetIcon replaces the badge glyph.
func (d *BadgeDraft) SetIcon(icon string) error {
	return d.edit(func() error { d.icon = icon; return nil })
}

// SetColor selects a palette token.
func (d *BadgeDraft) SetColor(token string) error {
	return d.edit(func() error {
		if _, ok := palette[token]; !ok {
			return fmt.Errorf("%w: %s", ErrInvalidColor, token)
		}
		d.color = token
		return nil
	})
}

// AddCourse appends a published course. Adding a course twice is a no-op.
func (d *BadgeDraft) AddCourse(courseID string) error {
	return d.edit(func() error {
		if !d.eligible(courseID) {
			return fmt.Errorf("%w: %s", ErrCourseNotEligible, courseID)
		}
		if d.indexOf(courseID) >= 0 {
			return nil
		}
		d.courseIDs = append(d.courseIDs, courseID)
		return nil
	})
}

// RemoveCourse drops a course from the selection. Unknown ids are ignored.
func (d *BadgeDraft) RemoveCourse(courseID string) error {
	return d.edit(func() error {
		if idx := d.indexOf(courseID); idx >= 0 {
			d.courseIDs = append(d.courseIDs[:idx], d.courseIDs[idx+1:]...)
		}
		return nil
	})
}

// MoveCourse reorders the selection.
func (d *BadgeDraft) MoveCourse(from, to int) error {
	return d.edit(func() error {
		n := len(d.courseIDs)
		if err := checkIndex("from", from, n); err != nil {
			return err
		}
		if err := checkIndex("to", to, n); err != nil {
			return err
		}
		moved := d.courseIDs[from]
		rest := append(d.courseIDs[:from:from], d.courseIDs[from+1:]...)
		out := make([]string, 0, n)
		out = append(out, rest[:to]...)
		out = append(out, moved)
		d.courseIDs = append(out, rest[to:]...)
		return nil
	})
}

// Finalize returns the snapshot to persist. Title, description and at least
// one course are required.
func (d *BadgeDraft) Finalize(publish bool) (BadgeSnapshot, error) {
	if err := d.mutable(); err != nil {
		return BadgeSnapshot{}, err
	}
	if missing := d.Missing(); len(missing) > 0 {
		return BadgeSnapshot{}, &ValidationError{Missing: missing}
	}
	return BadgeSnapshot{
		DraftID:     d.id,
		OwnerID:     d.ownerID,
		Title:       d.title,
		Description: d.description,
		Icon:        d.icon,
		Color:       d.color,
		CourseIDs:   d.CourseIDs(),
		Publish:     publish,
	}, nil
}

// MarkSaved closes the draft after persistence accepted it.
func (d *BadgeDraft) MarkSaved(badgeID string) error {
	return d.edit(func() error {
		d.closed = StateSaved
		d.savedBadgeID = badgeID
		return nil
	})
}

// Discard abandons the draft.
func (d *BadgeDraft) Discard() error {
	return d.edit(func() error { d.closed = StateDiscarded; return nil })
}

// View renders the draft for callers outside the package.
func (d *BadgeDraft) View() BadgeDraftView {
	class, _ := ColorClass(d.color)
	return BadgeDraftView{
		ID:           d.id,
		OwnerID:      d.ownerID,
		Title:        d.title,
		Description:  d.description,
		Icon:         d.icon,
		Color:        d.color,
		ColorClass:   class,
		CourseIDs:    d.CourseIDs(),
		Available:    d.Available(),
		State:        d.State(),
		Ready:        d.Ready(),
		SavedBadgeID: d.savedBadgeID,
		CreatedAt:    d.createdAt,
		UpdatedAt:    d.updatedAt,
	}
}

func (d *BadgeDraft) eligible(courseID string) bool {
	for _, c := range d.catalog {
		if c.ID == courseID {
			return c.Status == CoursePublishedStatus
		}
	}
	return false
}

func (d *BadgeDraft) indexOf(courseID string) int {
	for i, id := range d.courseIDs {
		if id == courseID {
			return i
		}
	}
	return -1
}

func (d *BadgeDraft) mutable() error {
	if d.closed != "" {
		return fmt.Errorf("%w: %s", ErrDraftClosed, d.closed)
	}
	return nil
}

func (d *BadgeDraft) edit(fn func() error) error {
	if err := d.mutable(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	d.updatedAt = time.Now().UTC()
	return nil
}
