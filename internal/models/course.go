package models

import "time"

// PublishStatus is shared by courses and badges.
type PublishStatus string

const (
	StatusDraft     PublishStatus = "draft"
	StatusPublished PublishStatus = "published"
)

// LessonKind mirrors the content item kinds.
type LessonKind string

const (
	LessonVideo   LessonKind = "video"
	LessonReading LessonKind = "reading"
	LessonQuiz    LessonKind = "quiz"
)

// Course is a persisted course.
type Course struct {
	ID               string        `db:"id" json:"id"`
	Slug             string        `db:"slug" json:"slug"`
	Title            string        `db:"title" json:"title"`
	Summary          string        `db:"summary" json:"summary"`
	SortOrder        int           `db:"sort_order" json:"order"`
	Status           PublishStatus `db:"status" json:"status"`
	EstimatedMinutes int           `db:"estimated_minutes" json:"estimated_minutes"`
	TemplateID       *string       `db:"template_id" json:"template_id,omitempty"`
	CreatedBy        *string       `db:"created_by" json:"created_by,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
	LessonCount      int           `db:"lesson_count" json:"lesson_count"`
	Lessons          []Lesson      `db:"-" json:"lessons,omitempty"`
}

// Lesson is the persisted form of a content item.
type Lesson struct {
	ID        string        `db:"id" json:"id"`
	CourseID  string        `db:"course_id" json:"course_id"`
	SortOrder int           `db:"sort_order" json:"order"`
	Kind      LessonKind    `db:"kind" json:"type"`
	Title     string        `db:"title" json:"title"`
	Content   string        `db:"content" json:"content"`
	VideoURL  *string       `db:"video_url" json:"video_url,omitempty"`
	Questions QuizQuestions `db:"questions" json:"questions,omitempty"`
	Required  bool          `db:"required" json:"required"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Status *PublishStatus
}
