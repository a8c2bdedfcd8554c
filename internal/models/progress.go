package models

import "time"

// UserProgress tracks lessons a learner completed within one course.
type UserProgress struct {
	ID                 string     `db:"id" json:"id"`
	UserID             string     `db:"user_id" json:"user_id"`
	CourseID           string     `db:"course_id" json:"course_id"`
	CompletedLessonIDs StringList `db:"completed_lesson_ids" json:"completed_lesson_ids"`
	IsCourseCompleted  bool       `db:"is_course_completed" json:"is_course_completed"`
	LastUpdated        time.Time  `db:"last_updated" json:"last_updated"`
}

// CourseProgress is a learner's standing in one course.
type CourseProgress struct {
	CourseID         string `json:"course_id"`
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	CompletedLessons int    `json:"completed_lessons"`
	TotalLessons     int    `json:"total_lessons"`
	Percent          int    `json:"percent"`
	Completed        bool   `json:"completed"`
}

// ProgressSummary is returned by GET /progress.
type ProgressSummary struct {
	Courses          []CourseProgress `json:"courses"`
	CoursesCompleted int              `json:"courses_completed"`
	BadgesEarned     int              `json:"badges_earned"`
	TotalProgress    int              `json:"total_progress"`
}

// LessonCompletion is the result of completing a lesson.
type LessonCompletion struct {
	Progress        UserProgress `json:"progress"`
	CourseCompleted bool         `json:"course_completed"`
	AlreadyDone     bool         `json:"already_done"`
}
