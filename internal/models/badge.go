package models

import "time"

// Badge is awarded to learners who complete all of its courses.
type Badge struct {
	ID             string        `db:"id" json:"id"`
	Key            string        `db:"key" json:"key"`
	Name           string        `db:"name" json:"name"`
	Description    string        `db:"description" json:"description"`
	Icon           string        `db:"icon" json:"icon"`
	Color          string        `db:"color" json:"color"`
	Status         PublishStatus `db:"status" json:"status"`
	CreatedBy      *string       `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	StudentsEarned int           `db:"students_earned" json:"students_earned"`
	CourseIDs      []string      `db:"-" json:"course_ids"`
}

// UserBadge records an award.
type UserBadge struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	BadgeID   string    `db:"badge_id" json:"badge_id"`
	AwardedAt time.Time `db:"awarded_at" json:"awarded_at"`
}

// LearnerBadge is a published badge seen by a learner.
type LearnerBadge struct {
	Badge
	Earned    bool       `json:"earned"`
	AwardedAt *time.Time `json:"awarded_at,omitempty"`
}

// BadgeCourse links a badge to one of its courses.
type BadgeCourse struct {
	BadgeID  string `db:"badge_id"`
	CourseID string `db:"course_id"`
	Position int    `db:"position"`
}

// DashboardStats are the headline counts on the admin dashboard.
type DashboardStats struct {
	Learners         int `db:"learners" json:"learners"`
	Courses          int `db:"courses" json:"courses"`
	PublishedCourses int `db:"published_courses" json:"published_courses"`
	Badges           int `db:"badges" json:"badges"`
	BadgesAwarded    int `db:"badges_awarded" json:"badges_awarded"`
}
