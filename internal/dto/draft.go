package dto

import "github.com/noah-isme/fh-academy-api/internal/authoring"

// CourseDraftUpdate patches the course fields of a draft. Omitted fields stay as they are.
type CourseDraftUpdate struct {
	Title           *string `json:"title" validate:"omitempty,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=5000"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,min=0,max=100000"`
}

// ApplyTemplateRequest selects a built-in template for an empty draft.
type ApplyTemplateRequest struct {
	TemplateID string `json:"template_id" validate:"required"`
}

// Selector actions.
const (
	SelectorToggleTemplate  = "template"
	SelectorOpenContentType = "content_type"
)

// SelectorRequest opens or toggles one of the pickers of the course form.
type SelectorRequest struct {
	Selector string `json:"selector" validate:"required,oneof=template content_type"`
}

// AddItemRequest appends an empty content item.
type AddItemRequest struct {
	Type string `json:"type" validate:"required,oneof=video reading quiz"`
}

// MoveRequest moves the element at From to position To.
type MoveRequest struct {
	From *int `json:"from" validate:"required"`
	To   *int `json:"to" validate:"required"`
}

// QuestionInput is a complete quiz question.
type QuestionInput struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

// ItemUpdate patches a content item. video_url only applies to videos and
// questions only to quizzes.
type ItemUpdate struct {
	Title     *string          `json:"title" validate:"omitempty,max=200"`
	Content   *string          `json:"content"`
	Required  *bool            `json:"required"`
	VideoURL  *string          `json:"video_url" validate:"omitempty,max=2048"`
	Questions *[]QuestionInput `json:"questions"`
}

// Patch converts the update into the authoring patch.
func (u ItemUpdate) Patch() authoring.ItemPatch {
	patch := authoring.ItemPatch{Title: u.Title, Body: u.Content, Required: u.Required, VideoURL: u.VideoURL}
	if u.Questions != nil {
		questions := make([]authoring.Question, len(*u.Questions))
		for i, q := range *u.Questions {
			questions[i] = authoring.Question{Text: q.Question, Options: q.Options, CorrectAnswer: q.CorrectAnswer}
		}
		patch.Questions = &questions
	}
	return patch
}

// QuestionUpdate edits one quiz question in place.
type QuestionUpdate struct {
	Question      *string `json:"question"`
	OptionIndex   *int    `json:"option_index" validate:"required_with=OptionText"`
	OptionText    *string `json:"option_text" validate:"required_with=OptionIndex"`
	CorrectAnswer *int    `json:"correct_answer"`
}

// SaveDraftRequest finalizes a draft. Publish makes the result visible to learners.
type SaveDraftRequest struct {
	Publish bool `json:"publish"`
}

// BadgeDraftUpdate patches the badge fields of a draft.
type BadgeDraftUpdate struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Icon        *string `json:"icon" validate:"omitempty,max=16"`
	Color       *string `json:"color"`
}

// AddCourseRequest adds a published course to a badge draft.
type AddCourseRequest struct {
	CourseID string `json:"course_id" validate:"required"`
}
