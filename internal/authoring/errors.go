package authoring

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrItemNotFound       = errors.New("content item not found")
	ErrNotQuiz            = errors.New("content item is not a quiz")
	ErrFieldNotApplicable = errors.New("field not applicable to content kind")
	ErrDraftClosed        = errors.New("draft is closed")
	ErrTemplateNotAllowed = errors.New("template can only be applied to an empty draft")
	ErrUnknownTemplate    = errors.New("unknown course template")
	ErrCourseNotEligible  = errors.New("course not eligible")
	ErrInvalidColor       = errors.New("unknown badge color")
	ErrTabNotPermitted    = errors.New("dashboard tab not permitted")
	ErrIndexOutOfRange    = errors.New("index out of range")
)

// IndexError reports a position outside the current bounds of a list.
type IndexError struct {
	Name  string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0,%d)", e.Name, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// ValidationError names the fields that must be filled before a draft can be saved.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}
