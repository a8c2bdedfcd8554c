package service

import (
	"errors"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/models"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
)

// ActorFromClaims converts token claims into the actor the dashboard is built for.
func ActorFromClaims(claims *models.JWTClaims) authoring.Actor {
	if claims == nil {
		return authoring.Actor{}
	}
	return authoring.Actor{UserID: claims.UserID, Name: claims.DisplayName, Role: claims.Role}
}

// authorize builds the dashboard for actor and checks that tab is open to it.
func authorize(actor authoring.Actor, tab authoring.Tab) (*authoring.Dashboard, error) {
	if !actor.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role")
	}
	dashboard := authoring.NewDashboard(actor)
	if err := dashboard.Authorize(tab); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "insufficient permissions")
	}
	return dashboard, nil
}

// mapAuthoringError translates authoring errors into API errors.
func mapAuthoringError(err error) error {
	if err == nil {
		return nil
	}
	var validation *authoring.ValidationError
	switch {
	case errors.As(err, &validation):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validation.Error())
	case errors.Is(err, authoring.ErrIndexOutOfRange):
		return appErrors.Wrap(err, appErrors.ErrIndexOutOfRange.Code, appErrors.ErrIndexOutOfRange.Status, err.Error())
	case errors.Is(err, authoring.ErrCourseNotEligible):
		return appErrors.Wrap(err, appErrors.ErrCourseNotEligible.Code, appErrors.ErrCourseNotEligible.Status, err.Error())
	case errors.Is(err, authoring.ErrFieldNotApplicable),
		errors.Is(err, authoring.ErrNotQuiz),
		errors.Is(err, authoring.ErrInvalidColor):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case errors.Is(err, authoring.ErrItemNotFound), errors.Is(err, authoring.ErrUnknownTemplate):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, err.Error())
	case errors.Is(err, authoring.ErrDraftClosed):
		return appErrors.Wrap(err, appErrors.ErrDraftClosed.Code, appErrors.ErrDraftClosed.Status, err.Error())
	case errors.Is(err, authoring.ErrTemplateNotAllowed):
		return appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, err.Error())
	case errors.Is(err, authoring.ErrTabNotPermitted):
		return appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "insufficient permissions")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "authoring operation failed")
}
