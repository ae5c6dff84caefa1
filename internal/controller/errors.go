package controller

import (
	"errors"
	"net/http"

	"sports_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// handleServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unrecognized is an internal failure: logged, surfaced as a bare
// 500 with no storage details.
func handleServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrAnswerNotFound),
		errors.Is(err, util.ErrMediaNotFound),
		errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAttemptCompleted),
		errors.Is(err, util.ErrQuizLocked),
		errors.Is(err, util.ErrAnswerNotPending):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidPayload):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrQuizNotPublished),
		errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrEmailRegistered):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
