package handler

import (
	"net/http"

	"github.com/wareflow/wareflow-backend/internal/export/client"
	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/service"
	"github.com/wareflow/wareflow-backend/internal/export/wizard"
	"github.com/wareflow/wareflow-backend/pkg/errors"
)

// remoteResources names the caller-addressed resource behind a remote op.
// A 404 from any other op is an upstream failure, not a missing resource.
var remoteResources = map[string]string{
	"get export":           "export",
	"update export":        "export",
	"delete export":        "export",
	"fetch export details": "export",
}

// toAppError maps service and domain errors onto API errors
func toAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var submitErr *service.SubmitError
	if errors.As(err, &submitErr) {
		e := errors.Wrap(err, "SUBMIT_FAILED", submitErr.Error(), http.StatusBadGateway).
			WithDetail("phase", string(submitErr.Phase))
		if submitErr.ExportID != "" {
			e.WithDetail("export_id", submitErr.ExportID)
		}
		if submitErr.Incomplete() {
			e.WithDetail("incomplete", "true")
		}
		return e
	}

	var headerErr *domain.HeaderError
	if errors.As(err, &headerErr) {
		return errors.Unprocessable("HEADER_VALIDATION_ERROR", "export header is invalid").WithDetails(headerErr.Fields)
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		details := make(map[string]string, len(validationErr.Lines))
		for _, l := range validationErr.Lines {
			details[l.LineID] = l.Err.Error()
		}
		return errors.Unprocessable(domain.Code(validationErr.Lines[0]), validationErr.Error()).WithDetails(details)
	}

	var remoteErr *client.RemoteError
	if errors.As(err, &remoteErr) && remoteErr.NotFound() {
		if resource, ok := remoteResources[remoteErr.Op]; ok {
			return errors.NotFound(resource)
		}
	}

	switch {
	case errors.Is(err, service.ErrDraftNotFound):
		return errors.NotFound("draft")
	case errors.Is(err, service.ErrForeignExport),
		errors.Is(err, service.ErrForeignWarehouse),
		errors.Is(err, service.ErrNoWarehouse):
		return errors.Forbidden(err.Error())
	case errors.Is(err, wizard.ErrUnknownStep):
		return errors.BadRequest(err.Error())
	case errors.Is(err, wizard.ErrAlreadyLast),
		errors.Is(err, wizard.ErrSubmitted),
		errors.Is(err, wizard.ErrNotSubmittable):
		return errors.Conflict(err.Error())
	}

	switch code := domain.Code(err); code {
	case "":
	case "REMOTE_REQUEST_FAILED":
		return errors.BadGateway(code, err.Error())
	case "LINE_NOT_FOUND":
		return errors.Wrap(err, code, err.Error(), http.StatusNotFound)
	default:
		return errors.Unprocessable(code, err.Error())
	}

	return errors.Internal("an unexpected error occurred")
}
