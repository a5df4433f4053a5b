package api

import (
	"errors"
	"net/http"

	"github.com/xraph/forge"

	conduit "github.com/xraph/conduit"
	"github.com/xraph/conduit/catalog"
)

// mapError converts conduit sentinel errors to Forge HTTP errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, conduit.ErrEndpointNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, conduit.ErrEventTypeNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, catalog.ErrTypeNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, conduit.ErrEntryNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, conduit.ErrDLQNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, conduit.ErrEventTypeDeprecated):
		return forge.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, conduit.ErrPayloadValidationFailed):
		return forge.BadRequest(err.Error())
	case errors.Is(err, conduit.ErrDuplicateIdempotencyKey):
		return forge.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, conduit.ErrNoIdempotencyStore):
		return forge.NewHTTPError(http.StatusNotImplemented, err.Error())
	case errors.Is(err, conduit.ErrNoStore):
		return forge.InternalError(err)
	case errors.Is(err, conduit.ErrStoreClosed):
		return forge.InternalError(err)
	default:
		return forge.InternalError(err)
	}
}
