package professor

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/services/identity"
	authutil "github.com/usched/usched-api/utils/auth"
	"github.com/usched/usched-api/utils/response"
	"github.com/usched/usched-api/utils/validation"
)

// IdentityError writes the response for an error returned by the identity
// service. action names the operation in the 500 message.
func IdentityError(c *fiber.Ctx, err error, action string) error {
	var missing *validation.MissingFieldsError
	var invalid *validation.FieldError

	switch {
	case errors.As(err, &missing):
		return response.MissingFields(c, missing.Fields)
	case errors.As(err, &invalid):
		return response.ValidationError(c, invalid)
	case errors.Is(err, authutil.ErrPasswordTooShort):
		return response.BadRequest(c, "Password must be at least 8 characters long.")
	case errors.Is(err, identity.ErrUnknownCollege):
		return response.BadRequest(c, "College does not exist.")
	case errors.Is(err, identity.ErrInvalidPosition):
		return response.BadRequest(c, "Position must be Dean or Chair.")
	case errors.Is(err, identity.ErrNotFound):
		return response.NotFound(c, "Record not found.")
	case errors.Is(err, identity.ErrEmailTaken):
		return response.Conflict(c, "Email is already in use.")
	case errors.Is(err, identity.ErrMailFailed):
		return response.BadGateway(c, "The account was updated but the email could not be sent.")
	}

	slog.Error(action+" failed", "error", err)
	return response.ErrorWithDetails(c, fiber.StatusInternalServerError,
		"Failed to "+action, "INTERNAL_ERROR", err.Error())
}
