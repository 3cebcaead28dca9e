package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	customError "github.com/finlend/origination-engine/pkg/errors"
	"github.com/finlend/origination-engine/pkg/response"

	"github.com/go-playground/validator/v10"
)

// decodeAndValidate decodes the JSON body into dest and runs struct-tag
// validation. A false return means a response was already written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return false
	}

	if err := v.Struct(dest); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			response.BadRequest(w, "invalid request body", err)
			return false
		}

		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fmt.Sprintf("failed %s validation", fe.Tag())
			}
		}
		response.ValidationFailed(w, "request validation failed", fields)
		return false
	}

	return true
}

// respondError maps the service error taxonomy onto HTTP statuses:
// validation → 400, not-found → 404, everything else → retryable 503.
func respondError(w http.ResponseWriter, err error) {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		switch {
		case be.Code == customError.ErrCodeValidation:
			response.ValidationFailed(w, be.Message, be.Fields)
		case customError.IsNotFound(be):
			response.NotFound(w, be.Message)
		case customError.IsValidation(be):
			response.BadRequest(w, be.Message, be.Err)
		default:
			response.ServiceUnavailable(w, be.Message, be.Err)
		}
		return
	}

	response.InternalServerError(w, "unexpected error", err)
}
