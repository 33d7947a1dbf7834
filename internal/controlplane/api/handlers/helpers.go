package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// decodeJSONBody decodes and validates a JSON request body into v. On
// failure it writes the appropriate problem response and returns false.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		BadRequest(w, "validation failed: "+err.Error())
		return false
	}
	return true
}
