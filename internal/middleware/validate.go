package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/ayush/habit-tracker/backend/internal/response"
	"github.com/ayush/habit-tracker/backend/internal/validation"
)

const maxBodyBytes = 1 << 20

var badBodyErrors = []response.FieldError{{Field: "body", Message: "Request body must be a JSON object"}}

// Validate checks the JSON body against rules before anything else runs.
// An empty body counts as {}. The body is restored so handlers can decode
// it again.
func Validate(rules []validation.Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				response.ValidationFailed(w, badBodyErrors)
				return
			}

			if len(bytes.TrimSpace(raw)) == 0 {
				raw = []byte("{}")
			}
			var body map[string]any
			if err := json.Unmarshal(raw, &body); err != nil || body == nil {
				response.ValidationFailed(w, badBodyErrors)
				return
			}

			if errs := validation.Validate(body, rules); len(errs) > 0 {
				response.ValidationFailed(w, errs)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(raw))
			next.ServeHTTP(w, r)
		})
	}
}

// ValidateQuery checks URL query parameters; each present parameter is
// validated as a string value.
func ValidateQuery(rules []validation.Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := map[string]any{}
			for key, values := range r.URL.Query() {
				if len(values) > 0 {
					query[key] = values[0]
				}
			}
			if errs := validation.Validate(query, rules); len(errs) > 0 {
				response.ValidationFailed(w, errs)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
