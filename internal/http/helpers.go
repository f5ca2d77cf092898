package http

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"cashboard/internal/core"
	"cashboard/internal/log"
)

const maxFieldLength = 200

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// sanitizeInput trims, strips control characters and caps the length of a
// form field.
func sanitizeInput(s string) string {
	s = controlChars.ReplaceAllString(strings.TrimSpace(s), "")
	if utf8.RuneCountInString(s) > maxFieldLength {
		r := []rune(s)
		s = string(r[:maxFieldLength])
	}
	return s
}

// formValue returns the sanitized value of a posted form field.
func formValue(r *http.Request, key string) string {
	return sanitizeInput(r.FormValue(key))
}

// optionalFormValue returns nil for an empty field.
func optionalFormValue(r *http.Request, key string) *string {
	v := formValue(r, key)
	if v == "" {
		return nil
	}
	return &v
}

// pathInt64 parses a numeric route parameter.
func pathInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &core.ValidationError{Field: name, Err: errors.New("must be a number")}
	}
	return id, nil
}

// userMessage renders an error for display in a notification.
func userMessage(err error) string {
	switch core.Kind(err) {
	case core.KindValidation:
		return err.Error()
	case core.KindTransport:
		return "The finance service could not be reached: " + err.Error()
	case core.KindSerialization:
		return "The data could not be encoded: " + err.Error()
	default:
		return "Something went wrong: " + err.Error()
	}
}

// statusFor maps an error kind to the status of an HTMX error response.
func statusFor(err error) int {
	switch core.Kind(err) {
	case core.KindValidation:
		return http.StatusUnprocessableEntity
	case core.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorType maps an error kind to the log taxonomy.
func errorType(err error) string {
	switch core.Kind(err) {
	case core.KindValidation:
		return log.ErrorTypeValidation
	case core.KindTransport:
		return log.ErrorTypeNetwork
	case core.KindSerialization:
		return log.ErrorTypeSerialization
	default:
		return log.ErrorTypeInternal
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// reqLog returns the request-scoped logger, which carries the request ID.
func (s *Server) reqLog(r *http.Request) *log.Logger {
	return log.FromContext(r.Context(), s.logger)
}
