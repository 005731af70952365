package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// problem is an RFC 7807 error body.
type problem struct {
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Status  int      `json:"status"`
	Detail  string   `json:"detail,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	TraceID string   `json:"trace_id,omitempty"`
}

const (
	typeValidation  = "/errors/validation"
	typeNotFound    = "/errors/not-found"
	typeEmptyInput  = "/errors/data/empty"
	typeUnsupported = "/errors/data/unsupported-format"
	typeTooLarge    = "/errors/payload-too-large"
	typeRateLimit   = "/errors/rate-limit"
	typeConflict    = "/errors/conflict"
)

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, typ, detail string) {
	p := problem{
		Type:    typ,
		Title:   http.StatusText(status),
		Status:  status,
		Detail:  detail,
		TraceID: middleware.GetReqID(r.Context()),
	}
	if status >= 500 {
		s.logger.ErrorContext(r.Context(), "request failed", "status", status, "detail", detail, "path", r.URL.Path)
	}
	render.Status(r, status)
	render.JSON(w, r, p)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.fail(w, r, http.StatusNotFound, typeNotFound, "dataset not found")
}

// failValidation renders validator field errors one message per field.
func (s *Server) failValidation(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		s.fail(w, r, http.StatusBadRequest, typeValidation, err.Error())
		return
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldMessage(fe))
	}
	p := problem{
		Type:    typeValidation,
		Title:   http.StatusText(http.StatusBadRequest),
		Status:  http.StatusBadRequest,
		Detail:  strings.Join(fields, "; "),
		Fields:  fields,
		TraceID: middleware.GetReqID(r.Context()),
	}
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, p)
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
