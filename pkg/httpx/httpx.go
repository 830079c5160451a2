package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func Respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func Error(w http.ResponseWriter, status int, code, message string) {
	Respond(w, status, ErrorResponse{Error: code, Message: message})
}

// Decode reads a JSON body into dst and runs struct validation on it.
// A non-nil error has already been written to w.
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		Error(w, http.StatusBadRequest, "invalid_body", err.Error())
		return err
	}
	if err := Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			Respond(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_failed",
				Message: "request validation failed",
				Fields:  ValidationFields(verrs),
			})
			return err
		}
		Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return err
	}
	return nil
}

func Validate(v interface{}) error {
	return validate.Struct(v)
}

// ValidationFields maps each failing field to the tag it failed.
func ValidationFields(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return out
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// DateRange reads the required start and end query parameters.
func DateRange(r *http.Request) (time.Time, time.Time, error) {
	start, err := ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end is before start")
	}
	return start, end, nil
}
