package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jdholdren/murmur/internal/murmur"
)

// Error represents a universal error type between the services.
type Error struct {
	Status  int
	Err     error // The error this wraps
	Details []Detail
}

type Detail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s, details: %v", e.Status, e.Err, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type transport struct {
	Message string   `json:"message"`
	Details []Detail `json:"details"`
	Status  int      `json:"status"`
}

func (s *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(transport{
		Message: s.Err.Error(),
		Details: s.Details,
		Status:  s.Status,
	})
}

func (s *Error) UnmarshalJSON(byts []byte) error {
	t := transport{}
	if err := json.Unmarshal(byts, &t); err != nil {
		return err
	}

	s.Err = errors.New(t.Message)
	s.Details = t.Details
	s.Status = t.Status
	return nil
}

func E(args ...any) *Error {
	ret := &Error{
		Status:  http.StatusInternalServerError,
		Err:     nil,
		Details: nil,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case int:
			ret.Status = arg
		case Detail:
			ret.Details = append(ret.Details, arg)
		case []Detail:
			ret.Details = append(ret.Details, arg...)
		}
	}

	return ret
}

// FromCore turns an error from the core packages into one with a status.
//
// Storage failures and corruption keep their detail out of the response.
func FromCore(err error) *Error {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr
	}

	switch {
	case errors.Is(err, murmur.ErrNotFound):
		return E(err, http.StatusNotFound)
	case errors.Is(err, murmur.ErrInvalidArgument):
		return E(err, http.StatusBadRequest)
	default:
		return E("internal server error", http.StatusInternalServerError)
	}
}
