package apierror

import "errors"

// Error carries a NormalizedError through error returns.
type Error struct {
	NormalizedError
}

func (e *Error) Error() string {
	return e.Summary
}

// Text renders any error as user-facing text.
func Text(err error) string {
	if err == nil {
		return "Error desconocido"
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Summary
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Error"
}
