package bot

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when the platform reports success but the response
// carries none of the expected data.
var ErrNoData = errors.New("lark API returned no data")

// APIError is a failure reported by the Open Platform in the response body.
type APIError struct {
	Op        string
	Code      int
	Msg       string
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: lark API failed: code=%d msg=%s request_id=%s", e.Op, e.Code, e.Msg, e.RequestID)
}

// IsAPIError reports whether err carries an APIError with the given code.
func IsAPIError(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
