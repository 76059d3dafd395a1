package apiclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx reply from the provider.
type APIError struct {
	Status  int
	Code    string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return fmt.Sprintf("provider api error: status=%d code=%s message=%s", e.Status, e.Code, msg)
}

// ParseAPIError reads both the nested {"error":{"code","message"}} shape and
// the flat {"code","message"} shape.
func ParseAPIError(status int, body []byte) *APIError {
	out := &APIError{Status: status, Body: string(body)}

	var m map[string]any
	if json.Unmarshal(body, &m) != nil {
		return out
	}
	if nested, ok := m["error"].(map[string]any); ok {
		m = nested
	}
	if v, ok := m["code"]; ok && v != nil {
		out.Code = fmt.Sprint(v)
	}
	if v, ok := m["message"].(string); ok {
		out.Message = v
	}
	return out
}
