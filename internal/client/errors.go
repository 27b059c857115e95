package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrTransport covers network failures and responses that are not JSON.
	ErrTransport = errors.New("transport error")
	// ErrSessionExpired is returned when the refresh token was rejected. The
	// stored credentials are cleared and the user has to log in again.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// APIError is a non-2xx response carrying a field error map.
type APIError struct {
	Status  int
	Fields  map[string][]string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return e.Message
}

// Field returns the messages reported for one field.
func (e *APIError) Field(name string) []string {
	return e.Fields[name]
}

func newAPIError(status int, body []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("%w: status %d with non-JSON body", ErrTransport, status)
	}
	fields := make(map[string][]string, len(raw))
	collectFields(fields, "", raw)
	return &APIError{Status: status, Fields: fields, Message: FlattenFields(fields)}
}

func collectFields(dst map[string][]string, prefix string, raw map[string]any) {
	for key, value := range raw {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			collectFields(dst, name, v)
		case []any:
			for _, item := range v {
				if nested, ok := item.(map[string]any); ok {
					collectFields(dst, name, nested)
					continue
				}
				dst[name] = append(dst[name], messageText(item))
			}
		default:
			dst[name] = append(dst[name], messageText(v))
		}
	}
}

func messageText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// FlattenFields renders a field map as "field: msg1, msg2" lines, keys
// sorted, joined by newlines.
func FlattenFields(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+strings.Join(fields[k], ", "))
	}
	return strings.Join(lines, "\n")
}
