package fred

import (
	"encoding/json"
	"net/http"
)

// errorBody is the JSON body FRED sends with a non-2xx status.
type errorBody struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// errorMessage extracts error_message from an upstream error body, falling
// back to the HTTP status text.
func errorMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.ErrorMessage != "" {
		return eb.ErrorMessage
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unexpected status"
}
