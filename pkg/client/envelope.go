package client

import (
	"encoding/json"
	"errors"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("response body is not valid UTF-8")

// envelope probes the fields that distinguish a failure from a payload.
// The API reports failures as {"success": false, "cause": "..."} and leaves
// the payload fields at the top level on success.
type envelope struct {
	Success *bool   `json:"success"`
	Cause   *string `json:"cause"`
}

// decodeEnvelope unwraps a buffered response body into out. A body is a
// failure when it carries a cause or an explicit "success": false. A non-2xx
// status without a cause is reported as an API error with the status text.
func decodeEnvelope(statusCode int, status string, body []byte, out any) *Error {
	ok := statusCode >= 200 && statusCode < 300

	if !utf8.Valid(body) {
		return &Error{Class: ErrorClassDecode, StatusCode: statusCode, Message: "decode envelope", Err: errInvalidUTF8}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if !ok {
			return &Error{Class: ErrorClassAPI, StatusCode: statusCode, Message: status}
		}
		return &Error{Class: ErrorClassDecode, StatusCode: statusCode, Message: "decode envelope", Err: err}
	}

	if env.Cause != nil {
		return &Error{Class: ErrorClassAPI, StatusCode: statusCode, Message: *env.Cause}
	}
	if !ok || (env.Success != nil && !*env.Success) {
		return &Error{Class: ErrorClassAPI, StatusCode: statusCode, Message: status}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Class: ErrorClassDecode, StatusCode: statusCode, Message: "decode response", Err: err}
	}
	return nil
}
