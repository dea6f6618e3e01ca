package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Outcome classifies one provider attempt.
type Outcome string

const (
	OutcomeSuccess             Outcome = "success"
	OutcomeSkippedDisabled     Outcome = "skipped-disabled"
	OutcomeSkippedNoCredential Outcome = "skipped-no-credential"
	OutcomeTransportError      Outcome = "transport-error"
	OutcomeInvalidResponse     Outcome = "invalid-response"
	OutcomeHTTPError           Outcome = "http-error"
	OutcomeRejected            Outcome = "rejected"
)

// ErrInvalidResponse is returned when a 2xx reply lacks the answer field.
var ErrInvalidResponse = errors.New("invalid provider response")

// HTTPError is a non-2xx reply from a provider.
type HTTPError struct {
	Provider   string
	StatusCode int
	// Type is the vendor's error type or status, e.g. "insufficient_quota".
	Type string
	Body string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	if e.Type != "" {
		msg += " (" + e.Type + ")"
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Classify maps a provider error to an attempt outcome.
func Classify(err error) Outcome {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &httpErr):
		return OutcomeHTTPError
	case errors.Is(err, ErrInvalidResponse):
		return OutcomeInvalidResponse
	case errors.Is(err, ErrRejected):
		return OutcomeRejected
	default:
		return OutcomeTransportError
	}
}

const bodyPreviewLen = 500

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= bodyPreviewLen {
		return s
	}
	return s[:bodyPreviewLen] + "..."
}

// checkStatus returns an *HTTPError for non-2xx responses, extracting the
// vendor error type from common JSON error envelopes.
func checkStatus(provider string, resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &HTTPError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Type:       errorType(body),
		Body:       preview(string(body)),
	}
}

// errorType reads error.type, error.code or error.status from the body.
func errorType(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Error) == 0 {
		return ""
	}
	var detail struct {
		Type   string `json:"type"`
		Code   any    `json:"code"`
		Status string `json:"status"`
	}
	if json.Unmarshal(envelope.Error, &detail) != nil {
		return ""
	}
	if detail.Type != "" {
		return detail.Type
	}
	if code, ok := detail.Code.(string); ok && code != "" {
		return code
	}
	return detail.Status
}
