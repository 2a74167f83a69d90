// Package codec decodes request envelopes and encodes result payloads.
package codec

import (
	"bytes"
	"encoding/json"
	"io"

	"javaexec/internal/sandbox/result"
	appErr "javaexec/pkg/errors"
)

// FallbackPayload is emitted when a result cannot be serialized.
const FallbackPayload = `{"success":false,"output":"","error":"Fatal system error","execution_time":0,"memory_used":0}`

// envelope is the wire shape of a request; pointers distinguish absent fields.
type envelope struct {
	Code  *string `json:"code"`
	Input *string `json:"input"`
}

// marshalResult is replaced in tests to exercise the fallback path.
var marshalResult = func(res result.ExecutionResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a request envelope. Malformed input yields appErr.InvalidJSON,
// a missing or empty code yields appErr.CodeRequired.
func Decode(raw []byte) (result.SubmissionRequest, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return result.SubmissionRequest{}, appErr.Wrapf(err, appErr.InvalidJSON, "%s", appErr.InvalidJSON.Message())
	}
	if env.Code == nil || *env.Code == "" {
		return result.SubmissionRequest{}, appErr.New(appErr.CodeRequired)
	}
	req := result.SubmissionRequest{Code: *env.Code}
	if env.Input != nil {
		req.Stdin = *env.Input
	}
	return req, nil
}

// Encode serializes a result. It never fails: any fault while encoding
// produces FallbackPayload instead.
func Encode(res result.ExecutionResult) (out []byte) {
	defer func() {
		if recover() != nil {
			out = []byte(FallbackPayload)
		}
	}()
	data, err := marshalResult(normalize(res))
	if err != nil || len(data) == 0 {
		return []byte(FallbackPayload)
	}
	return data
}

// Write encodes res followed by a newline.
func Write(w io.Writer, res result.ExecutionResult) error {
	payload := append(Encode(res), '\n')
	_, err := w.Write(payload)
	return err
}

// normalize enforces the schema: non-negative numbers, memory never
// measured, and success exactly when error is empty.
func normalize(res result.ExecutionResult) result.ExecutionResult {
	if res.ExecutionTimeMs < 0 {
		res.ExecutionTimeMs = 0
	}
	res.MemoryUsedMb = 0
	if res.Success && res.Error != "" {
		res.Success = false
	}
	if !res.Success && res.Error == "" {
		res.Error = "Execution failed"
	}
	return res
}
