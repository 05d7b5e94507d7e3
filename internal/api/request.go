package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxRequestBody caps JSON request bodies at 1 MB. Alert webhooks carry
// their own limit at the handler since they bypass this decoder.
const maxRequestBody = 1 << 20

// DecodeJSON decodes a JSON request body into dst. Unknown fields are
// rejected, and decode failures come back as messages safe to hand to
// the caller.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return describeDecodeError(err)
	}
	return nil
}

// describeDecodeError rewrites encoding/json errors into caller-facing
// messages that do not leak Go type names or decoder internals.
func describeDecodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var sizeErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return errors.New("request body is required")
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("request body has malformed JSON (at byte %d)", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return errors.New("request body has the wrong JSON type")
		}
		return fmt.Errorf("field %q has the wrong type (want %s)", typeErr.Field, typeErr.Type)
	case errors.As(err, &sizeErr):
		return fmt.Errorf("request body must not exceed %d bytes", maxRequestBody)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return fmt.Errorf("unknown field %s in request body", field)
	}
	return errors.New("request body is not valid JSON")
}
