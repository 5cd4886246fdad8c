package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/information-sharing-networks/zypp-relay/internal/api"
)

// readBody reads the request body, which has already been capped by the RequestSizeLimit middleware.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, api.NewRequestTooLargeError(fmt.Sprintf("request body exceeds maximum allowed size (%d bytes)", maxErr.Limit))
		}
		return nil, api.WrapMalformedRequestError(err, "failed to read request body")
	}
	if len(body) == 0 {
		return nil, api.NewMalformedRequestError("request body is empty")
	}
	return body, nil
}

// decodeJSONBody decodes the request body into v.
func decodeJSONBody(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return api.WrapMalformedRequestError(err, "request body is not valid JSON")
	}
	return nil
}
