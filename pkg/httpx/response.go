package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxJSONBytes bounds request bodies decoded by DecodeJSON.
const maxJSONBytes = 1 << 20

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Every response that may carry a token or identity uses it.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// DecodeJSON decodes a single JSON object from the request body into v.
// Unknown fields and trailing data are rejected. The returned error is an
// *Error ready to be written.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) *Error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrPayloadTooLarge
		}
		return ErrInvalidRequest.WithDescription("Malformed JSON body.")
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		return ErrInvalidRequest.WithDescription("Body must contain a single JSON object.")
	}
	return nil
}
