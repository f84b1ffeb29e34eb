package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"biolink/internal/pipeline"
)

const (
	maxBodyBytes = 1 << 20
	msgBadBody   = "Invalid request body."
)

// decode reads a JSON body into dst, rejecting unknown fields and bodies
// over maxBodyBytes. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeResult maps a pipeline result onto its HTTP status.
func writeResult(w http.ResponseWriter, res pipeline.Result) {
	writeJSON(w, res.Status(), res)
}

func badBody(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, msgBadBody)
}
