// internal/handler/respond.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
)

const maxBodyBytes = 1 << 20

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Pagination any    `json:"pagination,omitempty"`
	Error      string `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paged writes the {data, pagination} list shape.
func Paged(w http.ResponseWriter, data, pagination any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: pagination})
}

// Fail maps err to a status code. Internal errors are logged and their text
// is not sent to the client.
func Fail(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := appErrors.HTTPStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		msg = http.StatusText(status)
	}
	WriteJSON(w, status, Envelope{Success: false, Error: msg})
}

// DecodeJSON reads at most 1 MiB of JSON into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return appErrors.NewValidation("body", "is required")
		}
		return appErrors.NewValidation("body", "invalid JSON: "+err.Error())
	}
	return nil
}

// IDParam parses a positive integer chi URL parameter.
func IDParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, appErrors.NewValidation(name, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// QueryInt returns def when the query value is missing or malformed.
func QueryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}
