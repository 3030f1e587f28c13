// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrSignatureInvalid  = errors.New("webhook signature verification failed")
	ErrSoldOut           = errors.New("reward is sold out")
	ErrCampaignClosed    = errors.New("campaign is not accepting pledges")
	ErrDuplicateDelivery = errors.New("webhook delivery already processed")
)

// NotFoundError is returned when a row lookup by id finds nothing.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s with ID %v not found", e.Entity, e.ID)
}

func NewNotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Helper constructors for the common entities
func NewCampaignNotFound(id int) error { return NewNotFound("campaign", id) }
func NewRewardNotFound(id int) error   { return NewNotFound("reward", id) }
func NewFAQNotFound(id int) error      { return NewNotFound("faq item", id) }
func NewUpdateNotFound(id int) error   { return NewNotFound("update", id) }
func NewCommentNotFound(id int) error  { return NewNotFound("comment", id) }
func NewPledgeNotFound(id int) error   { return NewNotFound("pledge", id) }

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// HTTPStatus maps an error to the status code handlers reply with.
func HTTPStatus(err error) int {
	var (
		nf       *NotFoundError
		invalid  *ValidationError
		conflict *ConflictError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &conflict), errors.Is(err, ErrSoldOut):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrSignatureInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, ErrCampaignClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
