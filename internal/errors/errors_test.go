package appErrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NewRewardNotFound(3), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", NewCampaignNotFound(1)), http.StatusNotFound},
		{"validation", NewValidation("title", "is required"), http.StatusBadRequest},
		{"conflict", NewConflict("reward %d has pledges", 2), http.StatusConflict},
		{"sold out", fmt.Errorf("checkout: %w", ErrSoldOut), http.StatusConflict},
		{"signature", ErrSignatureInvalid, http.StatusUnauthorized},
		{"closed", ErrCampaignClosed, http.StatusGone},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "campaign with ID 7 not found", NewCampaignNotFound(7).Error())
	assert.Equal(t, "creator not found", NewNotFound("creator", nil).Error())
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", NewFAQNotFound(1))))
	assert.False(t, IsNotFound(errors.New("x")))
}
