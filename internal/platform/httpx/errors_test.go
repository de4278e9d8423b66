package httpx

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storyweave/storyweave/internal/policy"
)

func TestRespondErrorPolicyMapping(t *testing.T) {
	cases := []struct {
		reason policy.Reason
		status int
	}{
		{policy.ReasonSovereigntyViolation, http.StatusForbidden},
		{policy.ReasonCommunityMismatch, http.StatusForbidden},
		{policy.ReasonRoleInsufficient, http.StatusForbidden},
		{policy.ReasonElderContentProtected, http.StatusForbidden},
		{policy.ReasonMalformedInput, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		err := &policy.DeniedError{Decision: policy.Decision{Outcome: policy.OutcomeDeny, Reason: tc.reason}}
		RespondError(rec, err)
		assert.Equal(t, tc.status, rec.Code, "reason %s", tc.reason)
		assert.Contains(t, rec.Body.String(), string(tc.reason))
	}
}

func TestRespondErrorWrappedPolicyDenial(t *testing.T) {
	rec := httptest.NewRecorder()
	inner := &policy.DeniedError{Decision: policy.Decision{Outcome: policy.OutcomeDeny, Reason: policy.ReasonCommunityMismatch}}
	RespondError(rec, fmt.Errorf("update story: %w", inner))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRespondErrorSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrDuplicate, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code)
	}
}
