package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/roomhub/identity-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid client maps to 401",
			err:        domain.ErrInvalidClientCredentials,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_client",
		},
		{
			name:       "invalid grant maps to 400",
			err:        domain.ErrInvalidAuthorizationCode,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_grant",
		},
		{
			name:       "not found maps to 404",
			err:        domain.ErrLinkNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "conflict maps to 409",
			err:        domain.ErrAccountAlreadyLinked,
			wantStatus: http.StatusConflict,
			wantCode:   "conflict",
		},
		{
			name:       "internal error maps to 500",
			err:        domain.ErrInternal,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "server_error",
		},
		{
			name:       "plain error is masked as internal",
			err:        errors.New("pg: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "server_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondWithError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			resp := decodeResponse(t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestRespondWithErrorMasksCause(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, errors.New("dial tcp 10.0.0.1:5432: i/o timeout"))

	resp := decodeResponse(t, rec)
	assert.Equal(t, "Internal server error", resp.Message)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}

func TestUnauthorizedSetsChallengeHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, domain.ErrInvalidClientCredentials)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestValidationErrors(t *testing.T) {
	var v ValidationErrors
	assert.False(t, v.HasErrors())

	v.Add("client_id", "client_id is required")
	v.Add("redirect_uri", "redirect_uri is required")
	require.True(t, v.HasErrors())

	rec := httptest.NewRecorder()
	v.Respond(rec)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "invalid_request", resp.Code)
	require.Len(t, resp.Details, 2)
	assert.Equal(t, "client_id", resp.Details[0].Field)
}
