package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("settings: %w", ErrNotFound), http.StatusNotFound},
		{ErrDuplicate, http.StatusConflict},
		{fmt.Errorf("wrap: %w", ErrValidation), http.StatusBadRequest},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())

		var p ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
		assert.Equal(t, tc.status, p.Status)
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("password=hunter2"))
	assert.NotContains(t, rr.Body.String(), "hunter2")
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ A int }
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"A":3}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, 3, v.A)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"A":3}{"A":4}`))
	assert.Error(t, DecodeJSON(req, &v))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`nope`))
	assert.Error(t, DecodeJSON(req, &v))
}
