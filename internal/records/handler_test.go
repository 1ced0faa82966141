package records

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, repo *memRepo, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(nil, NewSource(repo, utcCalendar)).MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestListRecordsPaginates(t *testing.T) {
	repo := &memRepo{sales: []SalesOrder{{ID: 1, OrderNo: "SO-1", Customer: "Shop"}}}
	rr := serve(t, repo, "/records/sales?page=3&limit=20&start=2025-01-01")

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Kind  string       `json:"kind"`
		Page  int          `json:"page"`
		Items []SalesOrder `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "sales", body.Kind)
	assert.Equal(t, 3, body.Page)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "SO-1", body.Items[0].OrderNo)

	require.Len(t, repo.filters, 1)
	assert.Equal(t, 20, repo.filters[0].Limit)
	assert.Equal(t, 40, repo.filters[0].Offset)
	assert.Equal(t, day(2025, 1, 1), repo.filters[0].From)
}

func TestListRecordsRejectsInput(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, serve(t, &memRepo{}, "/records/refunds").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, &memRepo{}, "/records/orders?end=June").Code)
}

func TestListRecordsRepositoryFailure(t *testing.T) {
	rr := serve(t, &memRepo{err: errBoom}, "/records/payments")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
