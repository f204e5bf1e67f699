package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelterdb/internal/handler"
	"shelterdb/internal/model"
	"shelterdb/internal/repository"
	"shelterdb/internal/testing/memdb"
)

func newTestServer(t *testing.T) (*httptest.Server, *memdb.DB) {
	t.Helper()
	db := memdb.NewDB()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.New(context.Background(), db, repository.Config{Logger: log})

	srv := httptest.NewServer(handler.NewRouter(repo, db, log))
	t.Cleanup(srv.Close)
	return srv, db
}

func doJSON(t *testing.T, method, url, body string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestAnimals_CreateReadDelete(t *testing.T) {
	srv, db := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/animals",
		`{"animal_id":"A1","animal_type":"Dog","breed":"Lab"}`,
		map[string]string{"X-Actor": "milly"},
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created model.CreateResult
	require.NoError(t, json.Unmarshal(body, &created))
	assert.True(t, created.OK)
	assert.NotEmpty(t, created.InsertedID)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/animals?animal_type=Dog&limit=1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []model.Record
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "A1", records[0]["animal_id"])

	resp, body = doJSON(t, http.MethodDelete, srv.URL+"/animals",
		`{"filter":{"animal_id":"A1"}}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted model.DeleteResult
	require.NoError(t, json.Unmarshal(body, &deleted))
	assert.EqualValues(t, 1, deleted.Deleted)

	audits := db.Get("audits").All()
	require.Len(t, audits, 2)
	assert.Equal(t, "CREATE", audits[0]["action"])
	assert.Equal(t, "DELETE", audits[1]["action"])
}

func TestAnimals_CreateValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/animals",
		`{"animal_id":"A1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "breed")
}

func TestAnimals_DeleteAllGuard(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodDelete, srv.URL+"/animals", `{"filter":{}}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "refusing to delete all documents")

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/animals",
		`{"filter":{},"delete_all":true}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnimals_Update(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/animals",
		`{"animal_id":"A1","animal_type":"Dog","breed":"Lab"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPatch, srv.URL+"/animals",
		`{"filter":{"animal_id":"A1"},"set":{"name":"Rex"}}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res model.UpdateResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.EqualValues(t, 1, res.Matched)
	assert.EqualValues(t, 1, res.Modified)
}

func TestAnimals_RepeatedFilterParamUsesFirstValue(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/animals",
		`{"animal_id":"A1","animal_type":"Dog","breed":"Lab"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/animals",
		`{"animal_id":"C1","animal_type":"Cat","breed":"Tabby"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet,
		srv.URL+"/animals?animal_type=Dog&animal_type=Cat", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []model.Record
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Dog", records[0]["animal_type"])
}

func TestAnimals_BadLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/animals?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "limit")
}

func TestStatsAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats model.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.EqualValues(t, 0, stats.Count)
	assert.Nil(t, stats.LatestCreatedTimestamp)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
