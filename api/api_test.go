package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrgg/patchfeed/pipeline"
	"github.com/wrgg/patchfeed/store"
)

// Test helper: create a store with a couple of patches worth of data
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.Reconcile(
		[]string{"Ahri", "Garen"},
		[]store.Patch{
			{Name: "Patch 5.1", Link: "https://example.com/news/patch-5-1/"},
			{Name: "Patch 5.2", Link: "https://example.com/news/patch-5-2/"},
		},
		[]store.Change{
			{ChampionName: "Ahri", PatchName: "Patch 5.1", AbilityTitle: "Charm", ChangeDetails: "Cooldown increased."},
			{ChampionName: "Garen", PatchName: "Patch 5.2", AbilityTitle: "Judgment", ChangeDetails: "Spin speed increased."},
		},
	)
	require.NoError(t, err)
	return s
}

// fakeUpdater satisfies UpdateRunner without any network traffic.
type fakeUpdater struct {
	result *pipeline.Result
	err    error
	runs   int
}

func (f *fakeUpdater) Run(ctx context.Context) (*pipeline.Result, error) {
	f.runs++
	return f.result, f.err
}

func doRequest(t *testing.T, server *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	server.Handler().ServeHTTP(rec, req)
	return rec
}

// TestHandleChampions verifies the champion listing endpoint
func TestHandleChampions(t *testing.T) {
	server := NewServer(setupTestStore(t), nil)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/champions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ChampionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "Ahri", resp.Champions[0].Name, "champions sorted by name")
}

// TestHandlePatches verifies patches come back oldest first
func TestHandlePatches(t *testing.T) {
	server := NewServer(setupTestStore(t), nil)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/patches")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PatchesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "Patch 5.1", resp.Patches[0].Name)
	assert.Equal(t, "Patch 5.2", resp.Patches[1].Name)
}

// TestHandleChanges verifies the filter query parameters
func TestHandleChanges(t *testing.T) {
	server := NewServer(setupTestStore(t), nil)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "unfiltered", target: "/api/v1/changes", want: 2},
		{name: "by champion", target: "/api/v1/changes?champion=Ahri", want: 1},
		{name: "by patch", target: "/api/v1/changes?patch=Patch+5.2", want: 1},
		{name: "both filters", target: "/api/v1/changes?champion=Ahri&patch=Patch+5.2", want: 0},
		{name: "unknown champion", target: "/api/v1/changes?champion=Teemo", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, server, http.MethodGet, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp ChangesResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Total)
			assert.NotNil(t, resp.Changes, "empty result is a JSON array, not null")
		})
	}
}

// TestHandleUpdate verifies a successful pipeline run is reported
func TestHandleUpdate(t *testing.T) {
	updater := &fakeUpdater{
		result: &pipeline.Result{
			PatchesDiscovered: 3,
			PatchesNew:        1,
			Inserted:          store.Counts{Patches: 1, Changes: 4},
		},
	}
	server := NewServer(setupTestStore(t), updater)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/update")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, updater.runs)

	var resp UpdateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 1, resp.Result.PatchesNew)
}

// TestHandleUpdate_Failure verifies a pipeline failure maps to 502
func TestHandleUpdate_Failure(t *testing.T) {
	updater := &fakeUpdater{err: errors.New("listing unreachable")}
	server := NewServer(setupTestStore(t), updater)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/update")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "update_failed", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "listing unreachable")
}

// TestHandleUpdate_NoUpdater verifies a read-only server rejects updates
func TestHandleUpdate_NoUpdater(t *testing.T) {
	server := NewServer(setupTestStore(t), nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/update")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "update_unavailable", resp.Error.Code)
}

// TestHandleStatus verifies table counts are reported
func TestHandleStatus(t *testing.T) {
	server := NewServer(setupTestStore(t), nil)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, store.Counts{Champions: 2, Patches: 2, Changes: 2}, resp.Counts)
	assert.NotEmpty(t, resp.Database)
}

// TestMethodNotAllowed verifies wrong-method requests are rejected uniformly
func TestMethodNotAllowed(t *testing.T) {
	server := NewServer(setupTestStore(t), &fakeUpdater{})

	tests := []struct {
		method string
		target string
	}{
		{http.MethodPost, "/api/v1/champions"},
		{http.MethodPost, "/api/v1/patches"},
		{http.MethodDelete, "/api/v1/changes"},
		{http.MethodGet, "/api/v1/update"},
	}

	for _, tt := range tests {
		rec := doRequest(t, server, tt.method, tt.target)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tt.method, tt.target)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "method_not_allowed", resp.Error.Code)
	}
}

// TestCORS verifies headers and preflight handling
func TestCORS(t *testing.T) {
	server := NewServer(setupTestStore(t), nil)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/champions")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	preflight := doRequest(t, server, http.MethodOptions, "/api/v1/update")
	assert.Equal(t, http.StatusOK, preflight.Code)
	assert.Equal(t, "GET, POST, OPTIONS", preflight.Header().Get("Access-Control-Allow-Methods"))
}
