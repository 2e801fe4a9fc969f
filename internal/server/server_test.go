package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capscout/internal/history"
	"capscout/internal/orchestrator"
)

type fakeRunner struct {
	result orchestrator.RunResult
}

func (f *fakeRunner) Run(ctx context.Context) orchestrator.RunResult { return f.result }

type fakeDataset struct {
	path string
}

func (f *fakeDataset) Exists() (bool, time.Time) {
	info, err := os.Stat(f.path)
	if err != nil {
		return false, time.Time{}
	}
	return true, info.ModTime()
}

func (f *fakeDataset) Path() string { return f.path }

type fakeHistory struct {
	last    history.Entry
	ok      bool
	entries []history.Entry
}

func (f *fakeHistory) Last(ctx context.Context) (history.Entry, bool, error) {
	return f.last, f.ok, nil
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func newTestServer(t *testing.T, runner *fakeRunner, ds *fakeDataset, hist History) *httptest.Server {
	t.Helper()
	next := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(New(runner, ds, hist, func() time.Time { return next }, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusWithoutDataset(t *testing.T) {
	ds := &fakeDataset{path: filepath.Join(t.TempDir(), "missing.csv")}
	srv := newTestServer(t, &fakeRunner{}, ds, nil)

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["dataset_exists"])
	assert.NotEmpty(t, body["next_run"])
	assert.NotContains(t, body, "last_run")
}

func TestStatusWithDatasetAndHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocks.csv")
	require.NoError(t, os.WriteFile(path, []byte("Ticker\n"), 0644))

	hist := &fakeHistory{
		last: history.Entry{RunID: "run-9", Success: true, Records: 4},
		ok:   true,
	}
	srv := newTestServer(t, &fakeRunner{}, &fakeDataset{path: path}, hist)

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		DatasetExists bool           `json:"dataset_exists"`
		LastRun       *history.Entry `json:"last_run"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.DatasetExists)
	require.NotNil(t, body.LastRun)
	assert.Equal(t, "run-9", body.LastRun.RunID)
}

func TestRunEndpointReturnsResultVerbatim(t *testing.T) {
	runner := &fakeRunner{result: orchestrator.RunResult{
		RunID: "run-1", Success: false, Error: "query timeout: answer region did not populate before timeout",
	}}
	ds := &fakeDataset{path: filepath.Join(t.TempDir(), "missing.csv")}
	srv := newTestServer(t, runner, ds, nil)

	resp, err := http.Post(srv.URL+"/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "failed runs still return 200 with the reason in the body")

	var result orchestrator.RunResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "query timeout")
}

func TestRunEndpointConflictWhenRunInProgress(t *testing.T) {
	runner := &fakeRunner{result: orchestrator.RunResult{
		Success: false, Error: orchestrator.ErrRunInProgress.Error(),
	}}
	ds := &fakeDataset{path: filepath.Join(t.TempDir(), "missing.csv")}
	srv := newTestServer(t, runner, ds, nil)

	resp, err := http.Post(srv.URL+"/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHistoryEndpoint(t *testing.T) {
	hist := &fakeHistory{entries: []history.Entry{
		{RunID: "run-2", Success: true, Records: 3},
		{RunID: "run-1", Success: false, Error: "no records extracted"},
	}}
	ds := &fakeDataset{path: filepath.Join(t.TempDir(), "missing.csv")}
	srv := newTestServer(t, &fakeRunner{}, ds, hist)

	resp, err := http.Get(srv.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []history.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "run-2", entries[0].RunID)
	assert.Equal(t, "run-1", entries[1].RunID)
}

func TestHistoryEndpointWithoutStore(t *testing.T) {
	ds := &fakeDataset{path: filepath.Join(t.TempDir(), "missing.csv")}
	srv := newTestServer(t, &fakeRunner{}, ds, nil)

	resp, err := http.Get(srv.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []history.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Empty(t, entries)
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stocks.csv")
	ds := &fakeDataset{path: path}
	srv := newTestServer(t, &fakeRunner{}, ds, nil)

	resp, err := http.Get(srv.URL + "/download")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, os.WriteFile(path, []byte("Ticker,Company Name,Market Cap,Extracted At\n"), 0644))

	resp, err = http.Get(srv.URL + "/download")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
}
