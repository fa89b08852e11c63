package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestCSV(t *testing.T, titles ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Title,Authors,Year,Abstract\n")
	for _, title := range titles {
		b.WriteString(`"` + title + `",Doe J.,2024,An abstract.` + "\n")
	}
	path := filepath.Join(t.TempDir(), "papers.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// newTestServer builds a dataset-only server with the given titles loaded.
func newTestServer(t *testing.T, titles ...string) (*Server, http.Handler) {
	t.Helper()
	s := New(nil, writeTestCSV(t, titles...))
	h := s.Router()

	rec := doRequest(t, h, http.MethodGet, "/api/load", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	return s, h
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := New(nil, "")
	rec := doRequest(t, s.Router(), http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestLoad_ReportsTotalAndColumns(t *testing.T) {
	_, h := newTestServer(t, "EEG wearables", "Sleep tracking")

	rec := doRequest(t, h, http.MethodGet, "/api/load", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["total"])
	assert.Len(t, body["columns"], len(displayColumns))
}

func TestLoad_MissingDataset(t *testing.T) {
	s := New(nil, filepath.Join(t.TempDir(), "absent.csv"))
	rec := doRequest(t, s.Router(), http.MethodGet, "/api/load", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["error"])
}

func TestFilter_NarrowsView(t *testing.T) {
	_, h := newTestServer(t,
		"EEG headset validation study",
		"Pharmacological drug trial",
		"Wearable eye tracking glasses",
	)

	rec := doRequest(t, h, http.MethodPost, "/api/filter", map[string]any{
		"include_keywords": []string{"EEG", "eye"},
		"exclude_keywords": []string{"drug"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["matched"])
}

func TestResetFilter_RestoresFullView(t *testing.T) {
	_, h := newTestServer(t, "EEG one", "Something else")

	rec := doRequest(t, h, http.MethodPost, "/api/filter", map[string]any{
		"include_keywords": []string{"EEG"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["matched"])

	rec = doRequest(t, h, http.MethodPost, "/api/reset", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["matched"])
}

func TestPreview_PagingAndSearch(t *testing.T) {
	_, h := newTestServer(t, "Alpha study", "Beta study", "Gamma review")

	rec := doRequest(t, h, http.MethodGet, "/api/preview?page=1&per_page=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 3, body["total"])
	assert.Len(t, body["papers"], 2)

	rec = doRequest(t, h, http.MethodGet, "/api/preview?search=study", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.EqualValues(t, 2, body["total"])

	rec = doRequest(t, h, http.MethodGet, "/api/preview?page=99", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["papers"], 0)
}

func TestWordFrequencies(t *testing.T) {
	_, h := newTestServer(t, "EEG signal EEG", "the EEG device")

	rec := doRequest(t, h, http.MethodGet, "/api/word_frequencies?top_n=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		WordFrequencies []struct {
			Word  string `json:"word"`
			Count int    `json:"count"`
		} `json:"word_frequencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.WordFrequencies, 1)
	assert.Equal(t, "eeg", body.WordFrequencies[0].Word)
	assert.Equal(t, 3, body.WordFrequencies[0].Count)
}

func TestExport_CSVAttachment(t *testing.T) {
	_, h := newTestServer(t, "Alpha study", "Beta study")

	rec := doRequest(t, h, http.MethodGet, "/api/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "filtered_papers.csv")
	assert.Contains(t, rec.Body.String(), "Alpha study")
	assert.Contains(t, rec.Body.String(), "Beta study")
}

func TestRemoveRows(t *testing.T) {
	_, h := newTestServer(t, "A", "B", "C")

	rec := doRequest(t, h, http.MethodPost, "/api/remove_rows", map[string]any{
		"indices": []int{0, 2, 99},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["removed"])
	assert.EqualValues(t, 1, body["remaining"])

	rec = doRequest(t, h, http.MethodGet, "/api/preview", nil, "")
	preview := decodeBody(t, rec)
	assert.EqualValues(t, 1, preview["total"])
}

func TestLogin_RequiresStore(t *testing.T) {
	s := New(nil, "")
	rec := doRequest(t, s.Router(), http.MethodPost, "/api/login", map[string]string{
		"username": "alex", "password": "secret",
	}, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
