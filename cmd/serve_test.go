package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/company-k/purchasing-cli/internal/config"
	"github.com/company-k/purchasing-cli/internal/docgen"
	"github.com/company-k/purchasing-cli/internal/pipeline"
	"github.com/company-k/purchasing-cli/internal/retrieval"
	"github.com/company-k/purchasing-cli/pkg/anthropic"
)

const serveTestCSV = `SupplierName,ItemCode,ItemName,CurrentStock,WksToOOS,RiskLevel
Acme GmbH,100000,Widget A,520,5.0,HIGH
`

// stubBackend answers every generation call with the same text.
type stubBackend struct {
	text string
	err  error
}

func (s *stubBackend) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &anthropic.MessageResponse{
		Content:    []anthropic.ContentBlock{{Type: "text", Text: s.text}},
		StopReason: "end_turn",
	}, nil
}

func testServeConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Anthropic: config.AnthropicConfig{
			Key:        "test-key",
			Model:      "claude-sonnet-4-5-20250929",
			LightModel: "claude-haiku-4-5-20251001",
			MaxTokens:  4096,
		},
		Retrieval: config.RetrievalConfig{HistoryK: 5, ExampleK: 2},
		Output:    config.OutputConfig{Dir: t.TempDir()},
		Server:    config.ServerConfig{Port: 8080, APIKey: "secret"},
	}
}

func newTestEnv(t *testing.T, backend anthropic.Client) *pipelineEnv {
	t.Helper()
	store := retrieval.NewMemory()
	provider := retrieval.NewProvider(store, nil, 1000, 200)
	return &pipelineEnv{
		Store:    store,
		Provider: provider,
		Pipeline: pipeline.New(cfg, backend, provider, docgen.NewDocxConverter()),
	}
}

func snapshotForm(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth_NoAPIKeyRequired(t *testing.T) {
	cfg = testServeConfig(t)
	router := newRouter(newTestEnv(t, &stubBackend{text: "ok"}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAPIKeyMiddleware(t *testing.T) {
	cfg = testServeConfig(t)
	router := newRouter(newTestEnv(t, &stubBackend{text: "ok"}))

	body, contentType := snapshotForm(t, "stock_050425.csv", serveTestCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/group", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body, contentType = snapshotForm(t, "stock_050425.csv", serveTestCSV)
	req = httptest.NewRequest(http.MethodPost, "/api/group", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", "secret")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGroupEndpoint(t *testing.T) {
	cfg = testServeConfig(t)
	cfg.Server.APIKey = ""
	router := newRouter(newTestEnv(t, &stubBackend{text: "ok"}))

	body, contentType := snapshotForm(t, "stock_050425.csv", serveTestCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/group", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Groups []struct {
			Supplier string `json:"supplier"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "Acme GmbH", resp.Groups[0].Supplier)
}

func TestGroupEndpoint_MissingFile(t *testing.T) {
	cfg = testServeConfig(t)
	cfg.Server.APIKey = ""
	router := newRouter(newTestEnv(t, &stubBackend{text: "ok"}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/group", strings.NewReader("not multipart")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunEndpoint_BackendFailure(t *testing.T) {
	cfg = testServeConfig(t)
	cfg.Server.APIKey = ""
	router := newRouter(newTestEnv(t, &stubBackend{err: assert.AnError}))

	body, contentType := snapshotForm(t, "stock_050425.csv", serveTestCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/run", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestRunEndpoint_InMemory(t *testing.T) {
	cfg = testServeConfig(t)
	cfg.Server.APIKey = ""
	router := newRouter(newTestEnv(t, &stubBackend{text: "Generated document body."}))

	body, contentType := snapshotForm(t, "stock_050425.csv", serveTestCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/run?in_memory=true", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Reports []struct {
			Filename      string `json:"filename"`
			ContentBase64 string `json:"content_base64"`
			SavedPath     string `json:"saved_path"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "analysis_2025-04-05_Acme_GmbH.docx", result.Reports[0].Filename)
	assert.NotEmpty(t, result.Reports[0].ContentBase64)
	assert.Empty(t, result.Reports[0].SavedPath)
}

func TestStreamEndpoint_NDJSON(t *testing.T) {
	cfg = testServeConfig(t)
	cfg.Server.APIKey = ""
	router := newRouter(newTestEnv(t, &stubBackend{text: "Generated document body."}))

	body, contentType := snapshotForm(t, "stock_050425.csv", serveTestCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/run/stream?in_memory=true", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	var steps []string
	scanner := bufio.NewScanner(rec.Body)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		var event map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event), "line: %s", scanner.Text())
		step, ok := event["step"].(string)
		require.True(t, ok)
		steps = append(steps, step)
	}
	require.NoError(t, scanner.Err())

	require.NotEmpty(t, steps)
	assert.Equal(t, "csv_parsing", steps[0])
	assert.Equal(t, "complete", steps[len(steps)-1])
	terminals := 0
	for _, s := range steps {
		if s == "complete" || s == "error" {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestStreamEndpoint_ErrorTerminal(t *testing.T) {
	cfg = testServeConfig(t)
	cfg.Server.APIKey = ""
	router := newRouter(newTestEnv(t, &stubBackend{err: assert.AnError}))

	body, contentType := snapshotForm(t, "stock_050425.csv", serveTestCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/run/stream", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, "error", last["step"])
	assert.NotEmpty(t, last["error"])
}

func TestOutputListAndDownload(t *testing.T) {
	cfg = testServeConfig(t)
	cfg.Server.APIKey = ""
	router := newRouter(newTestEnv(t, &stubBackend{text: "Generated document body."}))

	// a materialized run writes artifacts under the output dir
	body, contentType := snapshotForm(t, "stock_050425.csv", serveTestCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/run", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/output", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Files []string `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{
		"analysis_2025-04-05_Acme_GmbH.docx",
		"pr_2025-04-05_Acme_GmbH.docx",
		"email_draft_2025-04-05_Acme_GmbH.docx",
	}, list.Files)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/output/analysis_2025-04-05_Acme_GmbH.docx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, docxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "analysis_2025-04-05_Acme_GmbH.docx")
	// zip container magic
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestOutputDownload_GuardsFilenames(t *testing.T) {
	cfg = testServeConfig(t)
	cfg.Server.APIKey = ""
	router := newRouter(newTestEnv(t, &stubBackend{text: "ok"}))

	for _, name := range []string{"config.yaml", "analysis.docx", "report_2025-04-05_Acme.docx"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/output/"+name, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "name %q", name)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/output/analysis_2025-04-05_Missing.docx", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOutputEndpoints_RequireAPIKey(t *testing.T) {
	cfg = testServeConfig(t)
	router := newRouter(newTestEnv(t, &stubBackend{text: "ok"}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/output", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIngestEndpoint_UnknownCollection(t *testing.T) {
	cfg = testServeConfig(t)
	cfg.Server.APIKey = ""
	router := newRouter(newTestEnv(t, &stubBackend{text: "ok"}))

	body, contentType := snapshotForm(t, "notes.md", "supplier notes")
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/nope", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestEndpoint_EmbedderUnavailable(t *testing.T) {
	cfg = testServeConfig(t)
	cfg.Server.APIKey = ""
	router := newRouter(newTestEnv(t, &stubBackend{text: "ok"}))

	body, contentType := snapshotForm(t, "notes.md", "supplier notes")
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/supplier_history", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
