package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Bzcasper/mcp-gateway/pkg/mcp/auth"
)

const testMasterKey = "test-master-key-0123456789"

// newTestHTTPServer creates a fully wired HTTPServer with a small registry
// covering the database and video_generation categories.
func newTestHTTPServer(t *testing.T) (httpServer *HTTPServer) {
	t.Helper()

	logger := testLogger()

	registry := NewRegistry(0, logger)

	registry.Register(Tool{
		Name:        "query_database",
		Description: "run a read-only query",
		Category:    "database",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string"},
			},
			"required": []string{"query"},
		},
	}, func(_ context.Context, args map[string]interface{}, _ *InvocationContext) (interface{}, error) {
		return map[string]interface{}{"rows": []interface{}{}, "query": args["query"]}, nil
	})

	registry.Register(Tool{
		Name:        "generate_video_script",
		Description: "generate a narration script",
		Category:    "video_generation",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"video_subject": map[string]interface{}{"type": "string"},
			},
			"required": []string{"video_subject"},
		},
	}, func(_ context.Context, args map[string]interface{}, _ *InvocationContext) (interface{}, error) {
		subject, _ := args["video_subject"].(string)
		return map[string]interface{}{
			"subject": subject,
			"script":  fmt.Sprintf("A short film about %s.", subject),
		}, nil
	})

	gate := auth.NewGate([]auth.Validator{
		auth.NewAPIKeyValidator(testMasterKey, 16),
	}, logger)

	dispatcher := NewDispatcher(registry, logger)
	httpServer = NewHTTPServer(dispatcher, gate, ":0", logger)

	return httpServer
}

// doMCP sends a request through the /mcp handler and decodes the JSON body.
func doMCP(t *testing.T, httpServer *HTTPServer, method, body, authHeader string) (resp *http.Response, decoded Response) {
	t.Helper()

	req := httptest.NewRequest(method, "/mcp", strings.NewReader(body))
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	httpServer.handleMCP(w, req)

	resp = w.Result()
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})

	_ = json.NewDecoder(resp.Body).Decode(&decoded)

	return resp, decoded
}

func requireCORSHeaders(t *testing.T, resp *http.Response) {
	t.Helper()

	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	require.Equal(t, "Content-Type, Authorization", resp.Header.Get("Access-Control-Allow-Headers"))
}

func TestHandleMCPOptionsPreflight(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	w := httptest.NewRecorder()
	httpServer.handleMCP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	requireCORSHeaders(t, resp)
	require.Zero(t, w.Body.Len(), "preflight response body must be empty")
}

func TestHandleMCPMethodNotAllowed(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	resp, decoded := doMCP(t, httpServer, http.MethodGet, "", "Bearer "+testMasterKey)

	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	requireCORSHeaders(t, resp)
	require.NotNil(t, decoded.Error)
	require.Equal(t, CodeInvalidRequest, decoded.Error.Code)
	require.Contains(t, decoded.Error.Message, "POST")
}

func TestHandleMCPAuthRequired(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	body := `{"jsonrpc":"2.0","id":"1","method":"tools/list","params":{}}`
	resp, decoded := doMCP(t, httpServer, http.MethodPost, body, "")

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	require.Equal(t, CodeAuthError, decoded.Error.Code)
	require.Equal(t, "Authentication required", decoded.Error.Message)
}

func TestHandleMCPInvalidCredentials(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	tests := []struct {
		name       string
		authHeader string
	}{
		{name: "short api key", authHeader: "Bearer short"},
		{name: "wrong api key", authHeader: "Bearer wrong-key-0123456789"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			body := `{"jsonrpc":"2.0","id":"1","method":"tools/list","params":{}}`
			resp, decoded := doMCP(t, httpServer, http.MethodPost, body, tt.authHeader)

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.NotNil(t, decoded.Error)
			require.Equal(t, CodeAuthError, decoded.Error.Code)
			require.Equal(t, "Invalid credentials", decoded.Error.Message)
		})
	}
}

func TestHandleMCPUnparseableBody(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	resp, decoded := doMCP(t, httpServer, http.MethodPost, `{invalid json`, "Bearer "+testMasterKey)

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	require.Equal(t, CodeInternalError, decoded.Error.Code)
	require.Equal(t, "Internal server error", decoded.Error.Message)

	data, ok := decoded.Error.Data.(map[string]interface{})
	require.True(t, ok, "critical errors must carry correlation data")
	require.NotEmpty(t, data["requestId"])
	require.NotEmpty(t, data["timestamp"])
}

func TestHandleMCPInvalidEnvelopeVersion(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	body := `{"jsonrpc":"1.0","id":"v","method":"tools/list","params":{}}`
	resp, decoded := doMCP(t, httpServer, http.MethodPost, body, "Bearer "+testMasterKey)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	require.Equal(t, CodeInvalidRequest, decoded.Error.Code)
	require.Equal(t, "v", decoded.ID, "response must echo the request ID even on errors")
}

func TestHandleMCPToolsList(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	body := `{"jsonrpc":"2.0","id":"1","method":"tools/list","params":{}}`
	resp, decoded := doMCP(t, httpServer, http.MethodPost, body, "Bearer "+testMasterKey)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	requireCORSHeaders(t, resp)
	require.Nil(t, decoded.Error)
	require.Equal(t, "1", decoded.ID)

	result, ok := decoded.Result.(map[string]interface{})
	require.True(t, ok)

	tools, ok := result["tools"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, tools)

	categories := make(map[string]bool)
	for _, raw := range tools {
		tool, toolOK := raw.(map[string]interface{})
		require.True(t, toolOK)
		category, _ := tool["category"].(string)
		categories[category] = true
	}
	require.True(t, categories["database"], "tools/list must include a database tool")
	require.True(t, categories["video_generation"], "tools/list must include a video_generation tool")
}

func TestHandleMCPToolCallGenerateVideoScript(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	body := `{"jsonrpc":"2.0","id":"2","method":"tools/call","params":{"name":"generate_video_script","arguments":{"video_subject":"Ocean life"}}}`
	resp, decoded := doMCP(t, httpServer, http.MethodPost, body, "Bearer "+testMasterKey)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, decoded.Error)
	require.Equal(t, "2", decoded.ID)

	result, ok := decoded.Result.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "Ocean life", result["subject"])

	script, _ := result["script"].(string)
	require.NotEmpty(t, script)
}

func TestHandleMCPToolCallUnknownTool(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	body := `{"jsonrpc":"2.0","id":"3","method":"tools/call","params":{"name":"nonexistent_tool","arguments":{}}}`
	resp, decoded := doMCP(t, httpServer, http.MethodPost, body, "Bearer "+testMasterKey)

	require.Equal(t, http.StatusOK, resp.StatusCode, "RPC-level errors ride on HTTP 200")
	require.NotNil(t, decoded.Error)
	require.Equal(t, CodeMethodNotFound, decoded.Error.Code)
	require.Contains(t, decoded.Error.Message, "nonexistent_tool")
	require.Nil(t, decoded.Result)
	require.Equal(t, "3", decoded.ID)
}

func TestHandleMCPUnknownMethod(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	body := `{"jsonrpc":"2.0","id":"4","method":"prompts/list","params":{}}`
	resp, decoded := doMCP(t, httpServer, http.MethodPost, body, "Bearer "+testMasterKey)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	require.Equal(t, CodeMethodNotFound, decoded.Error.Code)
}

func TestHandleMCPServerCapabilities(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	body := `{"jsonrpc":"2.0","id":"5","method":"server/capabilities","params":{}}`
	resp, decoded := doMCP(t, httpServer, http.MethodPost, body, "Bearer "+testMasterKey)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, decoded.Error)

	result, ok := decoded.Result.(map[string]interface{})
	require.True(t, ok)

	categories, ok := result["categories"].(map[string]interface{})
	require.True(t, ok)
	require.InDelta(t, 1, categories["database"], 0)
	require.InDelta(t, 1, categories["video_generation"], 0)
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	httpServer := newTestHTTPServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	httpServer.handleHealth(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]interface{}
	err := json.NewDecoder(resp.Body).Decode(&body)
	require.NoError(t, err)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, ServerName, body["service"])
}
