package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (dispatcher *Dispatcher) {
	t.Helper()

	registry := NewRegistry(100*time.Millisecond, testLogger())

	registry.Register(Tool{
		Name:        "echo_subject",
		Description: "echoes its subject argument",
		Category:    "test",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"subject": map[string]interface{}{"type": "string"},
			},
			"required": []string{"subject"},
		},
	}, func(_ context.Context, args map[string]interface{}, _ *InvocationContext) (interface{}, error) {
		return map[string]interface{}{"subject": args["subject"]}, nil
	})

	registry.Register(Tool{Name: "broken", Category: "test"}, func(_ context.Context, _ map[string]interface{}, _ *InvocationContext) (interface{}, error) {
		return nil, errors.New("downstream service unavailable")
	})

	registry.Register(Tool{Name: "panicky", Category: "test"}, func(_ context.Context, _ map[string]interface{}, _ *InvocationContext) (interface{}, error) {
		panic("handler bug")
	})

	registry.Register(Tool{Name: "sleepy", Category: "slow"}, func(ctx context.Context, _ map[string]interface{}, _ *InvocationContext) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	dispatcher = NewDispatcher(registry, testLogger())
	return dispatcher
}

func dispatch(t *testing.T, dispatcher *Dispatcher, req Request) (response Response) {
	t.Helper()

	response = dispatcher.Dispatch(context.Background(), req, &InvocationContext{RequestID: "test-request"})
	return response
}

func TestDispatchInitialize(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t)

	response := dispatch(t, dispatcher, Request{JSONRPC: "2.0", ID: "1", Method: MethodInitialize})

	require.Nil(t, response.Error)
	require.Equal(t, "1", response.ID)

	info, ok := response.Result.(ServerInfo)
	require.True(t, ok)
	require.Equal(t, ProtocolVersion, info.ProtocolVersion)
	require.Equal(t, ServerName, info.ServerInfo.Name)
}

func TestDispatchToolsList(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t)

	response := dispatch(t, dispatcher, Request{JSONRPC: "2.0", ID: 7, Method: MethodToolsList})

	require.Nil(t, response.Error)

	result, ok := response.Result.(map[string]interface{})
	require.True(t, ok)

	tools, ok := result["tools"].([]Tool)
	require.True(t, ok)
	require.Len(t, tools, 4)
	require.Equal(t, "echo_subject", tools[0].Name, "tools/list must preserve registration order")
}

func TestDispatchToolsListIdempotent(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t)

	first := dispatch(t, dispatcher, Request{JSONRPC: "2.0", ID: 1, Method: MethodToolsList})
	second := dispatch(t, dispatcher, Request{JSONRPC: "2.0", ID: 2, Method: MethodToolsList})

	require.Equal(t, first.Result, second.Result)
}

func TestDispatchCapabilities(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t)

	response := dispatch(t, dispatcher, Request{JSONRPC: "2.0", ID: "cap", Method: MethodCapabilities})

	require.Nil(t, response.Error)

	result, ok := response.Result.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, 4, result["toolCount"])

	categories, ok := result["categories"].(map[string]int)
	require.True(t, ok)
	require.Equal(t, 3, categories["test"])
	require.Equal(t, 1, categories["slow"])
}

func TestDispatchUnknownMethod(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t)

	response := dispatch(t, dispatcher, Request{JSONRPC: "2.0", ID: "x", Method: "resources/list"})

	require.Nil(t, response.Result)
	require.NotNil(t, response.Error)
	require.Equal(t, CodeMethodNotFound, response.Error.Code)
	require.Contains(t, response.Error.Message, "resources/list")
}

func TestDispatchToolCall(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t)

	tests := []struct {
		name        string
		params      map[string]interface{}
		wantCode    int
		wantMessage string
		check       func(t *testing.T, result interface{})
	}{
		{
			name: "success",
			params: map[string]interface{}{
				"name":      "echo_subject",
				"arguments": map[string]interface{}{"subject": "Ocean life"},
			},
			check: func(t *testing.T, result interface{}) {
				t.Helper()
				m, ok := result.(map[string]interface{})
				require.True(t, ok)
				require.Equal(t, "Ocean life", m["subject"])
			},
		},
		{
			name:        "missing name",
			params:      map[string]interface{}{"arguments": map[string]interface{}{}},
			wantCode:    CodeInvalidParams,
			wantMessage: "name is required",
		},
		{
			name: "unknown tool",
			params: map[string]interface{}{
				"name":      "nonexistent_tool",
				"arguments": map[string]interface{}{},
			},
			wantCode:    CodeMethodNotFound,
			wantMessage: "Tool 'nonexistent_tool' not found",
		},
		{
			name: "schema violation",
			params: map[string]interface{}{
				"name":      "echo_subject",
				"arguments": map[string]interface{}{},
			},
			wantCode:    CodeInvalidParams,
			wantMessage: "missing required argument: subject",
		},
		{
			name: "handler error",
			params: map[string]interface{}{
				"name":      "broken",
				"arguments": map[string]interface{}{},
			},
			wantCode:    CodeInternalError,
			wantMessage: "downstream service unavailable",
		},
		{
			name: "handler panic",
			params: map[string]interface{}{
				"name":      "panicky",
				"arguments": map[string]interface{}{},
			},
			wantCode:    CodeInternalError,
			wantMessage: "handler bug",
		},
		{
			name: "handler timeout",
			params: map[string]interface{}{
				"name":      "sleepy",
				"arguments": map[string]interface{}{},
			},
			wantCode:    CodeServerError,
			wantMessage: "timed out",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			response := dispatch(t, dispatcher, Request{
				JSONRPC: "2.0",
				ID:      tt.name,
				Method:  MethodToolsCall,
				Params:  tt.params,
			})

			require.Equal(t, tt.name, response.ID, "response must echo the request ID")

			if tt.wantCode != 0 {
				require.Nil(t, response.Result, "error responses must not carry a result")
				require.NotNil(t, response.Error)
				require.Equal(t, tt.wantCode, response.Error.Code)
				require.Contains(t, response.Error.Message, tt.wantMessage)
				return
			}

			require.Nil(t, response.Error)
			tt.check(t, response.Result)
		})
	}
}

func TestValidateEnvelope(t *testing.T) {
	t.Parallel()

	dispatcher := newTestDispatcher(t)

	tests := []struct {
		name     string
		jsonrpc  string
		wantCode int
	}{
		{name: "valid", jsonrpc: "2.0"},
		{name: "wrong version", jsonrpc: "1.0", wantCode: CodeInvalidRequest},
		{name: "empty version", jsonrpc: "", wantCode: CodeInvalidRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rpcErr := dispatcher.ValidateEnvelope(Request{JSONRPC: tt.jsonrpc, Method: MethodInitialize})

			if tt.wantCode == 0 {
				require.Nil(t, rpcErr)
			} else {
				require.NotNil(t, rpcErr)
				require.Equal(t, tt.wantCode, rpcErr.Code)
			}
		})
	}
}
