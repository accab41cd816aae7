package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Bzcasper/mcp-gateway/pkg/metrics"
)

// Dispatcher routes validated JSON-RPC envelopes to the supported operations
// and packages results or failures into response envelopes. It holds no state
// between requests beyond the registry reference.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a new request dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) (dispatcher *Dispatcher) {
	dispatcher = &Dispatcher{
		registry: registry,
		logger:   logger,
	}
	return dispatcher
}

// ValidateEnvelope checks the protocol-level shape of a parsed request.
// Returns nil when the envelope is acceptable.
func (d *Dispatcher) ValidateEnvelope(req Request) (rpcErr *Error) {
	if req.JSONRPC != JSONRPCVersion {
		rpcErr = &Error{
			Code:    CodeInvalidRequest,
			Message: fmt.Sprintf("invalid request: jsonrpc must be %q", JSONRPCVersion),
		}
	}
	return rpcErr
}

// Dispatch routes a validated envelope by method. Handler failures never
// escape as transport faults: everything raised past this point becomes a
// JSON-RPC error object.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, ictx *InvocationContext) (response Response) {
	switch req.Method {
	case MethodInitialize:
		response = d.handleInitialize(req)

	case MethodToolsList:
		response = d.handleListTools(req)

	case MethodToolsCall:
		response = d.handleToolCall(ctx, req, ictx)

	case MethodCapabilities:
		response = d.handleCapabilities(req)

	default:
		response = NewError(req.ID, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}

	outcome := "ok"
	if response.Error != nil {
		outcome = "error"
	}
	metrics.RequestsTotal.WithLabelValues(req.Method, outcome).Inc()

	return response
}

// handleInitialize returns protocol version, capabilities, and server identity.
func (d *Dispatcher) handleInitialize(req Request) (response Response) {
	info := ServerInfo{
		ProtocolVersion: ProtocolVersion,
		Capabilities: Capabilities{
			Tools: map[string]interface{}{},
		},
		ServerInfo: Metadata{
			Name:    ServerName,
			Version: ServerVersion,
		},
	}

	response = NewResult(req.ID, info)
	return response
}

// handleListTools returns all registered tool descriptors in registration order.
func (d *Dispatcher) handleListTools(req Request) (response Response) {
	response = NewResult(req.ID, map[string]interface{}{
		"tools": d.registry.List(),
	})
	return response
}

// handleCapabilities returns aggregate tool counts per category.
func (d *Dispatcher) handleCapabilities(req Request) (response Response) {
	counts := d.registry.Categories()

	response = NewResult(req.ID, map[string]interface{}{
		"categories": counts,
		"toolCount":  len(d.registry.List()),
	})
	return response
}

// handleToolCall validates params, checks them against the tool's declared
// input schema, and invokes the bound handler.
func (d *Dispatcher) handleToolCall(ctx context.Context, req Request, ictx *InvocationContext) (response Response) {
	var params ToolCallParams

	err := DecodeParams(req.Params, &params)
	if err != nil {
		response = NewError(req.ID, CodeInvalidParams, fmt.Sprintf("invalid params: %v", err))
		return response
	}

	if params.Name == "" {
		response = NewError(req.ID, CodeInvalidParams, "invalid params: name is required")
		return response
	}

	tool, found := d.registry.Get(params.Name)
	if !found {
		response = NewError(req.ID, CodeMethodNotFound, fmt.Sprintf("Tool '%s' not found", params.Name))
		return response
	}

	args, err := ValidateArguments(tool.InputSchema, params.Arguments)
	if err != nil {
		metrics.ToolExecutionsTotal.WithLabelValues(params.Name, "invalid_params").Inc()
		response = NewError(req.ID, CodeInvalidParams, fmt.Sprintf("invalid arguments: %v", err))
		return response
	}

	d.logger.InfoContext(ctx, "executing tool",
		slog.String("tool", params.Name),
		slog.String("request_id", ictx.RequestID))

	result, err := d.invoke(ctx, params.Name, args, ictx)
	if err != nil {
		switch {
		case errors.Is(err, ErrToolNotFound):
			metrics.ToolExecutionsTotal.WithLabelValues(params.Name, "not_found").Inc()
			response = NewError(req.ID, CodeMethodNotFound, fmt.Sprintf("Tool '%s' not found", params.Name))

		case errors.Is(err, context.DeadlineExceeded):
			metrics.ToolExecutionsTotal.WithLabelValues(params.Name, "timeout").Inc()
			response = NewError(req.ID, CodeServerError, fmt.Sprintf("Tool '%s' timed out", params.Name))

		default:
			metrics.ToolExecutionsTotal.WithLabelValues(params.Name, "error").Inc()
			response = NewError(req.ID, CodeInternalError, err.Error())
		}
		return response
	}

	metrics.ToolExecutionsTotal.WithLabelValues(params.Name, "ok").Inc()

	response = NewResult(req.ID, result)
	return response
}

// invoke runs the registry invocation with panic containment so a misbehaving
// handler degrades to an internal error instead of killing the request.
func (d *Dispatcher) invoke(ctx context.Context, name string, args map[string]interface{}, ictx *InvocationContext) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "tool handler panicked",
				slog.String("tool", name),
				slog.Any("panic", r))
			err = fmt.Errorf("tool execution error: %v", r)
		}
	}()

	result, err = d.registry.Invoke(ctx, name, args, ictx)
	return result, err
}
