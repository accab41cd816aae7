package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bzcasper/mcp-gateway/pkg/mcp/auth"
	"github.com/Bzcasper/mcp-gateway/pkg/metrics"
)

// HTTPServer is the HTTP boundary around the dispatcher: CORS, method
// whitelisting, auth gating, and status-code mapping.
type HTTPServer struct {
	dispatcher *Dispatcher
	gate       *auth.Gate
	logger     *slog.Logger
	httpServer *http.Server
}

// NewHTTPServer creates a new HTTP server wrapping the dispatcher.
func NewHTTPServer(dispatcher *Dispatcher, gate *auth.Gate, addr string, logger *slog.Logger) (result *HTTPServer) {
	result = &HTTPServer{
		dispatcher: dispatcher,
		gate:       gate,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", result.handleMCP)
	mux.HandleFunc("/healthz", result.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	result.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return result
}

// Start starts the HTTP server.
func (h *HTTPServer) Start(ctx context.Context) (err error) {
	h.logger.InfoContext(ctx, "starting MCP HTTP server", slog.String("addr", h.httpServer.Addr))

	err = h.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = nil
	return err
}

// Shutdown gracefully shuts down the HTTP server.
func (h *HTTPServer) Shutdown(ctx context.Context) (err error) {
	h.logger.InfoContext(ctx, "shutting down MCP HTTP server")

	err = h.httpServer.Shutdown(ctx)
	return err
}

// Serve runs the server until ctx is cancelled, then shuts down gracefully.
func (h *HTTPServer) Serve(ctx context.Context) (err error) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Shutdown(shutdownCtx)
	}()

	err = h.Start(ctx)
	return err
}

// setCORSHeaders sets permissive CORS headers. Done before any other
// processing so even error responses carry them.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// handleHealth returns server health status.
func (h *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]interface{}{
		"status":  "healthy",
		"service": ServerName,
	}

	encoder := json.NewEncoder(w)
	_ = encoder.Encode(response)
}

// handleMCP is the single JSON-RPC endpoint. Transport-level failures (wrong
// method, missing or bad credentials, unreadable body) carry their own HTTP
// status; once an envelope has been parsed and routed, the response is 200
// whether or not its body is a JSON-RPC error.
func (h *HTTPServer) handleMCP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	requestID := uuid.New().String()

	if r.Method != http.MethodPost {
		metrics.TransportErrorsTotal.WithLabelValues("method_not_allowed").Inc()
		h.writeResponse(w, http.StatusMethodNotAllowed,
			NewError(nil, CodeInvalidRequest, "method not allowed: POST is required"))
		return
	}

	authResult, err := h.gate.Authenticate(r)
	if err != nil {
		message := "Invalid credentials"
		reason := "invalid_credentials"
		if errors.Is(err, auth.ErrNoCredential) {
			message = "Authentication required"
			reason = "missing_credentials"
		}

		metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
		h.logger.Warn("request rejected by auth gate",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))

		h.writeResponse(w, http.StatusUnauthorized, NewError(nil, CodeAuthError, message))
		return
	}

	var request Request
	decoder := json.NewDecoder(r.Body)
	err = decoder.Decode(&request)
	if err != nil {
		// The body never became an envelope, so there is no ID to echo and no
		// RPC-level error to return. Surface a 500 with correlation data and
		// keep the parse detail out of the client-visible message.
		metrics.TransportErrorsTotal.WithLabelValues("unparseable_body").Inc()
		h.logger.Error("failed to parse request body",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))

		response := NewError(nil, CodeInternalError, "Internal server error")
		response.Error.Data = map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"requestId": requestID,
		}
		h.writeResponse(w, http.StatusInternalServerError, response)
		return
	}

	if rpcErr := h.dispatcher.ValidateEnvelope(request); rpcErr != nil {
		metrics.TransportErrorsTotal.WithLabelValues("invalid_envelope").Inc()
		h.writeResponse(w, http.StatusBadRequest, Response{
			JSONRPC: JSONRPCVersion,
			ID:      request.ID,
			Error:   rpcErr,
		})
		return
	}

	h.logger.Info("received MCP request",
		slog.String("request_id", requestID),
		slog.String("method", request.Method),
		slog.Any("id", request.ID))

	ictx := &InvocationContext{
		Auth:      authResult,
		Request:   r,
		RequestID: requestID,
	}

	response := h.dispatcher.Dispatch(r.Context(), request, ictx)
	h.writeResponse(w, http.StatusOK, response)
}

// writeResponse writes a JSON-RPC response with the given HTTP status.
func (h *HTTPServer) writeResponse(w http.ResponseWriter, status int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	err := encoder.Encode(response)
	if err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
