package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/alucardeht/wayleave/internal/logger"
	"github.com/alucardeht/wayleave/internal/tools"
	"github.com/alucardeht/wayleave/pkg/protocol"
	"github.com/alucardeht/wayleave/pkg/version"
)

var log = logger.ForComponent("mcp")

const ServerName = "wayleave"

// DefaultToolTimeout bounds a single tools/call. Scans of large inboxes are
// the slowest calls.
const DefaultToolTimeout = 4 * time.Minute

type Handler struct {
	registry    *tools.Registry
	startTime   time.Time
	toolTimeout time.Duration

	mu          sync.Mutex
	initialized bool
	clientInfo  ClientInfo
}

type ClientInfo struct {
	Name    string
	Version string
}

func NewHandler(registry *tools.Registry) *Handler {
	return &Handler{
		registry:    registry,
		startTime:   time.Now(),
		toolTimeout: DefaultToolTimeout,
	}
}

func (h *Handler) SetToolTimeout(d time.Duration) {
	h.toolTimeout = d
}

// Handle answers one request. Notifications are handled and yield nil.
func (h *Handler) Handle(req *Request) *Response {
	resp := &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	switch req.Method {
	case "initialize":
		result, err := h.handleInitialize(req)
		if err != nil {
			resp.Error = rpcError(protocol.CodeInvalidParams, err)
		} else {
			resp.Result = result
		}
	case "ping":
		resp.Result = map[string]interface{}{}
	case "tools/list":
		resp.Result = h.handleListTools()
	case "tools/call":
		result, err := h.handleCallTool(req)
		if err != nil {
			resp.Error = toolError(err)
		} else {
			resp.Result = result
		}
	case "notifications/initialized":
		h.handleInitializedNotification(req)
		resp.Result = map[string]interface{}{}
	default:
		resp.Error = &protocol.JSONRPCError{
			Code:    protocol.CodeMethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
	}

	if req.IsNotification() {
		return nil
	}
	return resp
}

func rpcError(code int, err error) *protocol.JSONRPCError {
	return &protocol.JSONRPCError{Code: code, Message: err.Error()}
}

func toolError(err error) *protocol.JSONRPCError {
	var toolErr *tools.ToolError
	if errors.As(err, &toolErr) {
		return &protocol.JSONRPCError{Code: toolErr.Code, Message: toolErr.Message}
	}
	return rpcError(protocol.CodeInternalError, err)
}

func (h *Handler) handleInitialize(req *Request) (interface{}, error) {
	var initReq InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &initReq); err != nil {
			return nil, fmt.Errorf("failed to parse initialize request: %w", err)
		}
	}

	h.mu.Lock()
	h.clientInfo.Name = initReq.ClientInfo.Name
	h.clientInfo.Version = initReq.ClientInfo.Version
	h.mu.Unlock()

	log.Info("client connected", "client", initReq.ClientInfo.Name, "version", initReq.ClientInfo.Version)

	return InitializeResponse{
		ProtocolVersion: negotiateProtocolVersion(initReq.ProtocolVersion),
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: version.Version,
		},
	}, nil
}

func negotiateProtocolVersion(clientVersion string) string {
	for _, v := range version.SupportedProtocolVersions {
		if clientVersion == v {
			return v
		}
	}

	return version.ProtocolVersion
}

func (h *Handler) handleListTools() interface{} {
	toolsList := h.registry.List()
	toolsData := make([]Tool, len(toolsList))

	for i, t := range toolsList {
		toolData := Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		}

		if annotated, ok := t.(tools.AnnotatedTool); ok {
			toolData.Title = annotated.Title()
			toolData.Annotations = annotated.Annotations()
		}

		toolsData[i] = toolData
	}

	return ListToolsResponse{Tools: toolsData}
}

func (h *Handler) handleInitializedNotification(req *Request) {
	h.mu.Lock()
	h.initialized = true
	h.mu.Unlock()
}

func (h *Handler) Initialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized
}

func (h *Handler) handleCallTool(req *Request) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool execution panicked: %v", r)
			log.Error("tool panic recovered",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	var callReq ToolCall
	if len(req.Params) == 0 {
		return nil, tools.NewInvalidParamsError("tool name is required")
	}
	if err := json.Unmarshal(req.Params, &callReq); err != nil {
		return nil, tools.NewInvalidParamsError("failed to parse tool call request: %v", err)
	}

	if callReq.Name == "" {
		return nil, tools.NewInvalidParamsError("tool name is required")
	}

	started := time.Now()
	result, err = h.registry.ExecuteWithTimeout(callReq.Name, callReq.Arguments, h.toolTimeout)
	if err != nil {
		log.Warn("tool call failed", "tool", callReq.Name, "error", err)
		return nil, err
	}
	log.Debug("tool call finished", "tool", callReq.Name, "duration", time.Since(started))

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return protocol.ToolResult{
		Content: []protocol.Content{
			{Type: "text", Text: string(resultJSON)},
		},
	}, nil
}
