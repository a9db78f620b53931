package letters

import (
	"encoding/json"

	"github.com/alucardeht/wayleave/internal/registry"
	"github.com/alucardeht/wayleave/internal/tools"
)

type StatusRequest struct {
	Limit int `json:"limit,omitempty"`
}

type StatusResponse struct {
	registry.Stats
	RecentFailures []*registry.Document `json:"recent_failures"`
}

type StatusTool struct {
	store *registry.Store
}

func (t *StatusTool) Name() string {
	return "registry_status"
}

func (t *StatusTool) Description() string {
	return "Show processing counts, the last scan and the most recent agreements that produced no letter"
}

func (t *StatusTool) Title() string {
	return "Registry Status"
}

func (t *StatusTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *StatusTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"limit": {
				"type": "integer",
				"description": "Maximum failures to list (optional, default: 10)",
				"minimum": 1
			}
		}
	}`)
}

func (t *StatusTool) Execute(input json.RawMessage) (interface{}, error) {
	var req StatusRequest
	if err := decode(input, &req); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	stats, err := t.store.Stats()
	if err != nil {
		return nil, err
	}
	failures, err := t.store.ListByStatus(registry.StatusFailed, req.Limit)
	if err != nil {
		return nil, err
	}
	if failures == nil {
		failures = []*registry.Document{}
	}

	return StatusResponse{Stats: stats, RecentFailures: failures}, nil
}
