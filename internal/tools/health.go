package tools

import (
	"encoding/json"
	"time"
)

type HealthTool struct {
	started time.Time
	names   func() []string
}

// NewHealthTool reports uptime and the registered tools of r.
func NewHealthTool(r *Registry) *HealthTool {
	return &HealthTool{started: time.Now(), names: r.Names}
}

func (t *HealthTool) Name() string {
	return "health"
}

func (t *HealthTool) Description() string {
	return "Check daemon health status"
}

func (t *HealthTool) Title() string {
	return "Health"
}

func (t *HealthTool) Annotations() map[string]bool {
	return ReadOnlyAnnotations()
}

func (t *HealthTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {},
		"required": []
	}`)
}

func (t *HealthTool) Execute(input json.RawMessage) (interface{}, error) {
	return map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(t.started).Seconds()),
		"tools":          t.names(),
	}, nil
}
